package job

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestReportByCompanyGroupsJobs(t *testing.T) {
	posted := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	jobs := &Jobs{
		Items: []*Job{
			{ID: "1", Title: "Go Developer", Company: "Acme", URL: "https://acme.example/jobs/1", PostedAt: &posted},
			{ID: "2", Title: "SRE", Company: "Acme", URL: "https://acme.example/jobs/2"},
			{ID: "3", Title: "Backend Engineer", URL: "https://other.example/3"},
		},
	}

	report := jobs.ReportByCompany()

	acme, ok := report["Acme"]
	if !ok {
		t.Fatalf("expected Acme key in report, got %v", report)
	}
	if len(acme) != 2 {
		t.Fatalf("expected 2 Acme entries, got %d", len(acme))
	}
	if acme[0]["title"] != "Go Developer" {
		t.Fatalf("unexpected first entry: %+v", acme[0])
	}
	if acme[0]["posted_at"] != "2025-06-02T10:00:00Z" {
		t.Fatalf("unexpected posted_at: %q", acme[0]["posted_at"])
	}

	unknown, ok := report["(unknown company)"]
	if !ok || len(unknown) != 1 {
		t.Fatalf("expected one entry under unknown company, got %v", report)
	}
}

func TestFindByID(t *testing.T) {
	jobs := &Jobs{Items: []*Job{{ID: "a"}, {ID: "b"}}}

	if got := jobs.FindByID("b"); got == nil || got.ID != "b" {
		t.Fatalf("expected job b, got %+v", got)
	}
	if got := jobs.FindByID("missing"); got != nil {
		t.Fatalf("expected nil for missing id, got %+v", got)
	}
}

func TestDumpToTmpFile(t *testing.T) {
	jobs := &Jobs{Items: []*Job{{ID: "a", Title: "Go Developer"}}}

	name, err := jobs.DumpToTmpFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(name)

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	var decoded Jobs
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if decoded.Len() != 1 || decoded.Items[0].ID != "a" {
		t.Fatalf("unexpected dump content: %+v", decoded)
	}
}

func TestScoreResultFailed(t *testing.T) {
	if (ScoreResult{Score: 0.9}).Failed() {
		t.Fatal("result without error must not be failed")
	}
	if !(ScoreResult{Err: "model unavailable"}).Failed() {
		t.Fatal("result with error must be failed")
	}
}
