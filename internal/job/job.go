package job

import (
	"encoding/json"
	"os"
	"time"
)

// Job is the canonical posting entity produced by normalization. The ID is
// deterministic for a given feed entry so re-running on the same feed yields
// the same artifacts.
type Job struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company,omitempty"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	// RawRef is the untouched identifier of the feed entry this job came
	// from, kept for tracing back to the source.
	RawRef string `json:"raw_ref,omitempty"`

	Status       string `json:"status,omitempty"`
	StatusReason string `json:"status_reason,omitempty"`
}

type Jobs struct {
	Items []*Job
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

func (j *Jobs) FindByID(id string) *Job {
	for _, item := range j.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// ReportByCompany groups the jobs by company name for the interactive report.
func (j *Jobs) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range j.Items {
		key := item.Company
		if key == "" {
			key = "(unknown company)"
		}

		entry := map[string]string{
			"title": item.Title,
			"url":   item.URL,
		}
		if item.PostedAt != nil {
			entry["posted_at"] = item.PostedAt.Format(time.RFC3339)
		}

		report[key] = append(report[key], entry)
	}
	return report
}

// DumpToTmpFile writes the jobs as indented JSON to a temporary file and
// returns its name.
func (j *Jobs) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(j); err != nil {
		return "", err
	}
	return file.Name(), nil
}
