package job

import "testing"

func TestCanTransitionAllowsExpectedPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{"", StatusIngested},
		{StatusIngested, StatusNormalized},
		{StatusNormalized, StatusScored},
		{StatusNormalized, StatusCanceled},
		{StatusScored, StatusRejected},
		{StatusScored, StatusGatedIn},
		{StatusGatedIn, StatusGenerated},
		{StatusGatedIn, StatusGenFailed},
		{StatusGatedIn, StatusCanceled},
		{StatusGenerated, StatusWritten},
		{StatusGenerated, StatusWriteFailed},
	}

	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransitionRejectsInvalidPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{"", StatusWritten},
		{StatusIngested, StatusScored},
		{StatusNormalized, StatusGenerated},
		{StatusScored, StatusWritten},
		{StatusRejected, StatusGatedIn},
		{StatusWritten, StatusGenerated},
		{StatusCanceled, StatusScored},
		{"not_a_state", StatusScored},
	}

	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be rejected", tc.from, tc.to)
		}
	}
}

func TestTransitionBlocksIllegalMove(t *testing.T) {
	j := Job{ID: "job-1", Status: StatusNormalized}

	if err := j.Transition(StatusWritten, ""); err == nil {
		t.Fatal("expected illegal transition error")
	}

	if j.Status != StatusNormalized {
		t.Fatalf("status changed on failed transition: %q", j.Status)
	}
}

func TestTransitionRecordsReason(t *testing.T) {
	j := Job{ID: "job-1", Status: StatusScored}

	if err := j.Transition(StatusRejected, "below threshold"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if j.Status != StatusRejected || j.StatusReason != "below threshold" {
		t.Fatalf("unexpected job state: %q (%q)", j.Status, j.StatusReason)
	}
}

func TestIsTerminal(t *testing.T) {
	terminals := []string{StatusRejected, StatusGenFailed, StatusWritten, StatusWriteFailed, StatusCanceled}
	for _, status := range terminals {
		if !IsTerminal(status) {
			t.Fatalf("expected %q to be terminal", status)
		}
	}

	for _, status := range []string{StatusIngested, StatusNormalized, StatusScored, StatusGatedIn, StatusGenerated} {
		if IsTerminal(status) {
			t.Fatalf("expected %q to be non-terminal", status)
		}
	}

	if IsTerminal("bogus") {
		t.Fatal("unknown status must not be terminal")
	}
}
