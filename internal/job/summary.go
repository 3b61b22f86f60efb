package job

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunSummary aggregates the terminal-state distribution of a run. Every entry
// seen in the feed is reflected in exactly one of the counters; nothing is
// dropped silently.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	FeedURL    string    `json:"feed_url"`
	Strategy   string    `json:"strategy"`
	Threshold  float64   `json:"threshold"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	EntriesFetched        int `json:"entries_fetched"`
	SkippedUnidentifiable int `json:"skipped_unidentifiable"`
	DuplicatesCollapsed   int `json:"duplicates_collapsed"`
	Jobs                  int `json:"jobs"`

	ScoredOK    int `json:"scored_ok"`
	ScoreFailed int `json:"score_failed"`
	Rejected    int `json:"rejected"`
	GatedIn     int `json:"gated_in"`

	Generated        int `json:"generated"`
	GenerationFailed int `json:"generation_failed"`
	Written          int `json:"written"`
	WriteFailed      int `json:"write_failed"`
	Canceled         int `json:"canceled"`
}

// NewRunSummary starts a summary for a run, stamping a fresh run id.
func NewRunSummary(feedURL, strategy string, threshold float64) *RunSummary {
	return &RunSummary{
		RunID:     uuid.NewString(),
		FeedURL:   feedURL,
		Strategy:  strategy,
		Threshold: threshold,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end of the run.
func (s *RunSummary) Finish() {
	s.FinishedAt = time.Now().UTC()
}

func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Fields renders the counters as structured log fields for the final report.
func (s *RunSummary) Fields() []zap.Field {
	return []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Int("entries_fetched", s.EntriesFetched),
		zap.Int("skipped_unidentifiable", s.SkippedUnidentifiable),
		zap.Int("duplicates_collapsed", s.DuplicatesCollapsed),
		zap.Int("jobs", s.Jobs),
		zap.Int("scored_ok", s.ScoredOK),
		zap.Int("score_failed", s.ScoreFailed),
		zap.Int("rejected", s.Rejected),
		zap.Int("gated_in", s.GatedIn),
		zap.Int("generated", s.Generated),
		zap.Int("generation_failed", s.GenerationFailed),
		zap.Int("written", s.Written),
		zap.Int("write_failed", s.WriteFailed),
		zap.Int("canceled", s.Canceled),
		zap.Duration("duration", s.Duration()),
	}
}
