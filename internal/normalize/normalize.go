package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"

	"github.com/r0cstar09/jobtailor/internal/feed"
	"github.com/r0cstar09/jobtailor/internal/job"
)

// Stats counts the entries that did not become jobs.
type Stats struct {
	SkippedUnidentifiable int
	DuplicatesCollapsed   int
}

type Normalizer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts raw feed entries into canonical jobs. It is total: every
// entry either becomes a job or is counted in the returned stats. The same
// entries always yield the same jobs in the same order, regardless of when
// the feed was fetched.
func (n *Normalizer) Normalize(entries []feed.RawEntry) (*job.Jobs, Stats) {
	jobs := &job.Jobs{}
	stats := Stats{}
	seen := make(map[string]bool, len(entries))

	for i, entry := range entries {
		id, ok := deriveID(entry)
		if !ok {
			stats.SkippedUnidentifiable++
			n.logger.Warn("skipping entry without usable identity",
				zap.Int("entry_index", i),
				zap.String("title", entry.Title),
			)
			continue
		}

		if seen[id] {
			stats.DuplicatesCollapsed++
			n.logger.Debug("collapsing duplicate entry",
				zap.Int("entry_index", i),
				zap.String("job_id", id),
			)
			continue
		}
		seen[id] = true

		j := &job.Job{
			ID:          id,
			Title:       CleanText(entry.Title),
			Company:     CleanText(entry.Author),
			Description: ExtractText(entry.Summary),
			URL:         strings.TrimSpace(entry.Link),
			PostedAt:    entry.Published,
			RawRef:      rawRef(entry),
			Status:      job.StatusIngested,
		}
		if err := j.Transition(job.StatusNormalized, ""); err != nil {
			n.logger.Error("job status transition rejected", zap.Error(err))
			continue
		}

		jobs.Items = append(jobs.Items, j)
	}

	return jobs, stats
}

// deriveID prefers the canonicalized link, then the GUID, then a content
// hash. Entries carrying none of these cannot be addressed across runs and
// are dropped.
func deriveID(entry feed.RawEntry) (string, bool) {
	if canonical, ok := CanonicalURL(entry.Link); ok {
		return canonical, true
	}

	if guid := strings.TrimSpace(entry.GUID); guid != "" {
		return guid, true
	}

	title := strings.TrimSpace(entry.Title)
	summary := strings.TrimSpace(entry.Summary)
	if title == "" && summary == "" {
		return "", false
	}

	sum := sha256.Sum256([]byte(title + "\n" + summary))
	return "h:" + hex.EncodeToString(sum[:])[:12], true
}

func rawRef(entry feed.RawEntry) string {
	if guid := strings.TrimSpace(entry.GUID); guid != "" {
		return guid
	}
	return strings.TrimSpace(entry.Link)
}
