package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/r0cstar09/jobtailor/internal/job"
)

const (
	ResumeFile      = "resume.txt"
	CoverLetterFile = "cover_letter.txt"
	MetadataFile    = "metadata.json"

	maxSegmentBytes = 120
)

// Metadata sits next to the generated documents and records what they were
// generated for. It carries no run identifier: re-running on the same feed
// overwrites the directory with content differing only in generated_at and
// model output.
type Metadata struct {
	JobID       string     `json:"job_id"`
	Title       string     `json:"title"`
	Company     string     `json:"company,omitempty"`
	URL         string     `json:"url,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	Score       float64    `json:"score"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// WriteError is a per-job persistence failure. Only this job's artifacts
// are affected.
type WriteError struct {
	JobID string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write artifacts for %s: %v", e.JobID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type Writer struct {
	Root   string
	logger *zap.Logger
}

func NewWriter(root string, logger *zap.Logger) *Writer {
	return &Writer{Root: root, logger: logger}
}

// EnsureRoot creates the output root. Called once at startup, so an
// unusable root fails the run before any model call is paid for.
func (w *Writer) EnsureRoot() error {
	if strings.TrimSpace(w.Root) == "" {
		return fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(w.Root, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", w.Root, err)
	}
	return nil
}

// Dir returns the artifact directory for a job id.
func (w *Writer) Dir(jobID string) string {
	return filepath.Join(w.Root, SafeSegment(jobID))
}

// Write persists the application under the job's directory. Each file goes
// to a temp file first and is renamed into place, so a crash cannot leave a
// truncated document behind. Existing artifacts are overwritten.
func (w *Writer) Write(app *job.Application, j *job.Job) error {
	dir := w.Dir(j.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{JobID: j.ID, Err: err}
	}

	if err := writeBytes(filepath.Join(dir, ResumeFile), []byte(app.ResumeText)); err != nil {
		return &WriteError{JobID: j.ID, Err: err}
	}
	if err := writeBytes(filepath.Join(dir, CoverLetterFile), []byte(app.CoverLetterText)); err != nil {
		return &WriteError{JobID: j.ID, Err: err}
	}

	meta := Metadata{
		JobID:       j.ID,
		Title:       j.Title,
		Company:     j.Company,
		URL:         j.URL,
		PostedAt:    j.PostedAt,
		Score:       app.Score,
		GeneratedAt: app.GeneratedAt,
	}
	if err := writeJSON(filepath.Join(dir, MetadataFile), meta); err != nil {
		return &WriteError{JobID: j.ID, Err: err}
	}

	w.logger.Debug("wrote artifacts",
		zap.String("job_id", j.ID),
		zap.String("dir", dir),
	)

	return nil
}

// SafeSegment turns a job id into a single path segment: path-hostile runes
// become underscores and the result is capped at 120 bytes. Ids that
// sanitize to nothing, or to pure dot sequences, fall back to a hash.
func SafeSegment(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	segment := b.String()
	if len(segment) > maxSegmentBytes {
		segment = segment[:maxSegmentBytes]
	}
	if strings.Trim(segment, "._") == "" {
		sum := sha256.Sum256([]byte(id))
		return "job_" + hex.EncodeToString(sum[:])[:16]
	}

	return segment
}

func writeBytes(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".jobtailor-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON for %s: %w", path, err)
	}
	data = append(data, '\n')
	return writeBytes(path, data)
}
