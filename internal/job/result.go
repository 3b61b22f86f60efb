package job

import "time"

// ScoreResult is the outcome of rating one job against the master resume.
// When Err is set the score is always zero so a failed scoring can never pass
// the threshold gate.
type ScoreResult struct {
	JobID string `json:"job_id"`
	// Score is the relevance in [0,1].
	Score float64 `json:"score"`
	// RawModelOutput keeps the unparsed model response for auditing.
	RawModelOutput string `json:"raw_model_output,omitempty"`
	Err            string `json:"error,omitempty"`
}

// Failed reports whether scoring itself failed, as opposed to producing a low
// score.
func (r ScoreResult) Failed() bool {
	return r.Err != ""
}

// Application is the tailored document pair generated for a job that cleared
// the threshold. It is all-or-nothing: either both texts are present or the
// generation failed and no Application exists.
type Application struct {
	JobID           string    `json:"job_id"`
	ResumeText      string    `json:"resume_text"`
	CoverLetterText string    `json:"cover_letter_text"`
	Score           float64   `json:"score"`
	GeneratedAt     time.Time `json:"generated_at"`
}
