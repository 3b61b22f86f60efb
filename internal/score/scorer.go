package score

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/r0cstar09/jobtailor/internal/ai"
	"github.com/r0cstar09/jobtailor/internal/job"
	"github.com/r0cstar09/jobtailor/internal/profile"
)

// Scorer rates how well a job matches the master profile. Implementations do
// not return an error: any failure is recorded on the result with Err set
// and a zero score, so a failed scoring can never pass the gate.
type Scorer interface {
	Score(ctx context.Context, p *profile.Profile, j *job.Job) job.ScoreResult
	Name() string
}

const scoreSystemPrompt = "You output only numbers. Respond with a single decimal number between 0.0 and 1.0. No text, no explanation, just the number."

// promptBudget caps the job text and the profile text in the scoring prompt,
// in runes. A relevance judgement does not need the full documents.
const promptBudget = 800

// LLMScorer asks the chat model directly for a relevance number. One
// completion per job.
type LLMScorer struct {
	completer ai.Completer
	logger    *zap.Logger
}

func NewLLMScorer(completer ai.Completer, logger *zap.Logger) *LLMScorer {
	return &LLMScorer{completer: completer, logger: logger}
}

func (s *LLMScorer) Name() string { return "llm" }

func (s *LLMScorer) Score(ctx context.Context, p *profile.Profile, j *job.Job) job.ScoreResult {
	res := job.ScoreResult{JobID: j.ID}

	raw, err := s.completer.Complete(ctx, ai.Request{
		Purpose: ai.PurposeScore,
		System:  scoreSystemPrompt,
		Prompt:  buildScorePrompt(p, j),
	})
	if err != nil {
		s.logger.Warn("scoring call failed",
			zap.String("job_id", j.ID),
			zap.Error(err),
		)
		res.Err = err.Error()
		return res
	}

	res.RawModelOutput = raw

	value, err := ParseScore(raw)
	if err != nil {
		s.logger.Warn("unparseable score response",
			zap.String("job_id", j.ID),
			zap.Error(err),
		)
		res.Err = err.Error()
		return res
	}

	res.Score = value
	return res
}

func buildScorePrompt(p *profile.Profile, j *job.Job) string {
	return fmt.Sprintf("Score (0.0-1.0):\n\nJob: %s\n\nResume: %s\n\nScore:",
		truncateRunes(jobText(j), promptBudget),
		truncateRunes(p.Content, promptBudget),
	)
}

func jobText(j *job.Job) string {
	return strings.TrimSpace(j.Title + "\n\n" + j.Description)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
