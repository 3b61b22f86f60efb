package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"go.uber.org/zap"

	"github.com/r0cstar09/jobtailor/internal/ai"
	"github.com/r0cstar09/jobtailor/internal/job"
	"github.com/r0cstar09/jobtailor/internal/profile"
)

const (
	resumeSystemPrompt = "You are an expert resume writer."
	coverSystemPrompt  = "You are an expert cover letter writer."

	defaultResumeInstructions = "Create a tailored resume from the master resume focusing on the job posting. Return only the resume text."
	defaultCoverInstructions  = "Write a concise, persuasive cover letter tailored to the job posting and the applicant's master resume. Return only the cover letter text."
)

//go:embed prompts/resume.md
var resumeTemplate string

//go:embed prompts/cover_letter.md
var coverTemplate string

// Options override the instruction line appended to each prompt.
type Options struct {
	ResumeInstructions string
	CoverInstructions  string
}

type Generator struct {
	completer ai.Completer
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

func New(completer ai.Completer, opts Options, logger *zap.Logger) *Generator {
	if strings.TrimSpace(opts.ResumeInstructions) == "" {
		opts.ResumeInstructions = defaultResumeInstructions
	}
	if strings.TrimSpace(opts.CoverInstructions) == "" {
		opts.CoverInstructions = defaultCoverInstructions
	}

	return &Generator{
		completer: completer,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate produces the tailored resume and cover letter for one job, in
// that order. If either completion fails, nothing is returned: a job never
// gets a resume without its cover letter.
func (g *Generator) Generate(ctx context.Context, p *profile.Profile, j *job.Job, score float64) (*job.Application, error) {
	posting := jobText(j)

	resumeText, err := g.complete(ctx, j.ID, ai.Request{
		Purpose: ai.PurposeResume,
		System:  resumeSystemPrompt,
		Prompt:  buildPrompt(resumeTemplate, posting, p.Content, g.opts.ResumeInstructions),
	})
	if err != nil {
		return nil, fmt.Errorf("generate resume: %w", err)
	}

	coverText, err := g.complete(ctx, j.ID, ai.Request{
		Purpose: ai.PurposeCoverLetter,
		System:  coverSystemPrompt,
		Prompt:  buildPrompt(coverTemplate, posting, p.Content, g.opts.CoverInstructions),
	})
	if err != nil {
		return nil, fmt.Errorf("generate cover letter: %w", err)
	}

	return &job.Application{
		JobID:           j.ID,
		ResumeText:      resumeText,
		CoverLetterText: coverText,
		Score:           score,
		GeneratedAt:     g.now().UTC(),
	}, nil
}

func (g *Generator) complete(ctx context.Context, jobID string, req ai.Request) (string, error) {
	g.logger.Debug("generating document",
		zap.String("job_id", jobID),
		zap.String("purpose", string(req.Purpose)),
	)
	return g.completer.Complete(ctx, req)
}

// jobText is what the model sees as the posting: the description, or the
// title when the feed gave none.
func jobText(j *job.Job) string {
	if strings.TrimSpace(j.Description) != "" {
		return j.Description
	}
	return j.Title
}

func buildPrompt(template, posting, profileText, instructions string) string {
	if strings.TrimSpace(template) == "" {
		template = "Job posting:\n{{JOB}}\n\nMaster resume:\n{{PROFILE}}\n\n{{INSTRUCTIONS}}"
	}

	prompt := strings.ReplaceAll(template, "{{JOB}}", posting)
	prompt = strings.ReplaceAll(prompt, "{{PROFILE}}", profileText)
	prompt = strings.ReplaceAll(prompt, "{{INSTRUCTIONS}}", instructions)
	return prompt
}
