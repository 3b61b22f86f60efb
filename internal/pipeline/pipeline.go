package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/r0cstar09/jobtailor/internal/artifact"
	"github.com/r0cstar09/jobtailor/internal/generate"
	"github.com/r0cstar09/jobtailor/internal/job"
	"github.com/r0cstar09/jobtailor/internal/profile"
	"github.com/r0cstar09/jobtailor/internal/score"
)

// Pipeline drives each job through scoring, gating, generation and
// persistence. Failures stay with their job: one bad posting never stops
// the rest of the run.
type Pipeline struct {
	Scorer    score.Scorer
	Gate      score.Gate
	Generator *generate.Generator
	Writer    *artifact.Writer
	Logger    *zap.Logger
	// Concurrency bounds the number of jobs in flight. Zero or negative
	// means sequential.
	Concurrency int
}

type runState struct {
	mu      sync.Mutex
	summary *job.RunSummary
}

func (s *runState) update(f func(*job.RunSummary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.summary)
}

// Run processes all jobs and fills the summary's terminal counters. It
// returns when every job has reached a terminal state. Cancellation is
// checked before scoring and before generation; work past those points is
// finished, not abandoned.
func (p *Pipeline) Run(ctx context.Context, prof *profile.Profile, jobs *job.Jobs, summary *job.RunSummary) {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	state := &runState{summary: summary}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, item := range jobs.Items {
		j := item
		g.Go(func() error {
			p.runJob(ctx, prof, j, state)
			return nil
		})
	}

	_ = g.Wait()

	summary.Finish()
}

func (p *Pipeline) runJob(ctx context.Context, prof *profile.Profile, j *job.Job, state *runState) {
	logger := p.Logger.With(zap.String("job_id", j.ID))

	// Checkpoint before the first model call.
	if ctx.Err() != nil {
		p.transition(j, job.StatusCanceled, "run canceled before scoring")
		state.update(func(s *job.RunSummary) { s.Canceled++ })
		return
	}

	res := p.Scorer.Score(ctx, prof, j)

	if res.Failed() {
		p.transition(j, job.StatusScored, "scoring failed")
		p.transition(j, job.StatusRejected, "scoring failed: "+res.Err)
		state.update(func(s *job.RunSummary) {
			s.ScoreFailed++
			s.Rejected++
		})
		logger.Warn("job rejected after scoring failure", zap.String("error", res.Err))
		return
	}

	p.transition(j, job.StatusScored, fmt.Sprintf("score %.3f", res.Score))
	state.update(func(s *job.RunSummary) { s.ScoredOK++ })
	logger.Info("job scored",
		zap.Float64("score", res.Score),
		zap.Float64("threshold", p.Gate.Threshold),
	)

	if !p.Gate.Passes(res) {
		p.transition(j, job.StatusRejected, fmt.Sprintf("score %.3f below threshold %.3f", res.Score, p.Gate.Threshold))
		state.update(func(s *job.RunSummary) { s.Rejected++ })
		return
	}

	p.transition(j, job.StatusGatedIn, fmt.Sprintf("score %.3f", res.Score))
	state.update(func(s *job.RunSummary) { s.GatedIn++ })

	// Checkpoint before paying for two more model calls.
	if ctx.Err() != nil {
		p.transition(j, job.StatusCanceled, "run canceled before generation")
		state.update(func(s *job.RunSummary) { s.Canceled++ })
		return
	}

	app, err := p.Generator.Generate(ctx, prof, j, res.Score)
	if err != nil {
		p.transition(j, job.StatusGenFailed, err.Error())
		state.update(func(s *job.RunSummary) { s.GenerationFailed++ })
		logger.Warn("document generation failed", zap.Error(err))
		return
	}

	p.transition(j, job.StatusGenerated, "")
	state.update(func(s *job.RunSummary) { s.Generated++ })

	// The documents exist now; write them even if the run is being
	// canceled.
	if err := p.Writer.Write(app, j); err != nil {
		p.transition(j, job.StatusWriteFailed, err.Error())
		state.update(func(s *job.RunSummary) { s.WriteFailed++ })
		logger.Error("artifact write failed", zap.Error(err))
		return
	}

	p.transition(j, job.StatusWritten, "")
	state.update(func(s *job.RunSummary) { s.Written++ })
	logger.Info("application written",
		zap.String("dir", p.Writer.Dir(j.ID)),
		zap.Float64("score", res.Score),
	)
}

func (p *Pipeline) transition(j *job.Job, to, reason string) {
	if err := j.Transition(to, reason); err != nil {
		p.Logger.Error("job status transition rejected", zap.Error(err))
	}
}
