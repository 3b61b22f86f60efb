package notify

import (
	"context"

	"github.com/r0cstar09/jobtailor/internal/job"
)

// Notifier delivers the end-of-run summary. Delivery is best effort: the
// caller logs failures and never fails the run over them.
type Notifier interface {
	Notify(ctx context.Context, summary *job.RunSummary) error
}

// Nop stands in when no notification channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, *job.RunSummary) error { return nil }
