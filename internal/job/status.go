package job

import "fmt"

// Per-job pipeline states. A job enters the pipeline as ingested, and every
// run ends with each job in exactly one terminal state, which is what the run
// summary is assembled from.
const (
	StatusIngested    = "ingested"
	StatusNormalized  = "normalized"
	StatusScored      = "scored"
	StatusRejected    = "rejected"
	StatusGatedIn     = "gated_in"
	StatusGenerated   = "generated"
	StatusGenFailed   = "generation_failed"
	StatusWritten     = "written"
	StatusWriteFailed = "write_failed"
	StatusCanceled    = "canceled"
)

var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusIngested: true,
	},
	StatusIngested: {
		StatusNormalized: true,
	},
	StatusNormalized: {
		StatusScored:   true,
		StatusCanceled: true,
	},
	StatusScored: {
		StatusRejected: true,
		StatusGatedIn:  true,
	},
	StatusGatedIn: {
		StatusGenerated: true,
		StatusGenFailed: true,
		StatusCanceled:  true,
	},
	StatusGenerated: {
		StatusWritten:     true,
		StatusWriteFailed: true,
	},
	StatusRejected:    {},
	StatusGenFailed:   {},
	StatusWritten:     {},
	StatusWriteFailed: {},
	StatusCanceled:    {},
}

func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsTerminal reports whether a job in the given status is done for this run.
func IsTerminal(status string) bool {
	next, ok := allowedTransitions[status]
	return ok && len(next) == 0
}

// Transition moves the job to the given status, recording the reason. Illegal
// transitions are an error so pipeline bugs surface instead of silently
// corrupting the summary.
func (j *Job) Transition(to, reason string) error {
	from := j.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid job status transition: %q -> %q (job_id=%s)", from, to, j.ID)
	}
	j.Status = to
	j.StatusReason = reason
	return nil
}
