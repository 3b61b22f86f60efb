package ai

import (
	"context"
	"errors"
	"fmt"
)

// Purpose names what a completion is for. The provider picks its output
// budget per purpose.
type Purpose string

const (
	PurposeScore       Purpose = "score"
	PurposeResume      Purpose = "resume"
	PurposeCoverLetter Purpose = "cover_letter"
)

// Request is a single one-shot completion. System sets the model's role,
// Prompt carries the content.
type Request struct {
	Purpose Purpose
	System  string
	Prompt  string
}

// Completer issues one completion per call. Implementations retry transient
// provider failures internally; an error returned here is final.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Embedder turns text into a vector for similarity scoring.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Error kinds, set by providers when wrapping a failure in ModelError.
const (
	KindRateLimited = "rate_limited"
	KindTransient   = "transient"
	KindInvalid     = "invalid"
	KindEmpty       = "empty_response"
	KindUnknown     = "unknown"
)

// ModelError is a final provider failure, after any internal retries.
type ModelError struct {
	Purpose Purpose
	Kind    string
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model call (%s): %s: %v", e.Purpose, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func IsRateLimited(err error) bool {
	var me *ModelError
	return errors.As(err, &me) && me.Kind == KindRateLimited
}

// IsTransient reports whether the failure could have succeeded on another
// attempt. Rate limits count: the provider gave up waiting, not the request.
func IsTransient(err error) bool {
	var me *ModelError
	if !errors.As(err, &me) {
		return false
	}
	return me.Kind == KindTransient || me.Kind == KindRateLimited
}
