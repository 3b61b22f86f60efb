package ai

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// Paced wraps a provider so every model call first waits on a shared rate
// limiter. A nil limiter passes calls through unpaced.
type Paced struct {
	completer Completer
	embedder  Embedder
	limiter   *rate.Limiter
}

func NewPaced(completer Completer, embedder Embedder, limiter *rate.Limiter) *Paced {
	return &Paced{
		completer: completer,
		embedder:  embedder,
		limiter:   limiter,
	}
}

func (p *Paced) Complete(ctx context.Context, req Request) (string, error) {
	if p.completer == nil {
		return "", errors.New("no completer configured")
	}
	if err := p.wait(ctx); err != nil {
		return "", err
	}
	return p.completer.Complete(ctx, req)
}

func (p *Paced) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.embedder.Embed(ctx, text)
}

func (p *Paced) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
