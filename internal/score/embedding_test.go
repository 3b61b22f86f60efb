package score

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/r0cstar09/jobtailor/internal/job"
	"github.com/r0cstar09/jobtailor/internal/profile"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no vector for %q", text)
}

func TestEmbeddingScorerMapsCosine(t *testing.T) {
	p := &profile.Profile{Content: "profile text"}

	aligned := &job.Job{ID: "aligned", Title: "A"}
	orthogonal := &job.Job{ID: "orthogonal", Title: "B"}
	opposite := &job.Job{ID: "opposite", Title: "C"}

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		p.Content:           {1, 0},
		jobText(aligned):    {2, 0},
		jobText(orthogonal): {0, 3},
		jobText(opposite):   {-1, 0},
	}}

	scorer := NewEmbeddingScorer(embedder, zaptest.NewLogger(t))

	cases := []struct {
		j    *job.Job
		want float64
	}{
		{j: aligned, want: 1},
		{j: orthogonal, want: 0.5},
		{j: opposite, want: 0},
	}

	for _, tc := range cases {
		res := scorer.Score(context.Background(), p, tc.j)
		if res.Failed() {
			t.Fatalf("%s: unexpected failure: %s", tc.j.ID, res.Err)
		}
		if diff := res.Score - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s: expected score %v, got %v", tc.j.ID, tc.want, res.Score)
		}
	}
}

func TestEmbeddingScorerCachesProfile(t *testing.T) {
	p := &profile.Profile{Content: "profile text"}
	j1 := &job.Job{ID: "1", Title: "A"}
	j2 := &job.Job{ID: "2", Title: "B"}

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		p.Content:   {1, 0},
		jobText(j1): {1, 0},
		jobText(j2): {0, 1},
	}}

	scorer := NewEmbeddingScorer(embedder, zaptest.NewLogger(t))
	scorer.Score(context.Background(), p, j1)
	scorer.Score(context.Background(), p, j2)

	profileEmbeds := 0
	for _, call := range embedder.calls {
		if call == p.Content {
			profileEmbeds++
		}
	}
	if profileEmbeds != 1 {
		t.Errorf("expected profile embedded once, got %d", profileEmbeds)
	}
	if len(embedder.calls) != 3 {
		t.Errorf("expected 3 embed calls, got %d", len(embedder.calls))
	}
}

func TestEmbeddingScorerFailsClosed(t *testing.T) {
	p := &profile.Profile{Content: "profile text"}
	j := &job.Job{ID: "1", Title: "A"}

	t.Run("embed error", func(t *testing.T) {
		embedder := &fakeEmbedder{err: errors.New("offline")}
		scorer := NewEmbeddingScorer(embedder, zaptest.NewLogger(t))

		res := scorer.Score(context.Background(), p, j)
		if !res.Failed() || res.Score != 0 {
			t.Fatalf("expected failed zero-score result, got %+v", res)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		embedder := &fakeEmbedder{vectors: map[string][]float32{
			p.Content:  {1, 0},
			jobText(j): {1, 0, 0},
		}}
		scorer := NewEmbeddingScorer(embedder, zaptest.NewLogger(t))

		res := scorer.Score(context.Background(), p, j)
		if !res.Failed() || res.Score != 0 {
			t.Fatalf("expected failed zero-score result, got %+v", res)
		}
	})
}
