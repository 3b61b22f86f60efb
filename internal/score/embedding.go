package score

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/r0cstar09/jobtailor/internal/ai"
	"github.com/r0cstar09/jobtailor/internal/job"
	"github.com/r0cstar09/jobtailor/internal/profile"
)

// EmbeddingScorer rates relevance by cosine similarity between the profile
// embedding and the job embedding. The profile is embedded once and cached,
// so a run costs one embedding call per job plus one for the profile.
type EmbeddingScorer struct {
	embedder ai.Embedder
	logger   *zap.Logger

	cacheMu     sync.RWMutex
	profileHash string
	profileVec  []float64
}

func NewEmbeddingScorer(embedder ai.Embedder, logger *zap.Logger) *EmbeddingScorer {
	return &EmbeddingScorer{embedder: embedder, logger: logger}
}

func (s *EmbeddingScorer) Name() string { return "embedding" }

func (s *EmbeddingScorer) Score(ctx context.Context, p *profile.Profile, j *job.Job) job.ScoreResult {
	res := job.ScoreResult{JobID: j.ID}

	profileVec, err := s.profileVector(ctx, p)
	if err != nil {
		s.logger.Warn("embedding profile failed", zap.String("job_id", j.ID), zap.Error(err))
		res.Err = err.Error()
		return res
	}

	rawVec, err := s.embedder.Embed(ctx, jobText(j))
	if err != nil {
		s.logger.Warn("embedding job failed", zap.String("job_id", j.ID), zap.Error(err))
		res.Err = err.Error()
		return res
	}

	similarity, err := cosine(profileVec, toFloat64(rawVec))
	if err != nil {
		res.Err = err.Error()
		return res
	}

	// Cosine lands in [-1,1]; the gate expects [0,1].
	res.Score = (1 + similarity) / 2
	res.RawModelOutput = fmt.Sprintf("cosine=%.6f", similarity)
	return res
}

func (s *EmbeddingScorer) profileVector(ctx context.Context, p *profile.Profile) ([]float64, error) {
	sum := sha256.Sum256([]byte(p.Content))
	hash := hex.EncodeToString(sum[:])

	s.cacheMu.RLock()
	if s.profileHash == hash && s.profileVec != nil {
		vec := s.profileVec
		s.cacheMu.RUnlock()
		return vec, nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.profileHash == hash && s.profileVec != nil {
		return s.profileVec, nil
	}

	raw, err := s.embedder.Embed(ctx, p.Content)
	if err != nil {
		return nil, err
	}

	s.profileHash = hash
	s.profileVec = toFloat64(raw)

	return s.profileVec, nil
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func cosine(a, b []float64) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, errors.New("zero magnitude vector")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
