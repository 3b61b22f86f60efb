package score

import "github.com/r0cstar09/jobtailor/internal/job"

// Gate decides which scored jobs proceed to document generation.
type Gate struct {
	Threshold float64
}

// Passes is inclusive at the threshold. A result with Err set never passes,
// whatever its score.
func (g Gate) Passes(res job.ScoreResult) bool {
	if res.Failed() {
		return false
	}
	return res.Score >= g.Threshold
}
