package analyzer

// Estimator approximates token counts as chars/4. The remote model's
// real tokenizer is not available locally; the estimate only feeds
// batch budgeting, where the budget carries enough slack for the
// heuristic to be safe.
type Estimator struct{}

// NewEstimator creates a new Estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// TokenLength returns the estimated token count of text.
func (e *Estimator) TokenLength(text string) int {
	return len(text) / 4
}
