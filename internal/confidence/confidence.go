package confidence

import "github.com/xxxsen/docask/internal/model"

const (
	DefaultThreshold = 0.5

	NotFoundMessage = "Information not found in the knowledge base."
)

// Outcome is one of the two terminal states of a query: the generated
// answer is either returned grounded, or suppressed.
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeNotFound
)

type Evaluator struct {
	threshold float64
}

func NewEvaluator(threshold float64) *Evaluator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Evaluator{threshold: threshold}
}

func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Score derives the scalar confidence: mean similarity of the cited
// passages, falling back to the mean over everything retrieved when no
// citation survived validation. Empty retrieval scores zero.
func (e *Evaluator) Score(cited, retrieved []model.RetrievedPassage) float64 {
	if len(cited) > 0 {
		return meanSimilarity(cited)
	}
	return meanSimilarity(retrieved)
}

// Decide picks the terminal outcome. An answer is returned only when the
// confidence clears the threshold and at least one citation survived; in
// every other case the result collapses to NotFound.
func (e *Evaluator) Decide(score float64, validCitations int) Outcome {
	if validCitations > 0 && score >= e.threshold {
		return OutcomeAnswered
	}
	return OutcomeNotFound
}

func meanSimilarity(passages []model.RetrievedPassage) float64 {
	if len(passages) == 0 {
		return 0
	}
	var sum float64
	for _, p := range passages {
		sum += p.Similarity
	}
	return sum / float64(len(passages))
}
