package cuts

import (
	"fmt"
	"math"
)

// MinDuration is the shortest span kept. Shorter spans are parsing noise.
const MinDuration = 0.1

// durationTolerance absorbs float error so that 5.1-5 counts as 0.1.
const durationTolerance = 1e-9

// Validate applies the cut invariants in order. Out-of-range confidence is
// clamped and unknown categories are coerced; everything else rejects.
func Validate(c Candidate) (Candidate, error) {
	if math.IsNaN(c.SourceStart) || math.IsInf(c.SourceStart, 0) ||
		math.IsNaN(c.SourceEnd) || math.IsInf(c.SourceEnd, 0) {
		return Candidate{}, fmt.Errorf("%w: non-finite bounds", ErrInvalidCut)
	}
	if c.SourceStart < 0 {
		return Candidate{}, fmt.Errorf("%w: negative start %.3f", ErrInvalidCut, c.SourceStart)
	}
	if c.SourceEnd < 0 {
		return Candidate{}, fmt.Errorf("%w: negative end %.3f", ErrInvalidCut, c.SourceEnd)
	}
	if c.SourceStart >= c.SourceEnd {
		return Candidate{}, fmt.Errorf("%w: start %.3f not before end %.3f", ErrInvalidCut, c.SourceStart, c.SourceEnd)
	}

	c.Confidence = clampConfidence(c.Confidence)
	c.Type = NormalizeCategory(string(c.Type))

	if c.Duration() < MinDuration-durationTolerance {
		return Candidate{}, fmt.Errorf("%w: span %.3fs below %.1fs floor", ErrInvalidCut, c.Duration(), MinDuration)
	}
	return c, nil
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// ValidateBatch keeps the candidates that pass Validate and counts the rest.
func ValidateBatch(cs []Candidate) ([]Candidate, int) {
	valid := make([]Candidate, 0, len(cs))
	rejected := 0
	for _, c := range cs {
		v, err := Validate(c)
		if err != nil {
			rejected++
			continue
		}
		valid = append(valid, v)
	}
	return valid, rejected
}
