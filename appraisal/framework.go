package appraisal

import (
	"github.com/shopspring/decimal"
)

// ReviewerWeight is the percentage share of one reviewer type.
type ReviewerWeight struct {
	Type   ReviewerType    `json:"reviewer_type"`
	Weight decimal.Decimal `json:"weight"`
}

// ReviewerFramework aggregates multi-reviewer scores into one raw value
// (e.g. a 360-degree 50/30/20 split). Weights should sum to 100 but this is
// not enforced; see Total.
type ReviewerFramework struct {
	ID          FrameworkID      `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Lines       []ReviewerWeight `json:"weight_lines"`
}

// ComputeAggregate returns Σ score(type) * weight/100 over the configured
// lines. Configured types missing from scores contribute 0; types present
// in scores but not configured never enter the sum.
func (f *ReviewerFramework) ComputeAggregate(scores map[ReviewerType]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, ln := range f.Lines {
		v, ok := scores[ln.Type]
		if !ok {
			continue
		}
		total = total.Add(v.Mul(Fraction(ln.Weight)))
	}
	return total
}

// Total returns the sum of configured weights.
func (f *ReviewerFramework) Total() decimal.Decimal {
	total := decimal.Zero
	for _, ln := range f.Lines {
		total = total.Add(ln.Weight)
	}
	return total
}

// Balanced reports whether the weights sum to exactly 100.
func (f *ReviewerFramework) Balanced() bool {
	return f.Total().Equal(Hundred)
}

// Validate rejects unknown reviewer types and negative weights.
func (f *ReviewerFramework) Validate() error {
	seen := make(map[ReviewerType]bool, len(f.Lines))
	for _, ln := range f.Lines {
		if !ln.Type.Valid() {
			return NewConfigurationError("weight_lines", "unknown reviewer type %q", ln.Type)
		}
		if seen[ln.Type] {
			return NewConfigurationError("weight_lines", "reviewer type %q configured twice", ln.Type)
		}
		seen[ln.Type] = true
		if ln.Weight.IsNegative() {
			return NewConfigurationError("weight_lines", "weight for %q cannot be negative", ln.Type)
		}
	}
	return nil
}
