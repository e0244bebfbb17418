/*
scale.go - Scoring scale normalization and rating labels

PURPOSE:
  A ScoringScale interprets raw numeric answers. It maps a raw value on a
  configured [Min, Max] range to a percent (0..100) and, through ordered
  range lines, to a human label such as "Meets" or "Outstanding".

NORMALIZATION:
  percent = (clamp(raw, Min, Max) - Min) / (Max - Min) * 100

  Example on a 1..5 scale:
    raw 1   -> 0%
    raw 3   -> 50%
    raw 5   -> 100%
    raw 7   -> 100% (clamped)

LABELS:
  Lines are scanned in ascending order of their Min. The first line with
  Min <= raw <= Max wins. Lines may overlap or leave gaps; overlaps are not
  rejected, the lowest Min simply wins. No match means no label.

SEE ALSO:
  - aggregate.go: Uses NormalizeToPercent per item
  - engine.go: Maps the final percentage back onto the scale for a label
*/
package appraisal

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCORING SCALE
// =============================================================================

// RangeLine labels an inclusive sub-range of a scale.
type RangeLine struct {
	Min   decimal.Decimal `json:"min_value"`
	Max   decimal.Decimal `json:"max_value"`
	Label string          `json:"label"`
}

// ScoringScale maps raw values to percent and labels.
// It is immutable during a computation.
type ScoringScale struct {
	ID          ScaleID         `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Min         decimal.Decimal `json:"scale_min"`
	Max         decimal.Decimal `json:"scale_max"`
	Lines       []RangeLine     `json:"rating_lines,omitempty"`
}

// Evaluation is the combined result of NormalizeToPercent and ToLabel.
type Evaluation struct {
	Percent decimal.Decimal `json:"percent"`
	Label   string          `json:"label,omitempty"`
	Matched bool            `json:"matched"`
}

// Validate enforces Max > Min for the scale and every line.
func (s *ScoringScale) Validate() error {
	if !s.Max.GreaterThan(s.Min) {
		return NewConfigurationError("scale", "maximum scale must be greater than minimum scale (min %s, max %s)",
			s.Min.String(), s.Max.String())
	}
	for i, ln := range s.Lines {
		if !ln.Max.GreaterThan(ln.Min) {
			return NewConfigurationError("rating_lines",
				"line %d (%q): maximum value must be greater than minimum value", i, ln.Label)
		}
	}
	return nil
}

// NormalizeToPercent clamps raw into [Min, Max] and returns its position as
// a percent. A degenerate scale (Max <= Min) yields 0.
func (s *ScoringScale) NormalizeToPercent(raw decimal.Decimal) decimal.Decimal {
	denom := s.Max.Sub(s.Min)
	if !denom.IsPositive() {
		return decimal.Zero
	}
	v := decimal.Max(s.Min, decimal.Min(raw, s.Max))
	return v.Sub(s.Min).Div(denom).Mul(Hundred)
}

// ToLabel returns the label of the first line (ascending Min) containing raw.
func (s *ScoringScale) ToLabel(raw decimal.Decimal) (string, bool) {
	if len(s.Lines) == 0 {
		return "", false
	}
	for _, ln := range s.sortedLines() {
		if ln.Min.LessThanOrEqual(raw) && raw.LessThanOrEqual(ln.Max) {
			return ln.Label, true
		}
	}
	return "", false
}

// Evaluate returns both the percent and the label for raw.
func (s *ScoringScale) Evaluate(raw decimal.Decimal) Evaluation {
	label, ok := s.ToLabel(raw)
	return Evaluation{
		Percent: s.NormalizeToPercent(raw),
		Label:   label,
		Matched: ok,
	}
}

// FromPercent maps a percentage back onto the raw range of the scale.
func (s *ScoringScale) FromPercent(percent decimal.Decimal) decimal.Decimal {
	return Fraction(percent).Mul(s.Max.Sub(s.Min)).Add(s.Min)
}

// sortedLines returns a copy ordered by Min; equal Mins keep declaration order.
func (s *ScoringScale) sortedLines() []RangeLine {
	lines := make([]RangeLine, len(s.Lines))
	copy(lines, s.Lines)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Min.LessThan(lines[j].Min)
	})
	return lines
}
