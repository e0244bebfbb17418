package appraisal

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COMPUTATION RESULT - produced fresh per computation, never mutated
// =============================================================================

// ItemDetail is the per-item audit trail of a category.
type ItemDetail struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Percent    decimal.Decimal `json:"percent"`
	Raw        decimal.Decimal `json:"raw"`
	Max        decimal.Decimal `json:"max"`
	Weight     decimal.Decimal `json:"weight"`
	TemplateID TemplateID      `json:"template_id"`
	AnswerKind string          `json:"answer_kind"`
}

// CategoryResult is the weighted-average percent of one category.
type CategoryResult struct {
	Category    Category        `json:"category"`
	Percent     decimal.Decimal `json:"percent"`
	TotalWeight decimal.Decimal `json:"total_weight"`
	Items       []ItemDetail    `json:"items"`
}

// ChosenTemplates records which templates fed each category.
type ChosenTemplates struct {
	Department TemplateID   `json:"department,omitempty"`
	Role       TemplateID   `json:"role,omitempty"`
	Common     []TemplateID `json:"common"`
	Master     TemplateID   `json:"master,omitempty"`
}

// Explanation carries human-readable context for auditors.
type Explanation struct {
	Note     string   `json:"note"`
	Warnings []string `json:"warnings,omitempty"`
}

// Result is the full output of one employee computation.
type Result struct {
	EmployeeID      EmployeeID       `json:"employee_id,omitempty"`
	MasterID        MasterID         `json:"master_id,omitempty"`
	Templates       ChosenTemplates  `json:"templates"`
	Functional      CategoryResult   `json:"functional"`
	Role            CategoryResult   `json:"role"`
	Common          CategoryResult   `json:"common"`
	Weights         CategoryWeights  `json:"weights"`
	FinalPercentage decimal.Decimal  `json:"final_percentage"`
	FinalRawOnScale *decimal.Decimal `json:"final_raw_on_scale"`
	RatingLabel     string           `json:"rating_label"`
	ScaleID         ScaleID          `json:"scoring_id,omitempty"`
	Explanation     Explanation      `json:"explanation"`
}

// Category returns the result of one bucket.
func (r *Result) Category(c Category) CategoryResult {
	switch c {
	case CategoryFunctional:
		return r.Functional
	case CategoryRole:
		return r.Role
	}
	return r.Common
}

// JSON serializes the result for storage or display.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// =============================================================================
// FALLBACK RATING
// =============================================================================

// Fallback rating labels, used when no scoring scale is configured.
const (
	RatingOutstanding      = "Outstanding"
	RatingExceeds          = "Exceeds"
	RatingMeets            = "Meets"
	RatingNeedsImprovement = "Needs Improvement"
)

var (
	thresholdOutstanding = decimal.NewFromInt(90)
	thresholdExceeds     = decimal.NewFromInt(75)
	thresholdMeets       = decimal.NewFromInt(60)
)

// FallbackRating maps a final percentage onto fixed thresholds.
func FallbackRating(percent decimal.Decimal) string {
	switch {
	case percent.GreaterThanOrEqual(thresholdOutstanding):
		return RatingOutstanding
	case percent.GreaterThanOrEqual(thresholdExceeds):
		return RatingExceeds
	case percent.GreaterThanOrEqual(thresholdMeets):
		return RatingMeets
	}
	return RatingNeedsImprovement
}
