package appraisal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/appraisal-engine/appraisal"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// assertDec compares decimals by value, ignoring exponent differences.
func assertDec(t *testing.T, want float64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), append([]any{"want %v, got %s", want, got.String()}, msgAndArgs...)...)
}

func item(code string, seq int, maxScore, weight float64) appraisal.TemplateItem {
	return appraisal.TemplateItem{
		ID:       code,
		Sequence: seq,
		Code:     code,
		Name:     code,
		MaxScore: d(maxScore),
		Weight:   d(weight),
	}
}

func tmpl(id string, tt appraisal.TemplateType, items ...appraisal.TemplateItem) *appraisal.Template {
	return &appraisal.Template{
		ID:    appraisal.TemplateID(id),
		Name:  id,
		Type:  tt,
		Items: items,
	}
}

// zeroToFive is the 0..5 scale with three labelled bands.
func zeroToFive() *appraisal.ScoringScale {
	return &appraisal.ScoringScale{
		ID:   "scale-5",
		Name: "Five point",
		Min:  d(0),
		Max:  d(5),
		Lines: []appraisal.RangeLine{
			{Min: d(0), Max: d(2), Label: "Needs Improvement"},
			{Min: d(2), Max: d(3.5), Label: "Meets"},
			{Min: d(3.5), Max: d(5), Label: "Outstanding"},
		},
	}
}

// standardMaster has one item per category and 40/35/25 weights.
func standardMaster() *appraisal.MasterConfiguration {
	sales := tmpl("tmpl-sales", appraisal.TemplateDepartment, item("teamwork", 1, 5, 1))
	sales.DepartmentID = "sales"
	eng := tmpl("tmpl-eng", appraisal.TemplateDepartment, item("code-quality", 1, 5, 1))
	eng.DepartmentID = "engineering"

	rep := tmpl("tmpl-rep", appraisal.TemplateRole, item("delivery", 1, 5, 1))
	rep.JobID = "sales-rep"

	return &appraisal.MasterConfiguration{
		ID:                  "master-2025",
		Name:                "Annual 2025",
		AssessmentPeriod:    appraisal.PeriodAnnual,
		Weights:             appraisal.NewCategoryWeights(40, 35, 25),
		Scale:               zeroToFive(),
		DepartmentTemplates: []*appraisal.Template{eng, sales},
		RoleTemplates:       []*appraisal.Template{rep},
		CommonTemplates: []*appraisal.Template{
			tmpl("tmpl-values", appraisal.TemplateCommon, item("values", 1, 5, 1)),
		},
	}
}

func salesRep() *appraisal.Employee {
	return &appraisal.Employee{ID: "emp-1", Name: "Ada", DepartmentID: "sales", JobID: "sales-rep"}
}
