/*
Package appraisal provides the weighted-scoring engine for employee appraisals.

PURPOSE:
  Turns a finished set of appraisal answers into a single normalized
  percentage and a qualitative rating. Answers are scored against the
  templates that apply to an employee (department, role, common), each
  category is rolled up into a weighted-average percent, and the three
  categories are combined with the master configuration's weights.

IN THIS FILE:
  - Identifiers: Type-safe IDs for employees, templates, masters, scales
  - Category: functional (department) / role / common weighting bucket
  - TemplateType: department / role / common / master
  - ReviewerType: self / peer / manager / subordinate / customer
  - Decimal helpers: percent math and rounding shared by all files

DESIGN PRINCIPLES:
  1. Pure computation: nothing in this package performs I/O
  2. Precision: all scores and weights are decimal.Decimal
  3. Degrade, don't fail: malformed per-item input scores as 0
  4. Fail fast on configuration: invalid weights/scales are rejected at save time

USAGE:
  engine := appraisal.NewEngine(master)
  result := engine.Compute(&appraisal.Employee{ID: "emp-1", DepartmentID: "sales"},
      appraisal.Answers{"teamwork": appraisal.Numeric(4)}, nil)
  fmt.Println(result.FinalPercentage, result.RatingLabel)

SEE ALSO:
  - scale.go: ScoringScale normalization and labels
  - framework.go: Reviewer-type weighted aggregation
  - catalog.go: Template line flattening
  - aggregate.go: Per-item and per-category percent
  - engine.go: Template resolution and final roll-up
*/
package appraisal

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type DepartmentID string
type JobID string
type TemplateID string
type MasterID string
type ScaleID string
type FrameworkID string

// Employee is the read-only descriptor the engine needs to pick templates.
// Department and job are optional; an empty value means "not assigned".
type Employee struct {
	ID           EmployeeID   `json:"id"`
	Name         string       `json:"name,omitempty"`
	DepartmentID DepartmentID `json:"department_id,omitempty"`
	JobID        JobID        `json:"job_id,omitempty"`
}

// =============================================================================
// CATEGORY - The three top-level weighting buckets of a master configuration
// =============================================================================

type Category string

const (
	CategoryFunctional Category = "functional"
	CategoryRole       Category = "role"
	CategoryCommon     Category = "common"
)

// Categories lists the buckets in roll-up order.
var Categories = []Category{CategoryFunctional, CategoryRole, CategoryCommon}

// =============================================================================
// TEMPLATE TYPE
// =============================================================================

type TemplateType string

const (
	TemplateDepartment TemplateType = "department"
	TemplateRole       TemplateType = "role"
	TemplateCommon     TemplateType = "common"
	TemplateMaster     TemplateType = "master"
)

func (t TemplateType) Valid() bool {
	switch t {
	case TemplateDepartment, TemplateRole, TemplateCommon, TemplateMaster:
		return true
	}
	return false
}

// Category returns the weighting bucket a template type feeds.
// Master templates feed no bucket.
func (t TemplateType) Category() (Category, bool) {
	switch t {
	case TemplateDepartment:
		return CategoryFunctional, true
	case TemplateRole:
		return CategoryRole, true
	case TemplateCommon:
		return CategoryCommon, true
	}
	return "", false
}

// =============================================================================
// REVIEWER TYPE
// =============================================================================

type ReviewerType string

const (
	ReviewerSelf        ReviewerType = "self"
	ReviewerPeer        ReviewerType = "peer"
	ReviewerManager     ReviewerType = "manager"
	ReviewerSubordinate ReviewerType = "subordinate"
	ReviewerCustomer    ReviewerType = "customer"
)

// ReviewerTypes lists every supported reviewer source.
var ReviewerTypes = []ReviewerType{
	ReviewerSelf, ReviewerPeer, ReviewerManager, ReviewerSubordinate, ReviewerCustomer,
}

func (r ReviewerType) Valid() bool {
	for _, t := range ReviewerTypes {
		if t == r {
			return true
		}
	}
	return false
}

// =============================================================================
// ASSESSMENT PERIOD
// =============================================================================

type AssessmentPeriod string

const (
	PeriodMonthly    AssessmentPeriod = "monthly"
	PeriodQuarterly  AssessmentPeriod = "quarterly"
	PeriodSemiAnnual AssessmentPeriod = "semiannual"
	PeriodAnnual     AssessmentPeriod = "annual"
)

func (p AssessmentPeriod) Valid() bool {
	switch p {
	case "", PeriodMonthly, PeriodQuarterly, PeriodSemiAnnual, PeriodAnnual:
		return true
	}
	return false
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	// Hundred is 100 as a decimal, the percent base.
	Hundred = decimal.NewFromInt(100)

	one = decimal.NewFromInt(1)
)

// Dec converts a float to a decimal using its shortest representation.
func Dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Round2 rounds half away from zero to two places, the precision used for
// every stored percentage.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Fraction converts a percentage (0..100) into a multiplier (0..1).
func Fraction(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(Hundred)
}

// Within reports whether |a-b| <= tolerance.
func Within(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// Sum adds a list of decimals.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
