package okr

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/appraisal-engine/appraisal"
)

// =============================================================================
// SELECTIONS
// =============================================================================

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Metric string

const (
	MetricPercentage Metric = "percentage"
	MetricCount      Metric = "count"
	MetricRating     Metric = "rating"
	MetricScore      Metric = "score"
)

type DataSource string

const (
	SourceManual DataSource = "manual"
	SourceJira   DataSource = "jira"
	SourceGithub DataSource = "github"
	SourceLMS    DataSource = "lms"
)

// Operator qualifies a target or actual value ("≥ 20 sales").
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpLt  Operator = "lt"
	OpGte Operator = "gte"
	OpLte Operator = "lte"
)

var operatorSymbols = map[Operator]string{
	OpEq:  "=",
	OpNe:  "≠",
	OpGt:  ">",
	OpLt:  "<",
	OpGte: "≥",
	OpLte: "≤",
}

// Symbol returns the display symbol, "" for an unknown operator.
func (o Operator) Symbol() string {
	return operatorSymbols[o]
}

// =============================================================================
// OBJECTIVE TEMPLATE
// =============================================================================

// Measure is a qualified value: operator, number, unit and period.
type Measure struct {
	Operator Operator        `json:"operator,omitempty"`
	Value    decimal.Decimal `json:"value"`
	Unit     string          `json:"unit,omitempty"`
	Period   string          `json:"period,omitempty"`
}

// Display renders the measure, e.g. "≥ 20 sales in Q1".
func (m Measure) Display() string {
	var parts []string
	if sym := m.Operator.Symbol(); sym != "" {
		parts = append(parts, sym)
	}
	parts = append(parts, m.Value.String())
	if m.Unit != "" {
		parts = append(parts, m.Unit)
	}
	if m.Period != "" {
		parts = append(parts, m.Period)
	}
	return strings.Join(parts, " ")
}

// TemplateKeyResult is a key result declared on an objective template.
type TemplateKeyResult struct {
	Code       string          `json:"code,omitempty"`
	Sequence   int             `json:"sequence"`
	Title      string          `json:"title"`
	Metric     Metric          `json:"metric"`
	Target     Measure         `json:"target"`
	Actual     Measure         `json:"actual"`
	Weightage  decimal.Decimal `json:"weightage"`
	DataSource DataSource      `json:"data_source"`
}

// TargetDisplay renders the target measure.
func (kr TemplateKeyResult) TargetDisplay() string {
	return kr.Target.Display()
}

// ActualDisplay renders the actual measure, empty until a value is recorded.
func (kr TemplateKeyResult) ActualDisplay() string {
	if kr.Actual.Value.IsZero() {
		return ""
	}
	return kr.Actual.Display()
}

func (kr TemplateKeyResult) Progress() decimal.Decimal {
	return Progress(kr.Actual.Value, kr.Target.Value)
}

// ObjectiveTemplate is the OKR template that owns a team allocation set.
type ObjectiveTemplate struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Code               string                 `json:"code,omitempty"`
	ObjectiveTitle     string                 `json:"objective_title,omitempty"`
	Priority           Priority               `json:"priority"`
	ObjectiveWeightage decimal.Decimal        `json:"objective_weightage"`
	Start              *time.Time             `json:"start_date,omitempty"`
	End                *time.Time             `json:"end_date,omitempty"`
	DepartmentID       appraisal.DepartmentID `json:"department_id,omitempty"`
	KeyResults         []TemplateKeyResult    `json:"key_results"`
}

// KeyResult finds a declared key result by code, else by title.
func (t ObjectiveTemplate) KeyResult(ref string) (TemplateKeyResult, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return TemplateKeyResult{}, false
	}
	for _, kr := range t.KeyResults {
		if strings.TrimSpace(kr.Code) == ref {
			return kr, true
		}
	}
	for _, kr := range t.KeyResults {
		if strings.TrimSpace(kr.Title) == ref {
			return kr, true
		}
	}
	return TemplateKeyResult{}, false
}

// TotalKeyResultWeightage sums key result weightage.
func (t ObjectiveTemplate) TotalKeyResultWeightage() decimal.Decimal {
	total := decimal.Zero
	for _, kr := range t.KeyResults {
		total = total.Add(kr.Weightage)
	}
	return total
}

func inPercentRange(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(appraisal.Hundred)
}

// Validate checks dates, weightage ranges and selections.
func (t ObjectiveTemplate) Validate() error {
	if t.Start != nil && t.End != nil && t.End.Before(*t.Start) {
		return appraisal.NewConfigurationError("end_date", "end date cannot be before start date")
	}
	if !inPercentRange(t.ObjectiveWeightage) {
		return appraisal.NewConfigurationError("objective_weightage", "objective weightage must be between 0 and 100")
	}
	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return appraisal.NewConfigurationError("priority", "unknown priority %q", t.Priority)
	}

	for _, kr := range t.KeyResults {
		if strings.TrimSpace(kr.Title) == "" {
			return appraisal.NewConfigurationError("key_results", "key result title is required")
		}
		if !inPercentRange(kr.Weightage) {
			return appraisal.NewConfigurationError("key_results", "key result %q: weightage must be between 0 and 100", kr.Title)
		}
		switch kr.Metric {
		case MetricPercentage, MetricCount, MetricRating, MetricScore:
		default:
			return appraisal.NewConfigurationError("key_results", "key result %q: unknown metric %q", kr.Title, kr.Metric)
		}
		switch kr.DataSource {
		case SourceManual, SourceJira, SourceGithub, SourceLMS:
		default:
			return appraisal.NewConfigurationError("key_results", "key result %q: unknown data source %q", kr.Title, kr.DataSource)
		}
		for _, op := range []Operator{kr.Target.Operator, kr.Actual.Operator} {
			if op != "" && op.Symbol() == "" {
				return appraisal.NewConfigurationError("key_results", "key result %q: unknown operator %q", kr.Title, op)
			}
		}
	}
	return nil
}
