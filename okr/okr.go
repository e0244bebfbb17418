/*
Package okr tracks objectives, key results and KPIs, and feeds their
progress into appraisal scoring.

PROGRESS:
  progress = min(100, current / target * 100), 0 when target is 0
  objective progress = mean of its key results' progress, 0 with none

  Progress is not clamped below: a negative current value yields negative
  progress, which the appraisal scale later clamps.

STATUS (KPIs):
  progress >= 100 -> done
  progress >= 70  -> on track
  otherwise       -> behind

SEE ALSO:
  - template.go: OKR objective templates used for weightage allocation
  - bridge.go: Key result progress as appraisal answers
*/
package okr

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/appraisal-engine/appraisal"
)

// ErrTemplateNotFound is returned when an objective template id is unknown.
var ErrTemplateNotFound = errors.New("objective template not found")

// Progress returns current as a percentage of target, capped at 100.
func Progress(current, target decimal.Decimal) decimal.Decimal {
	if target.IsZero() {
		return decimal.Zero
	}
	return appraisal.Round2(decimal.Min(appraisal.Hundred, current.Div(target).Mul(appraisal.Hundred)))
}

// =============================================================================
// OBJECTIVES AND KEY RESULTS
// =============================================================================

type Level string

const (
	LevelCompany    Level = "company"
	LevelDepartment Level = "department"
	LevelTeam       Level = "team"
	LevelIndividual Level = "individual"
)

// KeyResult is a measurable outcome of an objective.
type KeyResult struct {
	Code    string          `json:"code,omitempty"`
	Name    string          `json:"name"`
	Target  decimal.Decimal `json:"target_value"`
	Current decimal.Decimal `json:"current_value"`
	Unit    string          `json:"unit,omitempty"`
}

func (kr KeyResult) Progress() decimal.Decimal {
	return Progress(kr.Current, kr.Target)
}

// Objective groups key results for one owner over a period.
type Objective struct {
	Code         string                 `json:"code,omitempty"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description,omitempty"`
	Level        Level                  `json:"level,omitempty"`
	DepartmentID appraisal.DepartmentID `json:"department_id,omitempty"`
	EmployeeID   appraisal.EmployeeID   `json:"employee_id,omitempty"`
	Start        *time.Time             `json:"start_date,omitempty"`
	End          *time.Time             `json:"end_date,omitempty"`
	KeyResults   []KeyResult            `json:"key_results"`
}

// Progress is the mean progress of the key results.
func (o Objective) Progress() decimal.Decimal {
	if len(o.KeyResults) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, kr := range o.KeyResults {
		total = total.Add(kr.Progress())
	}
	return appraisal.Round2(total.Div(decimal.NewFromInt(int64(len(o.KeyResults)))))
}

// =============================================================================
// KPI TRACKER
// =============================================================================

type Status string

const (
	StatusDone    Status = "done"
	StatusOnTrack Status = "ontrack"
	StatusBehind  Status = "behind"
)

var onTrackThreshold = decimal.NewFromInt(70)

// KPIPeriod is the tracking cadence of a KPI. An empty period means monthly.
type KPIPeriod string

const (
	KPIMonthly   KPIPeriod = "monthly"
	KPIQuarterly KPIPeriod = "quarterly"
	KPIYearly    KPIPeriod = "yearly"
)

type KPI struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	Period       KPIPeriod              `json:"period,omitempty"`
	PeriodStart  *time.Time             `json:"period_start,omitempty"`
	PeriodEnd    *time.Time             `json:"period_end,omitempty"`
	DepartmentID appraisal.DepartmentID `json:"department_id,omitempty"`
	Team         string                 `json:"team,omitempty"`
	EmployeeID   appraisal.EmployeeID   `json:"employee_id,omitempty"`
	Target       decimal.Decimal        `json:"target"`
	Actual       decimal.Decimal        `json:"actual"`
	Unit         string                 `json:"unit,omitempty"`
}

// Validate checks the period and its bounds.
func (k KPI) Validate() error {
	switch k.Period {
	case "", KPIMonthly, KPIQuarterly, KPIYearly:
	default:
		return appraisal.NewConfigurationError("period", "unknown KPI period %q", k.Period)
	}
	if k.PeriodStart != nil && k.PeriodEnd != nil && k.PeriodEnd.Before(*k.PeriodStart) {
		return appraisal.NewConfigurationError("period_end", "period end cannot be before period start")
	}
	return nil
}

func (k KPI) Progress() decimal.Decimal {
	return Progress(k.Actual, k.Target)
}

func (k KPI) Status() Status {
	p := k.Progress()
	switch {
	case p.GreaterThanOrEqual(appraisal.Hundred):
		return StatusDone
	case p.GreaterThanOrEqual(onTrackThreshold):
		return StatusOnTrack
	}
	return StatusBehind
}
