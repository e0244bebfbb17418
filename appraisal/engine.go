/*
engine.go - Employee score orchestration

PURPOSE:
  Top-level entry point of the scoring pipeline. Given an employee and a
  finished answer map, it picks the templates that apply, scores each
  category, and combines the category percentages with the master's
  weights into a final percentage and rating.

TEMPLATE RESOLUTION (no explicit selection):
  Department: first department template scoped to the employee's department;
              otherwise the first department template; none when the
              employee has no department.
  Role:       same policy keyed on the employee's job.
  Common:     every configured common template.
  A non-empty TemplateSelection replaces this policy entirely.

FINAL ROLL-UP:
  final = round(functional*wf + role*wr + common*wc, 2)   (w = weight/100)

  With a scale:    raw = final/100 * (max-min) + min; label = scale.ToLabel(raw)
  Without a scale: >=90 Outstanding, >=75 Exceeds, >=60 Meets, else Needs Improvement

FAILURE SEMANTICS:
  Compute never fails. Bad per-item input scores as 0; unknown template ids
  in an explicit selection are skipped and reported in the explanation.
  Only the simulation entry point can fail, and only on a malformed payload
  or an unknown employee.

CONCURRENCY:
  An Engine only reads its configuration; one Engine may serve concurrent
  computations.

SEE ALSO:
  - aggregate.go: Category scoring
  - catalog.go: Template flattening
  - master.go: Configuration invariants
*/
package appraisal

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const explanationNote = "Dynamic scoring computed via templates, per-item weights and optional reviewer-framework aggregation."

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes employee scores for one master configuration.
type Engine struct {
	Master    *MasterConfiguration
	Templates TemplateSource
	Logger    *zap.Logger
}

type Option func(*Engine)

// WithTemplateSource resolves explicit selections against src instead of
// the master's own templates.
func WithTemplateSource(src TemplateSource) Option {
	return func(e *Engine) { e.Templates = src }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.Logger = l
		}
	}
}

func NewEngine(master *MasterConfiguration, opts ...Option) *Engine {
	e := &Engine{Master: master, Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.Templates == nil {
		e.Templates = master.Index()
	}
	return e
}

// TemplateSelection overrides template resolution with explicit ids.
// An empty Common falls back to the master's common templates; a zero
// selection does not override anything.
type TemplateSelection struct {
	Department TemplateID   `json:"department,omitempty"`
	Role       TemplateID   `json:"role,omitempty"`
	Common     []TemplateID `json:"common,omitempty"`
}

// IsZero reports whether the selection names no template at all.
func (ts *TemplateSelection) IsZero() bool {
	return ts == nil || (ts.Department == "" && ts.Role == "" && len(ts.Common) == 0)
}

// Selection is the set of templates feeding each category.
type Selection struct {
	Department *Template
	Role       *Template
	Common     []*Template
}

// ResolveTemplates picks the department, role and common templates for emp.
func (e *Engine) ResolveTemplates(emp *Employee) Selection {
	sel := Selection{Common: e.Master.CommonTemplates}
	if emp == nil {
		return sel
	}
	if emp.DepartmentID != "" {
		sel.Department = firstMatch(e.Master.DepartmentTemplates, func(t *Template) bool {
			return t.DepartmentID == emp.DepartmentID
		})
	}
	if emp.JobID != "" {
		sel.Role = firstMatch(e.Master.RoleTemplates, func(t *Template) bool {
			return t.JobID == emp.JobID
		})
	}
	return sel
}

// firstMatch returns the first template satisfying match, else the first template.
func firstMatch(templates []*Template, match func(*Template) bool) *Template {
	for _, t := range templates {
		if t != nil && match(t) {
			return t
		}
	}
	if len(templates) > 0 {
		return templates[0]
	}
	return nil
}

func (e *Engine) selectExplicit(ts *TemplateSelection) (Selection, []string) {
	var (
		sel      Selection
		warnings []string
	)
	lookup := func(id TemplateID) *Template {
		t, ok := e.Templates.Template(id)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("selected template %s not found", id))
			e.Logger.Debug("explicit template selection skipped", zap.String("template_id", string(id)))
			return nil
		}
		return t
	}

	if ts.Department != "" {
		sel.Department = lookup(ts.Department)
	}
	if ts.Role != "" {
		sel.Role = lookup(ts.Role)
	}
	if len(ts.Common) == 0 {
		sel.Common = e.Master.CommonTemplates
	} else {
		for _, id := range ts.Common {
			if t := lookup(id); t != nil {
				sel.Common = append(sel.Common, t)
			}
		}
	}
	return sel, warnings
}

// Compute scores emp against answers. A selection naming at least one
// template replaces template resolution.
func (e *Engine) Compute(emp *Employee, answers Answers, ts *TemplateSelection) *Result {
	var (
		sel      Selection
		warnings []string
	)
	if !ts.IsZero() {
		sel, warnings = e.selectExplicit(ts)
	} else {
		sel = e.ResolveTemplates(emp)
	}

	catalogs := map[Category]*Catalog{
		CategoryFunctional: GatherLines(sel.Department),
		CategoryRole:       GatherLines(sel.Role),
		CategoryCommon:     GatherLines(sel.Common...),
	}
	for _, c := range Categories {
		for _, ow := range catalogs[c].Overwrites() {
			warnings = append(warnings, fmt.Sprintf("%s: %s", c, ow))
			e.Logger.Debug("catalog item overwritten",
				zap.String("category", string(c)),
				zap.String("code", ow.Code),
				zap.String("previous_template_id", string(ow.PreviousTemplate)),
				zap.String("template_id", string(ow.Template)),
			)
		}
	}

	agg := Aggregator{Scale: e.Master.Scale, Framework: e.Master.Framework}
	if answers == nil {
		answers = Answers{}
	}

	res := &Result{
		MasterID:    e.Master.ID,
		Templates:   chosen(sel, e.Master.MasterTemplate),
		Functional:  agg.AggregateCategory(CategoryFunctional, catalogs[CategoryFunctional], answers),
		Role:        agg.AggregateCategory(CategoryRole, catalogs[CategoryRole], answers),
		Common:      agg.AggregateCategory(CategoryCommon, catalogs[CategoryCommon], answers),
		Weights:     e.Master.Weights,
		Explanation: Explanation{Note: explanationNote, Warnings: warnings},
	}
	if emp != nil {
		res.EmployeeID = emp.ID
	}

	w := e.Master.Weights
	res.FinalPercentage = Round2(Sum(
		res.Functional.Percent.Mul(Fraction(w.Functional)),
		res.Role.Percent.Mul(Fraction(w.Role)),
		res.Common.Percent.Mul(Fraction(w.Common)),
	))

	if scale := e.Master.Scale; scale != nil {
		raw := scale.FromPercent(res.FinalPercentage)
		label, _ := scale.ToLabel(raw)
		rounded := raw.Round(4)
		res.FinalRawOnScale = &rounded
		res.RatingLabel = label
		res.ScaleID = scale.ID
	} else {
		res.RatingLabel = FallbackRating(res.FinalPercentage)
	}
	return res
}

func chosen(sel Selection, master *Template) ChosenTemplates {
	ct := ChosenTemplates{Common: []TemplateID{}}
	if sel.Department != nil {
		ct.Department = sel.Department.ID
	}
	if sel.Role != nil {
		ct.Role = sel.Role.ID
	}
	for _, t := range sel.Common {
		if t != nil {
			ct.Common = append(ct.Common, t.ID)
		}
	}
	if master != nil {
		ct.Master = master.ID
	}
	return ct
}

// =============================================================================
// SIMULATION - preview entry point
// =============================================================================

// Simulation is the preview payload: the full result, its two headline
// fields, and an indented JSON snapshot for display.
type Simulation struct {
	Result          *Result         `json:"result"`
	FinalPercentage decimal.Decimal `json:"final_percentage"`
	RatingLabel     string          `json:"rating_label"`
	Snapshot        []byte          `json:"-"`
}

// Simulate parses a raw answer payload and computes a preview. employeeID
// is optional; when set, lookup must resolve it.
func (e *Engine) Simulate(ctx context.Context, employeeID EmployeeID, payload []byte, lookup EmployeeLookup) (*Simulation, error) {
	answers, err := ParseAnswers(payload)
	if err != nil {
		return nil, err
	}
	return e.SimulateAnswers(ctx, employeeID, answers, lookup)
}

// SimulateAnswers is Simulate for an already decoded answer map.
func (e *Engine) SimulateAnswers(ctx context.Context, employeeID EmployeeID, answers Answers, lookup EmployeeLookup) (*Simulation, error) {
	var emp *Employee
	if employeeID != "" {
		if lookup == nil {
			return nil, fmt.Errorf("simulate for %s: %w", employeeID, ErrEmployeeNotFound)
		}
		found, err := lookup.Employee(ctx, employeeID)
		if err != nil {
			return nil, fmt.Errorf("simulate for %s: %w", employeeID, err)
		}
		emp = found
	}

	res := e.Compute(emp, answers, nil)
	snapshot, err := res.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize simulation: %w", err)
	}
	return &Simulation{
		Result:          res,
		FinalPercentage: res.FinalPercentage,
		RatingLabel:     res.RatingLabel,
		Snapshot:        snapshot,
	}, nil
}
