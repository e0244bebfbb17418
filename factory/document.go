/*
Package factory provides JSON/YAML to Go configuration conversion.

PURPOSE:
  Converts configuration documents into validated appraisal objects:
  scoring scales, reviewer frameworks, templates, master configurations,
  employees and OKR allocation budgets. Administrators edit documents;
  the factory resolves references by id and enforces every save-time
  invariant before anything reaches the engine.

DOCUMENT SCHEMA (YAML shown, JSON uses the same keys):
  scales:
    - id: five-point
      name: Five point
      scale_min: 0
      scale_max: 5
      rating_lines:
        - {min_value: 0, max_value: 2, label: Needs Improvement}
        - {min_value: 2, max_value: 3.5, label: Meets}
        - {min_value: 3.5, max_value: 5, label: Outstanding}
  frameworks:
    - id: peer-360
      weight_lines:
        - {reviewer_type: self, weight: 50}
        - {reviewer_type: peer, weight: 50}
  templates:
    - id: sales-dept
      template_type: department
      department_id: sales
      lines:
        - {code: teamwork, name: Teamwork, max_score: 5, weight: 1}
  masters:
    - id: annual-2025
      name: Annual 2025
      weights: {functional: 40, role: 35, common: 25}
      scoring_scale_id: five-point
      department_template_ids: [sales-dept]
  employees:
    - {id: emp-1, name: Ada, department_id: sales, job_id: rep}
  objective_templates:
    - id: okr-q1
      name: Grow revenue
      priority: high
      objective_weightage: 40
      department_id: sales
      key_results:
        - {code: kr-pipeline, title: Pipeline coverage, metric: percentage, weightage: 60,
           target: {operator: gte, value: 100}, actual: {value: 80}}
  allocations:
    - template_id: okr-q1
      budget: {department_id: sales, functional_weightage: 50, role_weightage: 20, common_weightage: 30}
      teams:
        - {team_id: north, sequence: 1, department_weightage: 25, role_weightage: 10}

NUMBERS:
  Documents carry plain floats; the factory converts them to decimals.

SEE ALSO:
  - config.go: Document -> Bundle conversion
  - load.go: File and glob loading
*/
package factory

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// Document is one configuration file. Several documents may be merged
// before conversion.
type Document struct {
	Scales      []ScaleJSON      `json:"scales,omitempty" yaml:"scales,omitempty"`
	Frameworks  []FrameworkJSON  `json:"frameworks,omitempty" yaml:"frameworks,omitempty"`
	Templates   []TemplateJSON   `json:"templates,omitempty" yaml:"templates,omitempty"`
	Masters     []MasterJSON     `json:"masters,omitempty" yaml:"masters,omitempty"`
	Employees   []EmployeeJSON   `json:"employees,omitempty" yaml:"employees,omitempty"`
	Allocations []AllocationJSON `json:"allocations,omitempty" yaml:"allocations,omitempty"`

	ObjectiveTemplates []ObjectiveTemplateJSON `json:"objective_templates,omitempty" yaml:"objective_templates,omitempty"`
}

// Merge appends every section of other to d.
func (d *Document) Merge(other Document) {
	d.Scales = append(d.Scales, other.Scales...)
	d.Frameworks = append(d.Frameworks, other.Frameworks...)
	d.Templates = append(d.Templates, other.Templates...)
	d.Masters = append(d.Masters, other.Masters...)
	d.Employees = append(d.Employees, other.Employees...)
	d.Allocations = append(d.Allocations, other.Allocations...)
	d.ObjectiveTemplates = append(d.ObjectiveTemplates, other.ObjectiveTemplates...)
}

type RangeLineJSON struct {
	Min   float64 `json:"min_value" yaml:"min_value"`
	Max   float64 `json:"max_value" yaml:"max_value"`
	Label string  `json:"label" yaml:"label"`
}

type ScaleJSON struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Min         float64         `json:"scale_min" yaml:"scale_min"`
	Max         float64         `json:"scale_max" yaml:"scale_max"`
	Lines       []RangeLineJSON `json:"rating_lines,omitempty" yaml:"rating_lines,omitempty"`
}

type ReviewerWeightJSON struct {
	Type   string  `json:"reviewer_type" yaml:"reviewer_type"`
	Weight float64 `json:"weight" yaml:"weight"`
}

type FrameworkJSON struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Lines       []ReviewerWeightJSON `json:"weight_lines" yaml:"weight_lines"`
}

type TemplateItemJSON struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Sequence    int      `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Code        string   `json:"code,omitempty" yaml:"code,omitempty"`
	Name        string   `json:"name" yaml:"name"`
	MaxScore    float64  `json:"max_score" yaml:"max_score"`
	Weight      *float64 `json:"weight,omitempty" yaml:"weight,omitempty"` // Default 1
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

type TemplateJSON struct {
	ID           string             `json:"id" yaml:"id"`
	Name         string             `json:"name" yaml:"name"`
	Code         string             `json:"code,omitempty" yaml:"code,omitempty"`
	Sequence     int                `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Type         string             `json:"template_type" yaml:"template_type"`
	DepartmentID string             `json:"department_id,omitempty" yaml:"department_id,omitempty"`
	JobID        string             `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	Description  string             `json:"description,omitempty" yaml:"description,omitempty"`
	Lines        []TemplateItemJSON `json:"lines" yaml:"lines"`
}

type WeightsJSON struct {
	Functional float64 `json:"functional" yaml:"functional"`
	Role       float64 `json:"role" yaml:"role"`
	Common     float64 `json:"common" yaml:"common"`
}

// MasterJSON references scales, frameworks and templates by id.
type MasterJSON struct {
	ID                    string      `json:"id" yaml:"id"`
	Name                  string      `json:"name" yaml:"name"`
	Description           string      `json:"description,omitempty" yaml:"description,omitempty"`
	AssessmentPeriod      string      `json:"assessment_period,omitempty" yaml:"assessment_period,omitempty"`
	Weights               WeightsJSON `json:"weights" yaml:"weights"`
	ScaleID               string      `json:"scoring_scale_id,omitempty" yaml:"scoring_scale_id,omitempty"`
	FrameworkID           string      `json:"assessment_framework_id,omitempty" yaml:"assessment_framework_id,omitempty"`
	MasterTemplateID      string      `json:"master_template_id,omitempty" yaml:"master_template_id,omitempty"`
	DepartmentTemplateIDs []string    `json:"department_template_ids,omitempty" yaml:"department_template_ids,omitempty"`
	RoleTemplateIDs       []string    `json:"role_template_ids,omitempty" yaml:"role_template_ids,omitempty"`
	CommonTemplateIDs     []string    `json:"common_template_ids,omitempty" yaml:"common_template_ids,omitempty"`
}

type EmployeeJSON struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	DepartmentID string `json:"department_id,omitempty" yaml:"department_id,omitempty"`
	JobID        string `json:"job_id,omitempty" yaml:"job_id,omitempty"`
}

type BudgetJSON struct {
	DepartmentID string  `json:"department_id" yaml:"department_id"`
	Functional   float64 `json:"functional_weightage" yaml:"functional_weightage"`
	Role         float64 `json:"role_weightage" yaml:"role_weightage"`
	Common       float64 `json:"common_weightage" yaml:"common_weightage"`
}

type TeamJSON struct {
	TeamID     string  `json:"team_id" yaml:"team_id"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	Sequence   int     `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Department float64 `json:"department_weightage" yaml:"department_weightage"`
	Role       float64 `json:"role_weightage" yaml:"role_weightage"`
}

type KeyResultJSON struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	TeamID      string  `json:"team_id" yaml:"team_id"`
	ResultType  string  `json:"result_type" yaml:"result_type"`
	Title       string  `json:"title,omitempty" yaml:"title,omitempty"`
	Distributed float64 `json:"distributed_weightage" yaml:"distributed_weightage"`
}

// AllocationJSON seeds the allocation set of one OKR objective template.
type AllocationJSON struct {
	TemplateID string          `json:"template_id" yaml:"template_id"`
	Budget     BudgetJSON      `json:"budget" yaml:"budget"`
	Teams      []TeamJSON      `json:"teams,omitempty" yaml:"teams,omitempty"`
	KeyResults []KeyResultJSON `json:"key_results,omitempty" yaml:"key_results,omitempty"`
}

type MeasureJSON struct {
	Operator string  `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    float64 `json:"value" yaml:"value"`
	Unit     string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Period   string  `json:"period,omitempty" yaml:"period,omitempty"`
}

type TemplateKeyResultJSON struct {
	Code       string      `json:"code,omitempty" yaml:"code,omitempty"`
	Sequence   int         `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Title      string      `json:"title" yaml:"title"`
	Metric     string      `json:"metric,omitempty" yaml:"metric,omitempty"`
	Target     MeasureJSON `json:"target" yaml:"target"`
	Actual     MeasureJSON `json:"actual,omitempty" yaml:"actual,omitempty"`
	Weightage  float64     `json:"weightage" yaml:"weightage"`
	DataSource string      `json:"data_source,omitempty" yaml:"data_source,omitempty"`
}

// ObjectiveTemplateJSON is an OKR objective template. Its id is the
// template_id of the allocation set it owns. Dates use YYYY-MM-DD.
// Priority defaults to medium, metric to percentage, data source to manual.
type ObjectiveTemplateJSON struct {
	ID                 string                  `json:"id" yaml:"id"`
	Name               string                  `json:"name" yaml:"name"`
	Code               string                  `json:"code,omitempty" yaml:"code,omitempty"`
	ObjectiveTitle     string                  `json:"objective_title,omitempty" yaml:"objective_title,omitempty"`
	Priority           string                  `json:"priority,omitempty" yaml:"priority,omitempty"`
	ObjectiveWeightage float64                 `json:"objective_weightage" yaml:"objective_weightage"`
	StartDate          string                  `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate            string                  `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	DepartmentID       string                  `json:"department_id,omitempty" yaml:"department_id,omitempty"`
	KeyResults         []TemplateKeyResultJSON `json:"key_results,omitempty" yaml:"key_results,omitempty"`
}
