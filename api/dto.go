/*
dto.go - Wire shapes of the HTTP API

PURPOSE:
  Keeps the JSON contract separate from the domain types. Requests carry
  plain JSON numbers; responses render decimals as numbers rounded the way
  the engine rounds them.

  *DTO types go out, *Request types come in.

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest

  Master:
    MasterDTO, SimulationDTO

  Scoring:
    ComputeRequest, ResultDTO

  Allocation:
    AllocationDTO, TeamDTO, KeyResultDTO (requests reuse factory.*JSON)

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

DTOs carry no validation; the domain packages own it.

SEE ALSO:
  - handlers.go
  - factory/document.go: Shared request shapes
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/appraisal-engine/allocation"
	"github.com/warp/appraisal-engine/appraisal"
	"github.com/warp/appraisal-engine/okr"
	"github.com/warp/appraisal-engine/store/sqlite"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id,omitempty"`
	JobID        string `json:"job_id,omitempty"`
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
	JobID        string `json:"job_id"`
}

func toEmployeeDTO(e appraisal.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           string(e.ID),
		Name:         e.Name,
		DepartmentID: string(e.DepartmentID),
		JobID:        string(e.JobID),
	}
}

// =============================================================================
// MASTERS & SCORING
// =============================================================================

// MasterDTO represents a stored master configuration.
type MasterDTO struct {
	ID             string                         `json:"id"`
	Name           string                         `json:"name"`
	Version        int                            `json:"version"`
	Config         *appraisal.MasterConfiguration `json:"config"`
	LastSimulation *SimulationDTO                 `json:"last_simulation,omitempty"`
	UpdatedAt      string                         `json:"updated_at,omitempty"`
}

// SimulationDTO is a preview: headline numbers plus the full result.
type SimulationDTO struct {
	FinalPercentage float64         `json:"final_percentage"`
	RatingLabel     string          `json:"rating_label"`
	Result          json.RawMessage `json:"result,omitempty"`
	SimulatedAt     string          `json:"simulated_at,omitempty"`
}

// ComputeRequest asks for a confirmed result. Templates overrides the
// automatic template resolution. Key result progress from Objectives and
// from the stored objective templates fills answers the request leaves out.
type ComputeRequest struct {
	EmployeeID           string                       `json:"employee_id"`
	Answers              appraisal.Answers            `json:"answers"`
	Templates            *appraisal.TemplateSelection `json:"templates,omitempty"`
	Objectives           []okr.Objective              `json:"objectives,omitempty"`
	ObjectiveTemplateIDs []string                     `json:"objective_template_ids,omitempty"`
}

// ResultDTO is a stored result.
type ResultDTO struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	EmployeeID      string          `json:"employee_id"`
	MasterID        string          `json:"master_id"`
	FunctionalScore float64         `json:"functional_score"`
	RoleScore       float64         `json:"role_score"`
	CommonScore     float64         `json:"common_score"`
	FinalPercentage float64         `json:"final_percentage"`
	RatingLabel     string          `json:"rating_label"`
	State           string          `json:"state"`
	ComputedAt      string          `json:"computed_at"`
	Result          json.RawMessage `json:"result,omitempty"`
}

func toMasterDTO(rec *sqlite.MasterRecord) MasterDTO {
	dto := MasterDTO{
		ID:        string(rec.Master.ID),
		Name:      rec.Master.Name,
		Version:   rec.Version,
		Config:    rec.Master,
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
	if sim := rec.LastSimulation; sim != nil {
		dto.LastSimulation = &SimulationDTO{
			FinalPercentage: num(sim.FinalPercentage),
			RatingLabel:     sim.RatingLabel,
			Result:          sim.Snapshot,
			SimulatedAt:     sim.SimulatedAt.Format(time.RFC3339),
		}
	}
	return dto
}

func toResultDTO(rec *sqlite.ResultRecord) ResultDTO {
	return ResultDTO{
		ID:              rec.ID,
		Reference:       rec.Reference,
		EmployeeID:      string(rec.EmployeeID),
		MasterID:        string(rec.MasterID),
		FunctionalScore: num(rec.Functional),
		RoleScore:       num(rec.Role),
		CommonScore:     num(rec.Common),
		FinalPercentage: num(rec.FinalPercentage),
		RatingLabel:     rec.RatingLabel,
		State:           rec.State,
		ComputedAt:      rec.ComputedAt.Format(time.RFC3339),
		Result:          rec.Result,
	}
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// AllocationDTO represents the allocation set of one objective template.
type AllocationDTO struct {
	TemplateID   string         `json:"template_id"`
	DepartmentID string         `json:"department_id,omitempty"`
	Budget       BudgetDTO      `json:"budget"`
	Teams        []TeamDTO      `json:"teams"`
	KeyResults   []KeyResultDTO `json:"key_results"`
	Version      int            `json:"version"`
}

type BudgetDTO struct {
	DepartmentID string  `json:"department_id"`
	Functional   float64 `json:"functional_weightage"`
	Role         float64 `json:"role_weightage"`
	Common       float64 `json:"common_weightage"`
}

type TeamDTO struct {
	TeamID     string  `json:"team_id"`
	Name       string  `json:"name,omitempty"`
	Sequence   int     `json:"sequence"`
	Department float64 `json:"department_weightage"`
	Role       float64 `json:"role_weightage"`
	Common     float64 `json:"common_weightage"`
}

type KeyResultDTO struct {
	ID          string  `json:"id"`
	TeamID      string  `json:"team_id"`
	ResultType  string  `json:"result_type"`
	Title       string  `json:"title,omitempty"`
	Distributed float64 `json:"distributed_weightage"`
}

func toAllocationDTO(set *allocation.Set) AllocationDTO {
	dto := AllocationDTO{
		TemplateID:   string(set.TemplateID),
		DepartmentID: string(set.DepartmentID),
		Budget: BudgetDTO{
			DepartmentID: string(set.Budget.DepartmentID),
			Functional:   num(set.Budget.Functional),
			Role:         num(set.Budget.Role),
			Common:       num(set.Budget.Common),
		},
		Teams:      make([]TeamDTO, 0, len(set.Teams)),
		KeyResults: make([]KeyResultDTO, 0, len(set.KeyResults)),
		Version:    set.Version,
	}
	for _, t := range set.Teams {
		dto.Teams = append(dto.Teams, TeamDTO{
			TeamID:     string(t.TeamID),
			Name:       t.Name,
			Sequence:   t.Sequence,
			Department: num(t.Department),
			Role:       num(t.Role),
			Common:     num(t.Common),
		})
	}
	for _, kr := range set.KeyResults {
		dto.KeyResults = append(dto.KeyResults, KeyResultDTO{
			ID:          string(kr.ID),
			TeamID:      string(kr.TeamID),
			ResultType:  string(kr.ResultType),
			Title:       kr.Title,
			Distributed: num(kr.Distributed),
		})
	}
	return dto
}

// =============================================================================
// OBJECTIVE TEMPLATES
// =============================================================================

// ObjectiveTemplateDTO is an objective template with rendered key results.
type ObjectiveTemplateDTO struct {
	ID                      string                 `json:"id"`
	Name                    string                 `json:"name"`
	DepartmentID            string                 `json:"department_id,omitempty"`
	Priority                string                 `json:"priority"`
	ObjectiveWeightage      float64                `json:"objective_weightage"`
	TotalKeyResultWeightage float64                `json:"total_key_result_weightage"`
	KeyResults              []TemplateKeyResultDTO `json:"key_results"`
	Config                  *okr.ObjectiveTemplate `json:"config"`
}

type TemplateKeyResultDTO struct {
	Code      string  `json:"code,omitempty"`
	Title     string  `json:"title"`
	Target    string  `json:"target"`
	Actual    string  `json:"actual,omitempty"`
	Weightage float64 `json:"weightage"`
	Progress  float64 `json:"progress"`
}

func toObjectiveTemplateDTO(t *okr.ObjectiveTemplate) ObjectiveTemplateDTO {
	dto := ObjectiveTemplateDTO{
		ID:                      t.ID,
		Name:                    t.Name,
		DepartmentID:            string(t.DepartmentID),
		Priority:                string(t.Priority),
		ObjectiveWeightage:      num(t.ObjectiveWeightage),
		TotalKeyResultWeightage: num(t.TotalKeyResultWeightage()),
		KeyResults:              make([]TemplateKeyResultDTO, 0, len(t.KeyResults)),
		Config:                  t,
	}
	for _, kr := range t.KeyResults {
		dto.KeyResults = append(dto.KeyResults, TemplateKeyResultDTO{
			Code:      kr.Code,
			Title:     kr.Title,
			Target:    kr.TargetDisplay(),
			Actual:    kr.ActualDisplay(),
			Weightage: num(kr.Weightage),
			Progress:  num(kr.Progress()),
		})
	}
	return dto
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func num(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}
