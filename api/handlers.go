/*
handlers.go - HTTP API handlers for the appraisal engine

PURPOSE:
  Thin JSON layer over the scoring engine, the OKR allocator and the
  SQLite store. Handlers decode, call one domain operation, and encode.

ENDPOINTS:
  Employees:
    GET    /api/employees                   List all employees
    POST   /api/employees                   Create or update employee
    GET    /api/employees/{id}              Get employee details
    GET    /api/employees/{id}/results      Result history, newest first

  Masters:
    GET    /api/masters                     List master configurations
    POST   /api/masters                     Create master from a JSON document
    POST   /api/masters/validate            Validate a master without saving
    GET    /api/masters/{id}                Get master with last simulation
    POST   /api/masters/{id}/simulate       Preview a score (body = answers)
    POST   /api/masters/{id}/compute        Confirm a score into history

  Objective templates:
    GET    /api/objectives                  List OKR objective templates
    POST   /api/objectives                  Create or replace an objective template
    GET    /api/objectives/{id}             Get one with rendered key results

  Allocations:
    GET    /api/allocations/{templateID}                 Get allocation set
    PUT    /api/allocations/{templateID}/budget          Replace budget
    PUT    /api/allocations/{templateID}/teams           Replace team set
    PUT    /api/allocations/{templateID}/teams/{teamID}  Update one team
    POST   /api/allocations/{templateID}/redistribute    Recompute common shares
    POST   /api/allocations/{templateID}/department      Switch department
    POST   /api/allocations/{templateID}/key-results     Distribute to a key result
    DELETE /api/allocations/{templateID}/key-results/{krID}

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario
    POST   /api/scenarios/reset             Clear the database

STATUS CODES (see statusFor):
  400  malformed payload or answers
  404  unknown employee, master, objective template, allocation set, team
       or key result
  422  configuration invariant broken (weights, budgets, shares)
  500  anything else; logged with zap

SEE ALSO:
  - dto.go, scenarios.go, server.go
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/appraisal-engine/allocation"
	"github.com/warp/appraisal-engine/appraisal"
	"github.com/warp/appraisal-engine/factory"
	"github.com/warp/appraisal-engine/okr"
	"github.com/warp/appraisal-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Factory   *factory.ConfigFactory
	Allocator *allocation.Allocator
	Logger    *zap.Logger

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allocs := store.Allocations()
	return &Handler{
		Store:     store,
		Factory:   factory.NewConfigFactory(logger),
		Allocator: allocation.NewAllocator(allocs, allocs, logger).WithObjectives(store),
		Logger:    logger,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	emp := appraisal.Employee{
		ID:           appraisal.EmployeeID(req.ID),
		Name:         req.Name,
		DepartmentID: appraisal.DepartmentID(req.DepartmentID),
		JobID:        appraisal.JobID(req.JobID),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.fail(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.Employee(r.Context(), appraisal.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// ListResults returns an employee's confirmed results, newest first.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListResults(r.Context(), appraisal.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to list results", err)
		return
	}

	dtos := make([]ResultDTO, len(records))
	for i, rec := range records {
		dtos[i] = toResultDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MASTER HANDLERS
// =============================================================================

// ListMasters returns every stored master configuration.
func (h *Handler) ListMasters(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListMasters(r.Context())
	if err != nil {
		h.fail(w, "Failed to list masters", err)
		return
	}

	dtos := make([]MasterDTO, len(records))
	for i, rec := range records {
		dtos[i] = toMasterDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMaster parses a self-contained master document and stores it.
// POST /api/masters
func (h *Handler) CreateMaster(w http.ResponseWriter, r *http.Request) {
	master, ok := h.parseMaster(w, r)
	if !ok {
		return
	}
	if err := h.Store.SaveMaster(r.Context(), master); err != nil {
		h.fail(w, "Failed to save master", err)
		return
	}

	rec, err := h.Store.GetMaster(r.Context(), master.ID)
	if err != nil {
		h.fail(w, "Failed to reload master", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMasterDTO(rec))
}

// ValidateMaster runs the save-time checks without storing anything.
// POST /api/masters/validate
func (h *Handler) ValidateMaster(w http.ResponseWriter, r *http.Request) {
	master, ok := h.parseMaster(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  true,
		"id":     master.ID,
		"total":  num(master.Weights.Total()),
		"period": master.AssessmentPeriod,
	})
}

func (h *Handler) parseMaster(w http.ResponseWriter, r *http.Request) (*appraisal.MasterConfiguration, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return nil, false
	}
	master, err := h.Factory.ParseMaster(body)
	if err != nil {
		h.fail(w, "Invalid master configuration", err)
		return nil, false
	}
	return master, true
}

// GetMaster returns a master with its last simulation.
func (h *Handler) GetMaster(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetMaster(r.Context(), appraisal.MasterID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to get master", err)
		return
	}
	writeJSON(w, http.StatusOK, toMasterDTO(rec))
}

// SimulateMaster previews a score. The body is the answers object; an
// optional employee_id query parameter drives template resolution.
// POST /api/masters/{id}/simulate?employee_id=emp-1
func (h *Handler) SimulateMaster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := appraisal.MasterID(chi.URLParam(r, "id"))

	rec, err := h.Store.GetMaster(ctx, id)
	if err != nil {
		h.fail(w, "Failed to get master", err)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	engine := appraisal.NewEngine(rec.Master, appraisal.WithLogger(h.Logger))
	sim, err := engine.Simulate(ctx, appraisal.EmployeeID(r.URL.Query().Get("employee_id")), payload, h.Store)
	if err != nil {
		h.fail(w, "Simulation failed", err)
		return
	}
	if err := h.Store.SaveSimulation(ctx, id, sim); err != nil {
		h.fail(w, "Failed to record simulation", err)
		return
	}

	writeJSON(w, http.StatusOK, SimulationDTO{
		FinalPercentage: num(sim.FinalPercentage),
		RatingLabel:     sim.RatingLabel,
		Result:          sim.Snapshot,
		SimulatedAt:     time.Now().UTC().Format(time.RFC3339),
	})
}

// ComputeMaster scores an employee and stores the confirmed result.
// POST /api/masters/{id}/compute
func (h *Handler) ComputeMaster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}

	rec, err := h.Store.GetMaster(ctx, appraisal.MasterID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to get master", err)
		return
	}
	emp, err := h.Store.Employee(ctx, appraisal.EmployeeID(req.EmployeeID))
	if err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}

	templates := make([]okr.ObjectiveTemplate, 0, len(req.ObjectiveTemplateIDs))
	for _, id := range req.ObjectiveTemplateIDs {
		t, err := h.Store.ObjectiveTemplate(ctx, id)
		if err != nil {
			h.fail(w, "Failed to get objective template", err)
			return
		}
		templates = append(templates, *t)
	}
	answers := okr.WithProgress(req.Answers, req.Objectives, templates)

	engine := appraisal.NewEngine(rec.Master, appraisal.WithLogger(h.Logger))
	res := engine.Compute(emp, answers, req.Templates)

	result, err := sqlite.NewResultRecord(res, time.Now())
	if err != nil {
		h.fail(w, "Failed to build result", err)
		return
	}
	if err := h.Store.SaveResult(ctx, result); err != nil {
		h.fail(w, "Failed to save result", err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultDTO(result))
}

// =============================================================================
// OBJECTIVE TEMPLATE HANDLERS
// =============================================================================

// ListObjectiveTemplates returns every OKR objective template.
func (h *Handler) ListObjectiveTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Store.ListObjectiveTemplates(r.Context())
	if err != nil {
		h.fail(w, "Failed to list objective templates", err)
		return
	}
	dtos := make([]ObjectiveTemplateDTO, len(templates))
	for i, t := range templates {
		dtos[i] = toObjectiveTemplateDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateObjectiveTemplate validates and stores an objective template.
// POST /api/objectives
func (h *Handler) CreateObjectiveTemplate(w http.ResponseWriter, r *http.Request) {
	var req factory.ObjectiveTemplateJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	t, err := factory.ParseObjectiveTemplate(req)
	if err != nil {
		h.fail(w, "Invalid objective template", err)
		return
	}
	if err := h.Store.SaveObjectiveTemplate(r.Context(), t); err != nil {
		h.fail(w, "Failed to save objective template", err)
		return
	}
	writeJSON(w, http.StatusCreated, toObjectiveTemplateDTO(t))
}

// GetObjectiveTemplate returns one objective template.
func (h *Handler) GetObjectiveTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.ObjectiveTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get objective template", err)
		return
	}
	writeJSON(w, http.StatusOK, toObjectiveTemplateDTO(t))
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

func templateParam(r *http.Request) allocation.TemplateID {
	return allocation.TemplateID(chi.URLParam(r, "templateID"))
}

// GetAllocation returns the allocation set of an objective template.
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	set, err := h.Allocator.Get(r.Context(), templateParam(r))
	if err != nil {
		h.fail(w, "Failed to get allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(set))
}

// SetBudget replaces the department budget.
// PUT /api/allocations/{templateID}/budget
func (h *Handler) SetBudget(w http.ResponseWriter, r *http.Request) {
	var req factory.BudgetJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	set, err := h.Allocator.SetBudget(r.Context(), templateParam(r), factory.ParseBudget(req))
	h.writeAllocation(w, set, err)
}

// SetTeams replaces the team set.
// PUT /api/allocations/{templateID}/teams
func (h *Handler) SetTeams(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Teams []factory.TeamJSON `json:"teams"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	set, err := h.Allocator.SetTeams(r.Context(), templateParam(r), factory.ParseTeams(req.Teams))
	h.writeAllocation(w, set, err)
}

// UpdateTeam changes one team's department and role shares.
// PUT /api/allocations/{templateID}/teams/{teamID}
func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req factory.TeamJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.TeamID = chi.URLParam(r, "teamID")
	team := factory.ParseTeams([]factory.TeamJSON{req})[0]
	set, err := h.Allocator.UpdateTeam(r.Context(), templateParam(r), team)
	h.writeAllocation(w, set, err)
}

// Redistribute recomputes the common shares.
func (h *Handler) Redistribute(w http.ResponseWriter, r *http.Request) {
	set, err := h.Allocator.Redistribute(r.Context(), templateParam(r))
	h.writeAllocation(w, set, err)
}

// SelectDepartment moves the template to another department, parking
// and restoring team allocations per department.
// POST /api/allocations/{templateID}/department
func (h *Handler) SelectDepartment(w http.ResponseWriter, r *http.Request) {
	var req factory.BudgetJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	set, err := h.Allocator.SelectDepartment(r.Context(), templateParam(r), factory.ParseBudget(req))
	h.writeAllocation(w, set, err)
}

// AddKeyResult distributes weightage to a key result.
// POST /api/allocations/{templateID}/key-results
func (h *Handler) AddKeyResult(w http.ResponseWriter, r *http.Request) {
	var req factory.KeyResultJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	set, _, err := h.Allocator.AddKeyResult(r.Context(), templateParam(r), allocation.KeyResultAllocation{
		ID:          allocation.KeyResultID(req.ID),
		TeamID:      allocation.TeamID(req.TeamID),
		ResultType:  allocation.ResultType(req.ResultType),
		Title:       req.Title,
		Distributed: appraisal.Dec(req.Distributed),
	})
	h.writeAllocation(w, set, err)
}

// RemoveKeyResult deletes a key result allocation.
func (h *Handler) RemoveKeyResult(w http.ResponseWriter, r *http.Request) {
	set, err := h.Allocator.RemoveKeyResult(r.Context(), templateParam(r), allocation.KeyResultID(chi.URLParam(r, "krID")))
	h.writeAllocation(w, set, err)
}

func (h *Handler) writeAllocation(w http.ResponseWriter, set *allocation.Set, err error) {
	if err != nil {
		h.fail(w, "Allocation change rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(set))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail writes err with the status its kind maps to. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case appraisal.IsNotFound(err), allocation.IsNotFound(err), errors.Is(err, okr.ErrTemplateNotFound):
		return http.StatusNotFound
	case appraisal.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, appraisal.ErrBudgetExceeded), appraisal.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
