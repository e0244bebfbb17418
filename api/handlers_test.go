/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Master creation, validation and error status mapping
- Simulate (last simulation snapshot) and compute (result history)
- Allocation endpoints (budget enforcement, key results, department switch)
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, scenario string) http.Handler {
	t.Helper()
	h := setupTestHandler(t)
	if scenario != "" {
		require.NoError(t, h.loadScenario(context.Background(), scenario))
	}
	return NewRouter(h, nil)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t, "")
	rec := do(t, srv, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CreateAndGet(t *testing.T) {
	srv := setupTestServer(t, "")

	rec := do(t, srv, http.MethodPost, "/api/employees", `{"id": "emp-1", "name": "Ada", "department_id": "sales", "job_id": "sales-rep"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/employees/emp-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	emp := decode[EmployeeDTO](t, rec)
	assert.Equal(t, "sales", emp.DepartmentID)

	rec = do(t, srv, http.MethodGet, "/api/employees/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/employees", `{"id": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// MASTERS
// =============================================================================

const masterDoc = `{
	"templates": [{"id": "values", "name": "Values", "template_type": "common",
		"lines": [{"code": "values", "name": "Values", "max_score": 5}]}],
	"masters": [{"id": "m-values", "name": "Values only",
		"weights": {"functional": 0, "role": 0, "common": 100},
		"common_template_ids": ["values"]}]
}`

func TestMasters_CreateValidateAndErrors(t *testing.T) {
	srv := setupTestServer(t, "")

	// GIVEN: A valid master document
	rec := do(t, srv, http.MethodPost, "/api/masters/validate", masterDoc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: Creating it twice
	rec = do(t, srv, http.MethodPost, "/api/masters", masterDoc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPost, "/api/masters", masterDoc)
	require.Equal(t, http.StatusCreated, rec.Code)

	// THEN: The version reflects both saves
	master := decode[MasterDTO](t, rec)
	assert.Equal(t, 2, master.Version)

	// AND: Weights not summing to 100 are unprocessable
	bad := `{"masters": [{"id": "m", "name": "M", "weights": {"functional": 40, "role": 35, "common": 20}}]}`
	rec = do(t, srv, http.MethodPost, "/api/masters", bad)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "95")

	// AND: Malformed JSON is a bad request
	rec = do(t, srv, http.MethodPost, "/api/masters", `{"masters": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// AND: Unknown masters are not found
	rec = do(t, srv, http.MethodGet, "/api/masters/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMasters_SimulateRecordsLastSimulation(t *testing.T) {
	srv := setupTestServer(t, "annual-review")

	// WHEN: Simulating for Ada
	rec := do(t, srv, http.MethodPost, "/api/masters/annual-2025/simulate?employee_id=emp-ada",
		`{"teamwork": 4, "delivery": 3, "values": 5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The preview carries the headline numbers
	sim := decode[SimulationDTO](t, rec)
	assert.Equal(t, 78.0, sim.FinalPercentage)
	assert.Equal(t, "Outstanding", sim.RatingLabel)

	// AND: The master remembers it
	rec = do(t, srv, http.MethodGet, "/api/masters/annual-2025", "")
	master := decode[MasterDTO](t, rec)
	require.NotNil(t, master.LastSimulation)
	assert.Equal(t, 78.0, master.LastSimulation.FinalPercentage)
}

func TestMasters_SimulateRejectsBadInput(t *testing.T) {
	srv := setupTestServer(t, "annual-review")

	rec := do(t, srv, http.MethodPost, "/api/masters/annual-2025/simulate", `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/masters/annual-2025/simulate?employee_id=ghost", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMasters_ComputeStoresHistory(t *testing.T) {
	srv := setupTestServer(t, "annual-review")

	// GIVEN: Grace (engineering developer) with answers for her templates
	body := `{"employee_id": "emp-grace", "answers": {
		"code-quality": 5, "reliability": 3, "delivery": 4, "mentoring": 4, "values": 5}}`

	// WHEN: Computing
	rec := do(t, srv, http.MethodPost, "/api/masters/annual-2025/compute", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: 80 functional, 80 role, 100 common -> 85
	result := decode[ResultDTO](t, rec)
	assert.Equal(t, 85.0, result.FinalPercentage)
	assert.Equal(t, 80.0, result.FunctionalScore)
	assert.Equal(t, "confirmed", result.State)
	assert.Contains(t, result.Reference, "AR-emp-grace-")

	// AND: It appears in her history
	rec = do(t, srv, http.MethodGet, "/api/employees/emp-grace/results", "")
	history := decode[[]ResultDTO](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, result.ID, history[0].ID)
}

func TestMasters_ComputeWithExplicitTemplates(t *testing.T) {
	srv := setupTestServer(t, "annual-review")

	// Alan has no matching templates; the request picks them explicitly.
	body := `{"employee_id": "emp-alan",
		"answers": {"teamwork": 5, "delivery": 5, "values": 5},
		"templates": {"department": "sales-dept", "role": "rep-role"}}`
	rec := do(t, srv, http.MethodPost, "/api/masters/annual-2025/compute", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 100.0, decode[ResultDTO](t, rec).FinalPercentage)

	rec = do(t, srv, http.MethodPost, "/api/masters/annual-2025/compute", `{"answers": {}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/masters/annual-2025/compute", `{"employee_id": "ghost", "answers": {}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMasters_ComputeWithEmptyTemplatesResolves(t *testing.T) {
	srv := setupTestServer(t, "annual-review")

	// GIVEN: Ada's answers and a template selection that names nothing
	body := `{"employee_id": "emp-ada",
		"answers": {"teamwork": 4, "delivery": 3, "values": 5},
		"templates": {"common": []}}`

	// WHEN: Computing
	rec := do(t, srv, http.MethodPost, "/api/masters/annual-2025/compute", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: Her sales department and role templates still apply
	result := decode[ResultDTO](t, rec)
	assert.Equal(t, 78.0, result.FinalPercentage)
	var payload struct {
		Templates struct {
			Department string `json:"department"`
			Role       string `json:"role"`
		} `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &payload))
	assert.Equal(t, "sales-dept", payload.Templates.Department)
	assert.Equal(t, "rep-role", payload.Templates.Role)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func TestAllocations_Lifecycle(t *testing.T) {
	srv := setupTestServer(t, "")
	base := "/api/allocations/okr-1"

	// GIVEN: A budget and three teams
	rec := do(t, srv, http.MethodPut, base+"/budget",
		`{"department_id": "sales", "functional_weightage": 50, "role_weightage": 19, "common_weightage": 31}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPut, base+"/teams", `{"teams": [
		{"team_id": "north", "department_weightage": 25, "role_weightage": 10},
		{"team_id": "south", "department_weightage": 15, "role_weightage": 5},
		{"team_id": "east", "department_weightage": 10, "role_weightage": 4}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Common is redistributed with the remainder on the first team
	set := decode[AllocationDTO](t, rec)
	require.Len(t, set.Teams, 3)
	assert.Equal(t, 10.34, set.Teams[0].Common)
	assert.Equal(t, 10.33, set.Teams[1].Common)
	assert.Equal(t, 2, set.Version)

	// WHEN: Over-allocating the department budget
	rec = do(t, srv, http.MethodPut, base+"/teams/east", `{"department_weightage": 20, "role_weightage": 4}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// AND: Distributing to a key result
	rec = do(t, srv, http.MethodPost, base+"/key-results",
		`{"team_id": "north", "result_type": "common", "title": "Renewals", "distributed_weightage": 10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	set = decode[AllocationDTO](t, rec)
	require.Len(t, set.KeyResults, 1)
	assert.NotEmpty(t, set.KeyResults[0].ID)

	// AND: More than the team's share is rejected
	rec = do(t, srv, http.MethodPost, base+"/key-results",
		`{"team_id": "north", "result_type": "common", "distributed_weightage": 5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// AND: Removing works once, then 404
	rec = do(t, srv, http.MethodDelete, base+"/key-results/"+set.KeyResults[0].ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodDelete, base+"/key-results/"+set.KeyResults[0].ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/allocations/none", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAllocations_DepartmentSwitchRestoresTeams(t *testing.T) {
	srv := setupTestServer(t, "okr-allocation")
	base := "/api/allocations/objective-grow-revenue"

	rec := do(t, srv, http.MethodPost, base+"/department",
		`{"department_id": "engineering", "functional_weightage": 60, "role_weightage": 20, "common_weightage": 20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	set := decode[AllocationDTO](t, rec)
	assert.Empty(t, set.Teams)
	assert.Empty(t, set.KeyResults)

	rec = do(t, srv, http.MethodPost, base+"/department",
		`{"department_id": "sales", "functional_weightage": 50, "role_weightage": 19, "common_weightage": 31}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	set = decode[AllocationDTO](t, rec)
	assert.Len(t, set.Teams, 3)
	assert.Equal(t, "sales", set.DepartmentID)

	rec = do(t, srv, http.MethodPost, base+"/department",
		`{"department_id": "sales", "functional_weightage": 50, "role_weightage": 20, "common_weightage": 20}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// =============================================================================
// OBJECTIVES
// =============================================================================

func TestObjectives_ComputeFromKeyResultProgress(t *testing.T) {
	srv := setupTestServer(t, "okr-allocation")
	path := "/api/masters/okr-q1/compute"

	// GIVEN: Ada's objective with key results at 80% and 100%
	body := `{"employee_id": "emp-ada", "objectives": [{"title": "Grow revenue", "key_results": [
		{"code": "kr-pipeline", "name": "Pipeline", "target_value": 100, "current_value": 80},
		{"code": "kr-renewals", "name": "Renewals", "target_value": 40, "current_value": 40}]}]}`

	// WHEN: Computing with no explicit answers
	rec := do(t, srv, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: Progress scores the OKR template (mean of 80 and 100)
	result := decode[ResultDTO](t, rec)
	assert.Equal(t, 90.0, result.FinalPercentage)
	assert.Equal(t, "Outstanding", result.RatingLabel)

	// AND: The stored objective template feeds answers the same way (60 and 100)
	rec = do(t, srv, http.MethodPost, path,
		`{"employee_id": "emp-ada", "objective_template_ids": ["objective-grow-revenue"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 80.0, decode[ResultDTO](t, rec).FinalPercentage)

	// AND: Explicit answers win over progress
	rec = do(t, srv, http.MethodPost, path,
		`{"employee_id": "emp-ada", "answers": {"kr-pipeline": 100}, "objective_template_ids": ["objective-grow-revenue"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 100.0, decode[ResultDTO](t, rec).FinalPercentage)

	rec = do(t, srv, http.MethodPost, path, `{"employee_id": "emp-ada", "objective_template_ids": ["ghost"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestObjectives_KeyResultsMustBeDeclared(t *testing.T) {
	srv := setupTestServer(t, "okr-allocation")
	path := "/api/allocations/objective-grow-revenue/key-results"

	// GIVEN: The objective template declares kr-pipeline and kr-renewals
	// WHEN: Distributing to a key result it does not declare
	rec := do(t, srv, http.MethodPost, path,
		`{"team_id": "east", "result_type": "role", "title": "Churn reduced", "distributed_weightage": 2}`)

	// THEN: The allocation is rejected and nothing changes
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodGet, "/api/allocations/objective-grow-revenue", "")
	assert.Len(t, decode[AllocationDTO](t, rec).KeyResults, 2)

	// AND: A declared key result, referenced by code, is accepted
	rec = do(t, srv, http.MethodPost, path,
		`{"team_id": "east", "result_type": "role", "title": "kr-renewals", "distributed_weightage": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[AllocationDTO](t, rec).KeyResults, 3)
}

func TestObjectives_CreateAndGet(t *testing.T) {
	srv := setupTestServer(t, "")

	rec := do(t, srv, http.MethodPost, "/api/objectives", `{"id": "obj-1", "name": "Ship faster",
		"priority": "high", "objective_weightage": 30, "department_id": "engineering",
		"key_results": [{"code": "kr-lead-time", "title": "Lead time", "weightage": 100,
			"target": {"operator": "lte", "value": 2, "unit": "days"}, "actual": {"value": 1, "unit": "days"}}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/objectives/obj-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[ObjectiveTemplateDTO](t, rec)
	assert.Equal(t, 100.0, dto.TotalKeyResultWeightage)
	require.Len(t, dto.KeyResults, 1)
	assert.Equal(t, "≤ 2 days", dto.KeyResults[0].Target)
	assert.Equal(t, 50.0, dto.KeyResults[0].Progress)

	rec = do(t, srv, http.MethodGet, "/api/objectives", "")
	assert.Len(t, decode[[]ObjectiveTemplateDTO](t, rec), 1)

	rec = do(t, srv, http.MethodPost, "/api/objectives", `{"id": "obj-2", "priority": "urgent", "objective_weightage": 10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/objectives/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_Endpoints(t *testing.T) {
	srv := setupTestServer(t, "")

	rec := do(t, srv, http.MethodGet, "/api/scenarios", "")
	assert.Len(t, decode[[]ScenarioDTO](t, rec), len(scenarios))

	rec = do(t, srv, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "annual-review"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/scenarios/current", "")
	assert.Equal(t, "annual-review", decode[ScenarioDTO](t, rec).ID)

	rec = do(t, srv, http.MethodPost, "/api/scenarios/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/employees", "")
	assert.Empty(t, decode[[]EmployeeDTO](t, rec))
}
