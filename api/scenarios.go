/*
scenarios.go - Embedded demo data

PURPOSE:

	Each scenario is a directory of YAML configuration documents under
	scenarios/, compiled into the binary. Loading one replaces the whole
	database with its employees, masters and allocation sets.

AVAILABLE SCENARIOS:

	annual-review:   40/35/25 master on a five point scale, 360 framework
	okr-allocation:  Team budget with common redistribution (31 over 3 teams)
	fallback-rating: Master without a scale, fixed rating thresholds

HOW SCENARIOS WORK:
 1. Parse scenarios/<id>/ (every .yaml file, recursively) through the config factory
 2. Reset the database
 3. Save employees, masters, objective templates and allocation sets

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "annual-review"}

ADDING NEW SCENARIOS:
 Drop a directory of YAML documents under scenarios/ and list it in the
 scenarios slice below. Loading wipes existing data; keep it off production.

SEE ALSO:
  - handlers.go: Other handlers
  - factory/load.go: LoadFS
*/
package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

//go:embed scenarios
var scenarioFS embed.FS

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "annual-review",
		Name:        "Annual Review",
		Description: "Department, role and common templates weighted 40/35/25 with a 360 framework",
		Category:    "appraisal",
	},
	{
		ID:          "okr-allocation",
		Name:        "OKR Allocation",
		Description: "Department budget split across three teams; common weightage redistributed with remainder",
		Category:    "okr",
	},
	{
		ID:          "fallback-rating",
		Name:        "Fallback Rating",
		Description: "No scoring scale configured; ratings come from fixed percentage thresholds",
		Category:    "appraisal",
	},
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := findScenario(req.ScenarioID); !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		h.fail(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADER
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	// Parse before resetting so a broken scenario leaves the data alone.
	bundle, err := h.Factory.LoadFS(scenarioFS, "scenarios/"+id+"/**/*.yaml")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.currentScenario = ""

	for _, emp := range bundle.Employees {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}
	for _, m := range bundle.Masters {
		if err := h.Store.SaveMaster(ctx, m); err != nil {
			return err
		}
	}
	for _, t := range bundle.ObjectiveTemplates {
		if err := h.Store.SaveObjectiveTemplate(ctx, t); err != nil {
			return err
		}
	}
	allocs := h.Store.Allocations()
	for _, set := range bundle.Allocations {
		set.Version = 1
		if err := allocs.Save(ctx, set); err != nil {
			return err
		}
	}

	h.currentScenario = id
	h.Logger.Info("scenario loaded",
		zap.String("scenario", id),
		zap.Int("employees", len(bundle.Employees)),
		zap.Int("masters", len(bundle.Masters)),
		zap.Int("objective_templates", len(bundle.ObjectiveTemplates)),
		zap.Int("allocations", len(bundle.Allocations)),
	)
	return nil
}
