/*
Package allocation distributes a department's OKR weightage budget across teams.

PURPOSE:
  An OKR objective template belongs to one department. The department has a
  budget (functional / role / common percentages). Teams working on the
  objective receive shares of that budget, and each team splits its share
  further across key results. This package keeps those numbers consistent.

TYPES:
  - DepartmentBudget: the department-level percentages (sum to 100)
  - TeamAllocation: one team's share of each result type
  - KeyResultAllocation: weightage distributed to one key result
  - Set: every allocation record owned by one objective template

INVARIANTS:
  Σ team.Department <= budget.Functional
  Σ team.Role       <= budget.Role
  team.Common        = budget.Common / len(teams), remainder to the first team
  Σ key result weightage per (team, result type) <= that team's share

  Common weightage is never entered by hand; it is recomputed every time the
  team set or budget changes, so it is exempt from the budget check.

SEE ALSO:
  - rules.go: Redistribution and validation
  - allocator.go: Serialized, persisted mutations
  - store.go: Persistence interfaces
*/
package allocation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/appraisal-engine/appraisal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// TemplateID identifies the OKR objective template owning an allocation set.
type TemplateID string
type TeamID string
type KeyResultID string

// =============================================================================
// RESULT TYPE
// =============================================================================

// ResultType is the budget bucket a key result draws from.
type ResultType string

const (
	ResultDepartment ResultType = "department"
	ResultRole       ResultType = "role"
	ResultCommon     ResultType = "common"
)

// ResultTypes lists the buckets in display order.
var ResultTypes = []ResultType{ResultDepartment, ResultRole, ResultCommon}

func (r ResultType) Valid() bool {
	switch r {
	case ResultDepartment, ResultRole, ResultCommon:
		return true
	}
	return false
}

// =============================================================================
// DEPARTMENT BUDGET
// =============================================================================

var budgetTolerance = decimal.RequireFromString("0.01")

// DepartmentBudget is the weightage a department hands out to its teams.
type DepartmentBudget struct {
	DepartmentID appraisal.DepartmentID `json:"department_id"`
	Functional   decimal.Decimal        `json:"functional_weightage"`
	Role         decimal.Decimal        `json:"role_weightage"`
	Common       decimal.Decimal        `json:"common_weightage"`
}

func NewDepartmentBudget(dept appraisal.DepartmentID, functional, role, common float64) DepartmentBudget {
	return DepartmentBudget{
		DepartmentID: dept,
		Functional:   appraisal.Dec(functional),
		Role:         appraisal.Dec(role),
		Common:       appraisal.Dec(common),
	}
}

func (b DepartmentBudget) Total() decimal.Decimal {
	return appraisal.Sum(b.Functional, b.Role, b.Common)
}

// Of returns the budget of one result type. Department key results draw
// from the functional budget.
func (b DepartmentBudget) Of(rt ResultType) decimal.Decimal {
	switch rt {
	case ResultDepartment:
		return b.Functional
	case ResultRole:
		return b.Role
	case ResultCommon:
		return b.Common
	}
	return decimal.Zero
}

// Validate requires non-negative percentages summing to 100 (±0.01).
func (b DepartmentBudget) Validate() error {
	for _, rt := range ResultTypes {
		if b.Of(rt).IsNegative() {
			return appraisal.NewConfigurationError("budget", "%s weightage cannot be negative", rt)
		}
	}
	total := b.Total()
	if !appraisal.Within(total, appraisal.Hundred, budgetTolerance) {
		return appraisal.NewTotalError("budget", "total weightage must be 100%", total)
	}
	return nil
}

// =============================================================================
// TEAM AND KEY RESULT ALLOCATIONS
// =============================================================================

// TeamAllocation is one team's share of the department budget.
// Sequence orders teams; the first team absorbs redistribution remainders.
type TeamAllocation struct {
	TeamID     TeamID          `json:"team_id"`
	Name       string          `json:"name,omitempty"`
	Sequence   int             `json:"sequence"`
	Department decimal.Decimal `json:"department_weightage"`
	Role       decimal.Decimal `json:"role_weightage"`
	Common     decimal.Decimal `json:"common_weightage"`
}

// Of returns the team's share of one result type.
func (t TeamAllocation) Of(rt ResultType) decimal.Decimal {
	switch rt {
	case ResultDepartment:
		return t.Department
	case ResultRole:
		return t.Role
	case ResultCommon:
		return t.Common
	}
	return decimal.Zero
}

// KeyResultAllocation is the weightage a team distributes to one key result.
type KeyResultAllocation struct {
	ID          KeyResultID     `json:"id"`
	TeamID      TeamID          `json:"team_id"`
	ResultType  ResultType      `json:"result_type"`
	Title       string          `json:"title,omitempty"`
	Distributed decimal.Decimal `json:"distributed_weightage"`
}

// =============================================================================
// SET - every record owned by one objective template
// =============================================================================

type Set struct {
	TemplateID   TemplateID             `json:"template_id"`
	DepartmentID appraisal.DepartmentID `json:"department_id,omitempty"`
	Budget       DepartmentBudget       `json:"budget"`
	Teams        []TeamAllocation       `json:"teams"`
	KeyResults   []KeyResultAllocation  `json:"key_results"`
	Version      int                    `json:"version"`
}

func NewSet(templateID TemplateID) *Set {
	return &Set{
		TemplateID: templateID,
		Teams:      []TeamAllocation{},
		KeyResults: []KeyResultAllocation{},
	}
}

// Clone returns a deep copy; callers mutate clones, never committed sets.
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	c := *s
	c.Teams = append([]TeamAllocation{}, s.Teams...)
	c.KeyResults = append([]KeyResultAllocation{}, s.KeyResults...)
	return &c
}

// Team returns the allocation of one team.
func (s *Set) Team(id TeamID) (TeamAllocation, bool) {
	for _, t := range s.Teams {
		if t.TeamID == id {
			return t, true
		}
	}
	return TeamAllocation{}, false
}

// OrderTeams sorts teams by (Sequence, TeamID).
func (s *Set) OrderTeams() {
	sort.SliceStable(s.Teams, func(i, j int) bool {
		if s.Teams[i].Sequence != s.Teams[j].Sequence {
			return s.Teams[i].Sequence < s.Teams[j].Sequence
		}
		return s.Teams[i].TeamID < s.Teams[j].TeamID
	})
}

// Allocated returns the sum of team shares for one result type.
func (s *Set) Allocated(rt ResultType) decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Teams {
		total = total.Add(t.Of(rt))
	}
	return total
}

// Distributed returns the key result weightage of one (team, result type).
func (s *Set) Distributed(team TeamID, rt ResultType) decimal.Decimal {
	total := decimal.Zero
	for _, kr := range s.KeyResults {
		if kr.TeamID == team && kr.ResultType == rt {
			total = total.Add(kr.Distributed)
		}
	}
	return total
}

// dropOrphanKeyResults removes key results whose team left the set and
// returns how many were removed.
func (s *Set) dropOrphanKeyResults() int {
	kept := s.KeyResults[:0]
	removed := 0
	for _, kr := range s.KeyResults {
		if _, ok := s.Team(kr.TeamID); ok {
			kept = append(kept, kr)
			continue
		}
		removed++
	}
	s.KeyResults = kept
	return removed
}
