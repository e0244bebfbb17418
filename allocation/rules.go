package allocation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/appraisal-engine/appraisal"
	"github.com/warp/appraisal-engine/okr"
)

// =============================================================================
// REDISTRIBUTION
// =============================================================================

// Redistribute splits the common budget equally across teams. Teams are
// ordered by (Sequence, TeamID) first; any rounding remainder goes to the
// first team so the shares always sum to the budget exactly.
//
//	31% across 3 teams -> 10.34, 10.33, 10.33
//	20% across 3 teams -> 6.66, 6.67, 6.67
//	10% across 3 teams -> 3.34, 3.33, 3.33
//
// The remainder is applied whenever it is non-zero, with no 0.01 tolerance:
// a sub-cent remainder still moves to the first team.
func Redistribute(set *Set) {
	n := len(set.Teams)
	if n == 0 {
		return
	}
	set.OrderTeams()

	budget := set.Budget.Common
	per := appraisal.Round2(budget.Div(decimal.NewFromInt(int64(n))))
	for i := range set.Teams {
		set.Teams[i].Common = per
	}

	remainder := budget.Sub(per.Mul(decimal.NewFromInt(int64(n))))
	if !remainder.IsZero() {
		set.Teams[0].Common = set.Teams[0].Common.Add(remainder)
	}
}

// =============================================================================
// VALIDATION - raised at save time, never silently corrected
// =============================================================================

// ValidateTeams checks team shares against the department budget.
// Common shares are exempt: they are mechanically redistributed.
func ValidateTeams(set *Set) error {
	seen := make(map[TeamID]bool, len(set.Teams))
	for _, t := range set.Teams {
		if t.TeamID == "" {
			return appraisal.NewConfigurationError("teams", "team id is required")
		}
		if seen[t.TeamID] {
			return appraisal.NewConfigurationError("teams", "team %s allocated twice", t.TeamID)
		}
		seen[t.TeamID] = true
		if t.Department.IsNegative() || t.Role.IsNegative() {
			return appraisal.NewConfigurationError("teams", "team %s weightage cannot be negative", t.TeamID)
		}
	}

	if total := set.Allocated(ResultDepartment); total.GreaterThan(set.Budget.Functional) {
		return appraisal.NewBudgetError("department_weightage", total, set.Budget.Functional)
	}
	if total := set.Allocated(ResultRole); total.GreaterThan(set.Budget.Role) {
		return appraisal.NewBudgetError("role_weightage", total, set.Budget.Role)
	}
	return nil
}

// AvailableWeightage is what a team may distribute to key results of one
// result type: its own allocated share. Unknown teams have nothing.
func AvailableWeightage(set *Set, team TeamID, rt ResultType) decimal.Decimal {
	t, ok := set.Team(team)
	if !ok {
		return decimal.Zero
	}
	return t.Of(rt)
}

// ValidateKeyResults checks every (team, result type) group against the
// team's available weightage.
func ValidateKeyResults(set *Set) error {
	type group struct {
		team TeamID
		rt   ResultType
	}
	var order []group
	sums := make(map[group]decimal.Decimal)

	for _, kr := range set.KeyResults {
		if !kr.ResultType.Valid() {
			return appraisal.NewConfigurationError("key_results", "key result %s: unknown result type %q", kr.ID, kr.ResultType)
		}
		if _, ok := set.Team(kr.TeamID); !ok {
			return appraisal.NewConfigurationError("key_results", "key result %s: team %s is not allocated", kr.ID, kr.TeamID)
		}
		if kr.Distributed.IsNegative() || kr.Distributed.GreaterThan(appraisal.Hundred) {
			return appraisal.NewConfigurationError("key_results", "key result %s: weightage must be between 0 and 100", kr.ID)
		}
		g := group{kr.TeamID, kr.ResultType}
		if _, ok := sums[g]; !ok {
			order = append(order, g)
		}
		sums[g] = sums[g].Add(kr.Distributed)
	}

	for _, g := range order {
		available := AvailableWeightage(set, g.team, g.rt)
		if sums[g].GreaterThan(available) {
			return appraisal.NewBudgetError(fmt.Sprintf("key_results[%s/%s]", g.team, g.rt), sums[g], available)
		}
	}
	return nil
}

// Validate runs every save-time check on a set.
func Validate(set *Set) error {
	if err := set.Budget.Validate(); err != nil {
		return err
	}
	if err := ValidateTeams(set); err != nil {
		return err
	}
	return ValidateKeyResults(set)
}

// CheckDeclared rejects a key result allocation whose title names no key
// result of the objective template (matched by code, then title).
func CheckDeclared(tpl *okr.ObjectiveTemplate, kr KeyResultAllocation) error {
	if tpl == nil {
		return nil
	}
	if strings.TrimSpace(kr.Title) == "" {
		return appraisal.NewConfigurationError("title", "key result title is required by objective template %s", tpl.ID)
	}
	if _, ok := tpl.KeyResult(kr.Title); !ok {
		return appraisal.NewConfigurationError("title", "objective template %s declares no key result %q", tpl.ID, kr.Title)
	}
	return nil
}
