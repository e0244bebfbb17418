package allocation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/appraisal-engine/allocation"
	"github.com/warp/appraisal-engine/allocation/store"
	"github.com/warp/appraisal-engine/appraisal"
	"github.com/warp/appraisal-engine/okr"
)

func newTestAllocator() (*allocation.Allocator, *store.TxMemory) {
	mem := store.NewTxMemory()
	return allocation.NewAllocator(mem, mem, nil), mem
}

func TestAllocator_BudgetThenTeams(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator()

	_, err := alloc.SetBudget(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 19, 31))
	require.NoError(t, err)

	set, err := alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{
		team("north", 1, 20, 5),
		team("south", 2, 20, 5),
		team("east", 3, 10, 5),
	})
	require.NoError(t, err)

	assertDec(t, 10.34, set.Teams[0].Common)
	assertDec(t, 10.33, set.Teams[2].Common)
	assert.Equal(t, 2, set.Version)

	got, err := alloc.Get(ctx, "okr-1")
	require.NoError(t, err)
	assert.Equal(t, set.Version, got.Version)
	assert.Len(t, got.Teams, 3)
}

func TestAllocator_BudgetChangeRedistributes(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator()

	_, err := alloc.SetBudget(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 20, 30))
	require.NoError(t, err)
	_, err = alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{team("a", 1, 0, 0), team("b", 2, 0, 0)})
	require.NoError(t, err)

	set, err := alloc.SetBudget(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 40, 20, 40))
	require.NoError(t, err)
	assertDec(t, 20, set.Teams[0].Common)
	assertDec(t, 20, set.Teams[1].Common)
}

func TestAllocator_RejectedChangeIsNotPersisted(t *testing.T) {
	// GIVEN: A valid committed set
	ctx := context.Background()
	alloc, _ := newTestAllocator()
	_, err := alloc.SetBudget(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 20, 30))
	require.NoError(t, err)
	_, err = alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{team("a", 1, 30, 10)})
	require.NoError(t, err)

	// WHEN: An update pushes department shares over the functional budget
	_, err = alloc.UpdateTeam(ctx, "okr-1", team("a", 1, 60, 10))

	// THEN: It fails and the committed set is unchanged
	require.Error(t, err)
	set, err := alloc.Get(ctx, "okr-1")
	require.NoError(t, err)
	assertDec(t, 30, set.Teams[0].Department)
	assert.Equal(t, 2, set.Version)
}

func TestAllocator_UpdateTeamKeepsCommon(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator()
	_, err := alloc.SetBudget(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 20, 30))
	require.NoError(t, err)
	_, err = alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{team("a", 1, 10, 10), team("b", 2, 10, 10)})
	require.NoError(t, err)

	set, err := alloc.UpdateTeam(ctx, "okr-1", team("b", 2, 25, 5))
	require.NoError(t, err)
	tb, ok := set.Team("b")
	require.True(t, ok)
	assertDec(t, 25, tb.Department)
	assertDec(t, 15, tb.Common)

	_, err = alloc.UpdateTeam(ctx, "okr-1", team("ghost", 3, 1, 1))
	assert.ErrorIs(t, err, allocation.ErrTeamNotFound)
}

func TestAllocator_KeyResults(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator()
	_, err := alloc.SetBudget(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 20, 30))
	require.NoError(t, err)
	_, err = alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{team("a", 1, 20, 10)})
	require.NoError(t, err)

	// WHEN: Adding a key result without an id
	set, kr, err := alloc.AddKeyResult(ctx, "okr-1", allocation.KeyResultAllocation{
		TeamID: "a", ResultType: allocation.ResultDepartment, Title: "Close Q3 deals", Distributed: d(15),
	})
	require.NoError(t, err)

	// THEN: An id is assigned
	assert.NotEmpty(t, kr.ID)
	assert.Len(t, set.KeyResults, 1)

	// AND: Exceeding the team's share is rejected
	_, _, err = alloc.AddKeyResult(ctx, "okr-1", allocation.KeyResultAllocation{
		TeamID: "a", ResultType: allocation.ResultDepartment, Distributed: d(6),
	})
	require.Error(t, err)

	set, err = alloc.RemoveKeyResult(ctx, "okr-1", kr.ID)
	require.NoError(t, err)
	assert.Empty(t, set.KeyResults)

	_, err = alloc.RemoveKeyResult(ctx, "okr-1", kr.ID)
	assert.ErrorIs(t, err, allocation.ErrKeyResultNotFound)
	assert.True(t, allocation.IsNotFound(err))
}

// objectiveIndex is a map-backed allocation.ObjectiveSource.
type objectiveIndex map[string]*okr.ObjectiveTemplate

func (idx objectiveIndex) ObjectiveTemplate(_ context.Context, id string) (*okr.ObjectiveTemplate, error) {
	if t, ok := idx[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("objective template %s: %w", id, okr.ErrTemplateNotFound)
}

func TestAllocator_KeyResultsCheckedAgainstObjective(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator()
	alloc.WithObjectives(objectiveIndex{
		"okr-1": {ID: "okr-1", KeyResults: []okr.TemplateKeyResult{{Code: "kr-deals", Title: "Close Q3 deals"}}},
	})
	for _, id := range []allocation.TemplateID{"okr-1", "okr-2"} {
		_, err := alloc.SetBudget(ctx, id, allocation.NewDepartmentBudget("sales", 50, 20, 30))
		require.NoError(t, err)
		_, err = alloc.SetTeams(ctx, id, []allocation.TeamAllocation{team("a", 1, 20, 10)})
		require.NoError(t, err)
	}

	// WHEN: The key result is not declared on the objective template
	_, _, err := alloc.AddKeyResult(ctx, "okr-1", allocation.KeyResultAllocation{
		TeamID: "a", ResultType: allocation.ResultDepartment, Title: "Hire two SDRs", Distributed: d(5),
	})

	// THEN: It is rejected before anything is saved
	assert.True(t, appraisal.IsConfigurationError(err))
	set, err := alloc.Get(ctx, "okr-1")
	require.NoError(t, err)
	assert.Empty(t, set.KeyResults)
	assert.Equal(t, 2, set.Version)

	// AND: Declared key results are accepted by code or title
	_, _, err = alloc.AddKeyResult(ctx, "okr-1", allocation.KeyResultAllocation{
		TeamID: "a", ResultType: allocation.ResultDepartment, Title: "kr-deals", Distributed: d(5),
	})
	require.NoError(t, err)

	// AND: Sets without an objective template accept any key result
	_, _, err = alloc.AddKeyResult(ctx, "okr-2", allocation.KeyResultAllocation{
		TeamID: "a", ResultType: allocation.ResultDepartment, Title: "Hire two SDRs", Distributed: d(5),
	})
	require.NoError(t, err)
}

func TestAllocator_RemovingTeamDropsItsKeyResults(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator()
	_, err := alloc.SetBudget(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 20, 30))
	require.NoError(t, err)
	_, err = alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{team("a", 1, 20, 10), team("b", 2, 20, 10)})
	require.NoError(t, err)
	_, _, err = alloc.AddKeyResult(ctx, "okr-1", allocation.KeyResultAllocation{
		TeamID: "b", ResultType: allocation.ResultRole, Distributed: d(5),
	})
	require.NoError(t, err)

	set, err := alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{team("a", 1, 20, 10)})
	require.NoError(t, err)
	assert.Empty(t, set.KeyResults)
	assertDec(t, 30, set.Teams[0].Common)
}

func TestAllocator_SelectDepartmentRestoresSnapshot(t *testing.T) {
	// GIVEN: A template allocated to sales with two teams
	ctx := context.Background()
	alloc, _ := newTestAllocator()
	_, err := alloc.SelectDepartment(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 20, 30))
	require.NoError(t, err)
	_, err = alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{team("a", 1, 20, 10), team("b", 2, 20, 10)})
	require.NoError(t, err)

	// WHEN: Switching to engineering
	set, err := alloc.SelectDepartment(ctx, "okr-1", allocation.NewDepartmentBudget("engineering", 60, 20, 20))
	require.NoError(t, err)

	// THEN: Engineering starts with no teams
	assert.Equal(t, "engineering", string(set.DepartmentID))
	assert.Empty(t, set.Teams)

	// WHEN: Switching back to sales
	set, err = alloc.SelectDepartment(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 20, 30))
	require.NoError(t, err)

	// THEN: The sales teams come back, redistributed under the sales budget
	require.Len(t, set.Teams, 2)
	assertDec(t, 15, set.Teams[0].Common)
	assertDec(t, 20, set.Teams[1].Department)
}

func TestAllocator_SelectDepartmentRequiresDepartment(t *testing.T) {
	alloc, _ := newTestAllocator()
	_, err := alloc.SelectDepartment(context.Background(), "okr-1", allocation.NewDepartmentBudget("", 50, 20, 30))
	assert.Error(t, err)
}

func TestAllocator_TeamsBeforeBudgetRejected(t *testing.T) {
	alloc, _ := newTestAllocator()
	_, err := alloc.SetTeams(context.Background(), "okr-1", []allocation.TeamAllocation{team("a", 1, 0, 0)})
	require.Error(t, err)

	_, err = alloc.Get(context.Background(), "okr-1")
	assert.ErrorIs(t, err, allocation.ErrSetNotFound)
}

func TestAllocator_ConcurrentRedistributionsSerialize(t *testing.T) {
	// GIVEN: A set with three teams
	ctx := context.Background()
	alloc, _ := newTestAllocator()
	_, err := alloc.SetBudget(ctx, "okr-1", allocation.NewDepartmentBudget("sales", 50, 19, 31))
	require.NoError(t, err)
	_, err = alloc.SetTeams(ctx, "okr-1", []allocation.TeamAllocation{team("a", 1, 0, 0), team("b", 2, 0, 0), team("c", 3, 0, 0)})
	require.NoError(t, err)

	// WHEN: Many redistributions race
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := alloc.Redistribute(ctx, "okr-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// THEN: No update is lost
	set, err := alloc.Get(ctx, "okr-1")
	require.NoError(t, err)
	assert.Equal(t, 22, set.Version)
	assertDec(t, 31, set.Allocated(allocation.ResultCommon))
}
