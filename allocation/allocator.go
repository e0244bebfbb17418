/*
allocator.go - Serialized mutations of allocation sets

PURPOSE:
  Every change to an allocation set follows the same cycle:

    lock(template) -> load -> mutate clone -> redistribute? -> validate -> save

  Validation failures abort before anything is written, so a committed set
  always satisfies every invariant in rules.go.

REDISTRIBUTION TRIGGERS:
  SetBudget, SetTeams, SelectDepartment and Redistribute recompute common
  shares. UpdateTeam and key result changes do not.

CONCURRENCY:
  Writes to one template are serialized by a per-template mutex. Two
  redistribution triggers racing on the same template cannot lose an
  update. Get reads the committed set without taking the lock.

DEPARTMENT SNAPSHOTS:
  When a template moves to another department its current team allocation
  is parked under the old department id. Moving back restores it.
*/
package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/appraisal-engine/appraisal"
	"github.com/warp/appraisal-engine/okr"
)

// Allocator applies validated, persisted changes to allocation sets.
type Allocator struct {
	store      Store
	snapshots  SnapshotStore
	objectives ObjectiveSource
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[TemplateID]*sync.Mutex
}

// NewAllocator wires an Allocator. snapshots may be nil, in which case
// department switches always start from an empty team set.
func NewAllocator(store Store, snapshots SnapshotStore, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{
		store:     store,
		snapshots: snapshots,
		logger:    logger,
		locks:     make(map[TemplateID]*sync.Mutex),
	}
}

func (a *Allocator) lock(id TemplateID) func() {
	a.mu.Lock()
	l, ok := a.locks[id]
	if !ok {
		l = &sync.Mutex{}
		a.locks[id] = l
	}
	a.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// WithObjectives makes AddKeyResult check key results against the
// objective template owning the set. Sets whose template is not found
// accept any key result.
func (a *Allocator) WithObjectives(src ObjectiveSource) *Allocator {
	a.objectives = src
	return a
}

// Get returns the committed set of a template.
func (a *Allocator) Get(ctx context.Context, id TemplateID) (*Set, error) {
	return a.store.Load(ctx, id)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// SetBudget replaces the department budget and redistributes common weightage.
func (a *Allocator) SetBudget(ctx context.Context, id TemplateID, budget DepartmentBudget) (*Set, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	return a.mutate(ctx, id, func(set *Set, _ SnapshotStore) error {
		set.Budget = budget
		if budget.DepartmentID != "" {
			set.DepartmentID = budget.DepartmentID
		}
		a.redistribute(set, "budget changed")
		return nil
	})
}

// SetTeams replaces the team set. Key results of removed teams are dropped.
func (a *Allocator) SetTeams(ctx context.Context, id TemplateID, teams []TeamAllocation) (*Set, error) {
	return a.mutate(ctx, id, func(set *Set, _ SnapshotStore) error {
		set.Teams = append([]TeamAllocation{}, teams...)
		if n := set.dropOrphanKeyResults(); n > 0 {
			a.logger.Info("dropped key results of removed teams",
				zap.String("template_id", string(id)), zap.Int("count", n))
		}
		a.redistribute(set, "team set changed")
		return nil
	})
}

// UpdateTeam changes the department and role shares of one team.
// Its common share stays as redistributed.
func (a *Allocator) UpdateTeam(ctx context.Context, id TemplateID, team TeamAllocation) (*Set, error) {
	return a.mutate(ctx, id, func(set *Set, _ SnapshotStore) error {
		for i := range set.Teams {
			if set.Teams[i].TeamID != team.TeamID {
				continue
			}
			set.Teams[i].Department = team.Department
			set.Teams[i].Role = team.Role
			if team.Name != "" {
				set.Teams[i].Name = team.Name
			}
			return nil
		}
		return fmt.Errorf("team %s: %w", team.TeamID, ErrTeamNotFound)
	})
}

// Redistribute recomputes common shares on request.
func (a *Allocator) Redistribute(ctx context.Context, id TemplateID) (*Set, error) {
	return a.mutate(ctx, id, func(set *Set, _ SnapshotStore) error {
		a.redistribute(set, "explicit")
		return nil
	})
}

// AddKeyResult distributes weightage to a key result. An empty ID is assigned.
// With an objective source, the title must name a key result declared on
// the objective template.
func (a *Allocator) AddKeyResult(ctx context.Context, id TemplateID, kr KeyResultAllocation) (*Set, KeyResultAllocation, error) {
	if a.objectives != nil {
		tpl, err := a.objectives.ObjectiveTemplate(ctx, string(id))
		switch {
		case err == nil:
			if err := CheckDeclared(tpl, kr); err != nil {
				return nil, KeyResultAllocation{}, err
			}
		case !errors.Is(err, okr.ErrTemplateNotFound):
			return nil, KeyResultAllocation{}, fmt.Errorf("failed to load objective template %s: %w", id, err)
		}
	}
	if kr.ID == "" {
		kr.ID = KeyResultID(uuid.NewString())
	}
	set, err := a.mutate(ctx, id, func(set *Set, _ SnapshotStore) error {
		for i := range set.KeyResults {
			if set.KeyResults[i].ID == kr.ID {
				set.KeyResults[i] = kr
				return nil
			}
		}
		set.KeyResults = append(set.KeyResults, kr)
		return nil
	})
	if err != nil {
		return nil, KeyResultAllocation{}, err
	}
	return set, kr, nil
}

func (a *Allocator) RemoveKeyResult(ctx context.Context, id TemplateID, krID KeyResultID) (*Set, error) {
	return a.mutate(ctx, id, func(set *Set, _ SnapshotStore) error {
		for i := range set.KeyResults {
			if set.KeyResults[i].ID == krID {
				set.KeyResults = append(set.KeyResults[:i], set.KeyResults[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("key result %s: %w", krID, ErrKeyResultNotFound)
	})
}

// SelectDepartment moves a template to the budget's department. The current
// team allocation is parked under the old department; a parked allocation
// for the new department is restored, otherwise the team set starts empty.
func (a *Allocator) SelectDepartment(ctx context.Context, id TemplateID, budget DepartmentBudget) (*Set, error) {
	if budget.DepartmentID == "" {
		return nil, appraisal.NewConfigurationError("department_id", "department is required")
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	return a.mutate(ctx, id, func(set *Set, snaps SnapshotStore) error {
		if set.DepartmentID != budget.DepartmentID {
			if err := a.switchDepartment(ctx, snaps, set, budget.DepartmentID); err != nil {
				return err
			}
		}
		set.DepartmentID = budget.DepartmentID
		set.Budget = budget
		a.redistribute(set, "department selected")
		return nil
	})
}

func (a *Allocator) switchDepartment(ctx context.Context, snaps SnapshotStore, set *Set, to appraisal.DepartmentID) error {
	restored := []TeamAllocation{}
	if snaps != nil {
		if set.DepartmentID != "" {
			if err := snaps.SaveSnapshot(ctx, set.TemplateID, set.DepartmentID, set.Teams); err != nil {
				return fmt.Errorf("failed to snapshot department %s: %w", set.DepartmentID, err)
			}
		}
		teams, ok, err := snaps.LoadSnapshot(ctx, set.TemplateID, to)
		if err != nil {
			return fmt.Errorf("failed to load snapshot for department %s: %w", to, err)
		}
		if ok {
			restored = teams
		}
	}

	a.logger.Info("department switched",
		zap.String("template_id", string(set.TemplateID)),
		zap.String("from", string(set.DepartmentID)),
		zap.String("to", string(to)),
		zap.Int("restored_teams", len(restored)),
	)
	set.Teams = restored
	set.dropOrphanKeyResults()
	return nil
}

func (a *Allocator) redistribute(set *Set, reason string) {
	Redistribute(set)
	a.logger.Info("common weightage redistributed",
		zap.String("template_id", string(set.TemplateID)),
		zap.String("reason", reason),
		zap.Int("teams", len(set.Teams)),
		zap.String("common_budget", set.Budget.Common.String()),
	)
}

// mutate runs one locked load/modify/validate/save cycle. Inside a
// transaction, fn receives the transactional snapshot store when the
// transaction's Store provides one.
func (a *Allocator) mutate(ctx context.Context, id TemplateID, fn func(*Set, SnapshotStore) error) (*Set, error) {
	unlock := a.lock(id)
	defer unlock()

	var saved *Set
	run := func(st Store) error {
		current, err := st.Load(ctx, id)
		switch {
		case err == nil:
			current = current.Clone()
		case IsNotFound(err):
			current = NewSet(id)
		default:
			return fmt.Errorf("failed to load allocations for %s: %w", id, err)
		}

		snaps := a.snapshots
		if ss, ok := st.(SnapshotStore); ok && snaps != nil {
			snaps = ss
		}
		if err := fn(current, snaps); err != nil {
			return err
		}
		if err := Validate(current); err != nil {
			return err
		}
		current.Version++
		if err := st.Save(ctx, current); err != nil {
			return fmt.Errorf("failed to save allocations for %s: %w", id, err)
		}
		saved = current
		return nil
	}

	var err error
	if tx, ok := a.store.(TxStore); ok {
		err = tx.WithTx(ctx, run)
	} else {
		err = run(a.store)
	}
	if err != nil {
		a.logger.Debug("allocation change rejected", zap.String("template_id", string(id)), zap.Error(err))
		return nil, err
	}
	return saved, nil
}
