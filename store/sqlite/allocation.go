package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warp/appraisal-engine/allocation"
	"github.com/warp/appraisal-engine/appraisal"
)

// =============================================================================
// ALLOCATION STORE - implements allocation.TxStore and allocation.SnapshotStore
// =============================================================================

// AllocationStore persists OKR allocation sets in the parent database.
type AllocationStore struct {
	parent *Store
}

// Allocations returns the allocation view of the store.
func (s *Store) Allocations() *AllocationStore {
	return &AllocationStore{parent: s}
}

func (a *AllocationStore) Load(ctx context.Context, id allocation.TemplateID) (*allocation.Set, error) {
	a.parent.mu.RLock()
	defer a.parent.mu.RUnlock()
	return loadSet(ctx, a.parent.db, id)
}

func (a *AllocationStore) Save(ctx context.Context, set *allocation.Set) error {
	a.parent.mu.Lock()
	defer a.parent.mu.Unlock()
	return saveSet(ctx, a.parent.db, set)
}

func (a *AllocationStore) SaveSnapshot(ctx context.Context, id allocation.TemplateID, dept appraisal.DepartmentID, teams []allocation.TeamAllocation) error {
	a.parent.mu.Lock()
	defer a.parent.mu.Unlock()
	return saveSnapshot(ctx, a.parent.db, id, dept, teams)
}

func (a *AllocationStore) LoadSnapshot(ctx context.Context, id allocation.TemplateID, dept appraisal.DepartmentID) ([]allocation.TeamAllocation, bool, error) {
	a.parent.mu.RLock()
	defer a.parent.mu.RUnlock()
	return loadSnapshot(ctx, a.parent.db, id, dept)
}

// WithTx executes fn within a transaction. The store handed to fn also
// implements allocation.SnapshotStore, so snapshots written during fn
// commit or roll back with the set.
func (a *AllocationStore) WithTx(ctx context.Context, fn func(allocation.Store) error) error {
	a.parent.mu.Lock()
	defer a.parent.mu.Unlock()

	tx, err := a.parent.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&allocationTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// allocationTx wraps a transaction. It never touches the parent mutex,
// which WithTx already holds.
type allocationTx struct {
	tx *sql.Tx
}

func (t *allocationTx) Load(ctx context.Context, id allocation.TemplateID) (*allocation.Set, error) {
	return loadSet(ctx, t.tx, id)
}

func (t *allocationTx) Save(ctx context.Context, set *allocation.Set) error {
	return saveSet(ctx, t.tx, set)
}

func (t *allocationTx) SaveSnapshot(ctx context.Context, id allocation.TemplateID, dept appraisal.DepartmentID, teams []allocation.TeamAllocation) error {
	return saveSnapshot(ctx, t.tx, id, dept, teams)
}

func (t *allocationTx) LoadSnapshot(ctx context.Context, id allocation.TemplateID, dept appraisal.DepartmentID) ([]allocation.TeamAllocation, bool, error) {
	return loadSnapshot(ctx, t.tx, id, dept)
}

// =============================================================================
// QUERIES (shared by the plain and transactional views)
// =============================================================================

func loadSet(ctx context.Context, q execer, id allocation.TemplateID) (*allocation.Set, error) {
	var data string
	err := q.QueryRowContext(ctx, `
		SELECT set_json FROM allocation_sets WHERE template_id = ?
	`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("allocation %s: %w", id, allocation.ErrSetNotFound)
	}
	if err != nil {
		return nil, err
	}

	var set allocation.Set
	if err := json.Unmarshal([]byte(data), &set); err != nil {
		return nil, fmt.Errorf("corrupt allocation set %s: %w", id, err)
	}
	return &set, nil
}

func saveSet(ctx context.Context, q execer, set *allocation.Set) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to serialize allocation set %s: %w", set.TemplateID, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO allocation_sets (template_id, department_id, set_json, version, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(template_id) DO UPDATE SET
			department_id = excluded.department_id,
			set_json = excluded.set_json,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, set.TemplateID, nullString(string(set.DepartmentID)), string(data), set.Version, now())
	if err != nil {
		return fmt.Errorf("failed to save allocation set %s: %w", set.TemplateID, err)
	}
	return nil
}

func saveSnapshot(ctx context.Context, q execer, id allocation.TemplateID, dept appraisal.DepartmentID, teams []allocation.TeamAllocation) error {
	data, err := json.Marshal(teams)
	if err != nil {
		return fmt.Errorf("failed to serialize team snapshot: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO allocation_snapshots (template_id, department_id, teams_json, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(template_id, department_id) DO UPDATE SET
			teams_json = excluded.teams_json,
			created_at = excluded.created_at
	`, id, dept, string(data), now())
	if err != nil {
		return fmt.Errorf("failed to save team snapshot for %s/%s: %w", id, dept, err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, q execer, id allocation.TemplateID, dept appraisal.DepartmentID) ([]allocation.TeamAllocation, bool, error) {
	var data string
	err := q.QueryRowContext(ctx, `
		SELECT teams_json FROM allocation_snapshots WHERE template_id = ? AND department_id = ?
	`, id, dept).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var teams []allocation.TeamAllocation
	if err := json.Unmarshal([]byte(data), &teams); err != nil {
		return nil, false, fmt.Errorf("corrupt team snapshot for %s/%s: %w", id, dept, err)
	}
	return teams, true, nil
}
