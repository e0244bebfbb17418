/*
store.go - Persistence interfaces for allocation sets

KEY INTERFACES:
  Store:         Load and save the allocation set of one objective template
  SnapshotStore: Team allocations parked per department, restored when the
                 template is moved back to that department
  TxStore:       Store with all-or-nothing writes

IMPLEMENTATIONS:
  - allocation/store/memory.go: In-memory, for tests and demos
  - store/sqlite/allocation.go: SQLite
*/
package allocation

import (
	"context"
	"errors"

	"github.com/warp/appraisal-engine/appraisal"
	"github.com/warp/appraisal-engine/okr"
)

var (
	// ErrSetNotFound is returned by Store.Load when a template has no allocations yet.
	ErrSetNotFound = errors.New("allocation set not found")

	ErrTeamNotFound      = errors.New("team not allocated")
	ErrKeyResultNotFound = errors.New("key result allocation not found")
)

// IsNotFound reports whether err is one of the lookup errors above.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSetNotFound) ||
		errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrKeyResultNotFound)
}

// Store persists allocation sets. Save replaces the whole set.
type Store interface {
	Load(ctx context.Context, id TemplateID) (*Set, error)
	Save(ctx context.Context, set *Set) error
}

// SnapshotStore keeps one team allocation snapshot per (template, department).
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, id TemplateID, dept appraisal.DepartmentID, teams []TeamAllocation) error

	// LoadSnapshot returns false when the department has no snapshot.
	LoadSnapshot(ctx context.Context, id TemplateID, dept appraisal.DepartmentID) ([]TeamAllocation, bool, error)
}

// TxStore is a Store whose writes can be grouped.
// If fn returns an error, every write made through the Store it received
// is rolled back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// ObjectiveSource looks up the objective template owning an allocation set.
// It returns okr.ErrTemplateNotFound for sets without a registered template.
type ObjectiveSource interface {
	ObjectiveTemplate(ctx context.Context, id string) (*okr.ObjectiveTemplate, error)
}
