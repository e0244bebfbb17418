/*
Package sqlite persists employees, masters, results and allocations in SQLite.

PURPOSE:
  Persists everything around the scoring core: the employee directory,
  master configurations (with their last simulation), the result history,
  and OKR allocation sets. The core itself never performs I/O; this
  package is what the API and CLI hand to it.

INTERFACES IMPLEMENTED:
  appraisal.EmployeeLookup:   Store.Employee
  allocation.TxStore:         Store.Allocations()
  allocation.SnapshotStore:   Store.Allocations()
  allocation.ObjectiveSource: Store.ObjectiveTemplate

KEY TABLES:
  employees:            Directory records (department, job)
  masters:              Master configuration JSON, versioned, plus last simulation
  results:              Computation history (one row per confirmed result)
  allocation_sets:      OKR allocation set JSON per objective template
  objective_templates:  OKR objective templates and their declared key results
  allocation_snapshots: Team allocations parked per (template, department)

CONCURRENCY:
  One RWMutex guards the handle. Allocation writes hold it for the whole
  SQL transaction, so a rejected change never persists. File databases use
  WAL; ":memory:" is pinned to a single connection.

USAGE:
  store, err := sqlite.New("./data/appraisal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := appraisal.NewEngine(master)
  sim, err := engine.Simulate(ctx, "emp-1", payload, store)

Tables are created on New() with CREATE TABLE IF NOT EXISTS; there are
no versioned migrations yet.

SEE ALSO:
  - allocation/store.go: Allocation interface definitions
  - allocation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Store is the SQLite handle shared by the API and the CLI.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees (directory view used for template resolution)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department_id TEXT,
		job_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_department
		ON employees(department_id);

	-- Master configurations
	CREATE TABLE IF NOT EXISTS masters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		last_sim_json TEXT,
		last_sim_final TEXT,
		last_sim_rating TEXT,
		last_sim_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Result history
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		master_id TEXT NOT NULL,
		functional_score TEXT NOT NULL,
		role_score TEXT NOT NULL,
		common_score TEXT NOT NULL,
		final_percentage TEXT NOT NULL,
		rating_label TEXT,
		result_json TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'confirmed',
		computed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_employee_date
		ON results(employee_id, computed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_results_master
		ON results(master_id);

	-- OKR allocation sets (one per objective template)
	CREATE TABLE IF NOT EXISTS allocation_sets (
		template_id TEXT PRIMARY KEY,
		department_id TEXT,
		set_json TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- OKR objective templates (own the allocation set with the same id)
	CREATE TABLE IF NOT EXISTS objective_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department_id TEXT,
		template_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Team allocations parked when a template changes department
	CREATE TABLE IF NOT EXISTS allocation_snapshots (
		template_id TEXT NOT NULL,
		department_id TEXT NOT NULL,
		teams_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (template_id, department_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset deletes every row. Scenario loading calls it first.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"results", "allocation_snapshots", "allocation_sets", "objective_templates", "masters", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
