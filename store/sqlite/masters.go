package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/appraisal-engine/appraisal"
)

// =============================================================================
// MASTER CONFIGURATIONS
// =============================================================================

// MasterRecord is a stored master configuration with its bookkeeping and
// the most recent simulation run against it.
type MasterRecord struct {
	Master         *appraisal.MasterConfiguration `json:"master"`
	Version        int                            `json:"version"`
	LastSimulation *SimulationRecord              `json:"last_simulation,omitempty"`
	CreatedAt      time.Time                      `json:"created_at"`
	UpdatedAt      time.Time                      `json:"updated_at"`
}

// SimulationRecord is the persisted summary of a preview.
type SimulationRecord struct {
	FinalPercentage decimal.Decimal `json:"final_percentage"`
	RatingLabel     string          `json:"rating_label"`
	Snapshot        json.RawMessage `json:"snapshot"`
	SimulatedAt     time.Time       `json:"simulated_at"`
}

// SaveMaster validates and stores a master configuration. Saving an
// existing id bumps its version.
func (s *Store) SaveMaster(ctx context.Context, m *appraisal.MasterConfiguration) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to serialize master %s: %w", m.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO masters (id, name, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			version = masters.version + 1,
			updated_at = excluded.updated_at
	`, m.ID, m.Name, string(data), ts, ts)
	if err != nil {
		return fmt.Errorf("failed to save master %s: %w", m.ID, err)
	}
	return nil
}

// GetMaster retrieves a master configuration by ID.
func (s *Store) GetMaster(ctx context.Context, id appraisal.MasterID) (*MasterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT config_json, version, last_sim_json, last_sim_final, last_sim_rating, last_sim_at, created_at, updated_at
		FROM masters WHERE id = ?
	`, id)
	rec, err := scanMaster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("master %s: %w", id, appraisal.ErrMasterNotFound)
	}
	return rec, err
}

// ListMasters returns every stored master ordered by id.
func (s *Store) ListMasters(ctx context.Context) ([]*MasterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT config_json, version, last_sim_json, last_sim_final, last_sim_rating, last_sim_at, created_at, updated_at
		FROM masters ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*MasterRecord
	for rows.Next() {
		rec, err := scanMaster(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteMaster removes a master configuration.
func (s *Store) DeleteMaster(ctx context.Context, id appraisal.MasterID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM masters WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("master %s: %w", id, appraisal.ErrMasterNotFound)
	}
	return nil
}

// SaveSimulation records a preview as the master's last simulation.
func (s *Store) SaveSimulation(ctx context.Context, id appraisal.MasterID, sim *appraisal.Simulation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE masters SET
			last_sim_json = ?,
			last_sim_final = ?,
			last_sim_rating = ?,
			last_sim_at = ?
		WHERE id = ?
	`, string(sim.Snapshot), sim.FinalPercentage.String(), sim.RatingLabel, now(), id)
	if err != nil {
		return fmt.Errorf("failed to save simulation for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("master %s: %w", id, appraisal.ErrMasterNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaster(row rowScanner) (*MasterRecord, error) {
	var (
		configJSON           string
		simJSON, simFinal    sql.NullString
		simRating, simAt     sql.NullString
		createdAt, updatedAt string
		rec                  MasterRecord
	)
	err := row.Scan(&configJSON, &rec.Version, &simJSON, &simFinal, &simRating, &simAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var m appraisal.MasterConfiguration
	if err := json.Unmarshal([]byte(configJSON), &m); err != nil {
		return nil, fmt.Errorf("corrupt master configuration: %w", err)
	}
	rec.Master = &m
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)

	if simJSON.Valid {
		rec.LastSimulation = &SimulationRecord{
			FinalPercentage: parseDecimal(simFinal.String),
			RatingLabel:     simRating.String,
			Snapshot:        json.RawMessage(simJSON.String),
			SimulatedAt:     parseTime(simAt.String),
		}
	}
	return &rec, nil
}
