package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/appraisal-engine/appraisal"
)

// =============================================================================
// RESULT HISTORY
// =============================================================================

// ResultStateConfirmed is the only state a stored result can have; drafts
// live in the caller until they are confirmed.
const ResultStateConfirmed = "confirmed"

// ResultRecord is one confirmed computation.
type ResultRecord struct {
	ID              string               `json:"id"`
	Reference       string               `json:"reference"`
	EmployeeID      appraisal.EmployeeID `json:"employee_id"`
	MasterID        appraisal.MasterID   `json:"master_id"`
	Functional      decimal.Decimal      `json:"functional_score"`
	Role            decimal.Decimal      `json:"role_score"`
	Common          decimal.Decimal      `json:"common_score"`
	FinalPercentage decimal.Decimal      `json:"final_percentage"`
	RatingLabel     string               `json:"rating_label"`
	Result          json.RawMessage      `json:"result"`
	State           string               `json:"state"`
	ComputedAt      time.Time            `json:"computed_at"`
}

// NewResultRecord builds a record from a computed result. The reference
// reads AR-<employee>-<date>.
func NewResultRecord(res *appraisal.Result, at time.Time) (*ResultRecord, error) {
	data, err := res.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	at = at.UTC().Truncate(time.Second)
	return &ResultRecord{
		ID:              uuid.NewString(),
		Reference:       fmt.Sprintf("AR-%s-%s", res.EmployeeID, at.Format("2006-01-02")),
		EmployeeID:      res.EmployeeID,
		MasterID:        res.MasterID,
		Functional:      res.Functional.Percent,
		Role:            res.Role.Percent,
		Common:          res.Common.Percent,
		FinalPercentage: res.FinalPercentage,
		RatingLabel:     res.RatingLabel,
		Result:          data,
		State:           ResultStateConfirmed,
		ComputedAt:      at,
	}, nil
}

// SaveResult stores a confirmed result.
func (s *Store) SaveResult(ctx context.Context, rec *ResultRecord) error {
	if rec.EmployeeID == "" {
		return &appraisal.InputValidationError{Message: "a stored result needs an employee_id"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (id, reference, employee_id, master_id, functional_score, role_score,
			common_score, final_percentage, rating_label, result_json, state, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Reference, rec.EmployeeID, rec.MasterID,
		rec.Functional.String(), rec.Role.String(), rec.Common.String(),
		rec.FinalPercentage.String(), nullString(rec.RatingLabel), string(rec.Result),
		rec.State, rec.ComputedAt.Format(time.RFC3339))
	if isUniqueConstraintError(err) {
		return fmt.Errorf("result %s already stored", rec.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// ListResults returns an employee's results, newest first.
func (s *Store) ListResults(ctx context.Context, employeeID appraisal.EmployeeID) ([]*ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, employee_id, master_id, functional_score, role_score, common_score,
			final_percentage, COALESCE(rating_label, ''), result_json, state, computed_at
		FROM results
		WHERE employee_id = ?
		ORDER BY computed_at DESC, id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ResultRecord
	for rows.Next() {
		var (
			rec                           ResultRecord
			functional, role, common      string
			final, resultJSON, computedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.EmployeeID, &rec.MasterID,
			&functional, &role, &common, &final, &rec.RatingLabel, &resultJSON, &rec.State, &computedAt); err != nil {
			return nil, err
		}
		rec.Functional = parseDecimal(functional)
		rec.Role = parseDecimal(role)
		rec.Common = parseDecimal(common)
		rec.FinalPercentage = parseDecimal(final)
		rec.Result = json.RawMessage(resultJSON)
		rec.ComputedAt = parseTime(computedAt)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
