package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/appraisal-engine/appraisal"
)

// =============================================================================
// EMPLOYEE DIRECTORY - implements appraisal.EmployeeLookup
// =============================================================================

// SaveEmployee creates or updates an employee record.
func (s *Store) SaveEmployee(ctx context.Context, emp appraisal.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, department_id, job_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			department_id = excluded.department_id,
			job_id = excluded.job_id
	`, emp.ID, emp.Name, nullString(string(emp.DepartmentID)), nullString(string(emp.JobID)), now())
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

// Employee retrieves an employee by ID.
func (s *Store) Employee(ctx context.Context, id appraisal.EmployeeID) (*appraisal.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp appraisal.Employee
	var dept, job sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, department_id, job_id FROM employees WHERE id = ?
	`, id).Scan(&emp.ID, &emp.Name, &dept, &job)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, appraisal.ErrEmployeeNotFound)
	}
	if err != nil {
		return nil, err
	}
	emp.DepartmentID = appraisal.DepartmentID(dept.String)
	emp.JobID = appraisal.JobID(job.String)
	return &emp, nil
}

// ListEmployees returns every employee ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]appraisal.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, department_id, job_id FROM employees ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []appraisal.Employee
	for rows.Next() {
		var emp appraisal.Employee
		var dept, job sql.NullString
		if err := rows.Scan(&emp.ID, &emp.Name, &dept, &job); err != nil {
			return nil, err
		}
		emp.DepartmentID = appraisal.DepartmentID(dept.String)
		emp.JobID = appraisal.JobID(job.String)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}
