package appraisal

import (
	"context"
	"sync"
)

// EmployeeLookup resolves an employee descriptor by identifier.
// Organizational records live outside the engine; this is the only view
// the engine has of them.
type EmployeeLookup interface {
	Employee(ctx context.Context, id EmployeeID) (*Employee, error)
}

// StaticDirectory is an in-memory EmployeeLookup for tests and simulations.
// The zero value is an empty directory ready for Put.
type StaticDirectory struct {
	mu        sync.RWMutex
	employees map[EmployeeID]Employee
}

func NewStaticDirectory(employees ...Employee) *StaticDirectory {
	d := &StaticDirectory{employees: make(map[EmployeeID]Employee, len(employees))}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

// Put adds or replaces an employee.
func (d *StaticDirectory) Put(e Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.employees == nil {
		d.employees = make(map[EmployeeID]Employee)
	}
	d.employees[e.ID] = e
}

func (d *StaticDirectory) Employee(_ context.Context, id EmployeeID) (*Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &e, nil
}
