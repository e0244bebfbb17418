// Package store provides allocation Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/appraisal-engine/allocation"
	"github.com/warp/appraisal-engine/appraisal"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	sets      map[allocation.TemplateID]*allocation.Set
	snapshots map[snapshotKey][]allocation.TeamAllocation
}

type snapshotKey struct {
	TemplateID   allocation.TemplateID
	DepartmentID appraisal.DepartmentID
}

func NewMemory() *Memory {
	return &Memory{
		sets:      make(map[allocation.TemplateID]*allocation.Set),
		snapshots: make(map[snapshotKey][]allocation.TeamAllocation),
	}
}

// Load returns a copy of the stored set.
func (m *Memory) Load(_ context.Context, id allocation.TemplateID) (*allocation.Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadLocked(id)
}

func (m *Memory) loadLocked(id allocation.TemplateID) (*allocation.Set, error) {
	set, ok := m.sets[id]
	if !ok {
		return nil, allocation.ErrSetNotFound
	}
	return set.Clone(), nil
}

func (m *Memory) Save(_ context.Context, set *allocation.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[set.TemplateID] = set.Clone()
	return nil
}

func (m *Memory) SaveSnapshot(_ context.Context, id allocation.TemplateID, dept appraisal.DepartmentID, teams []allocation.TeamAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshotKey{id, dept}] = append([]allocation.TeamAllocation{}, teams...)
	return nil
}

func (m *Memory) LoadSnapshot(_ context.Context, id allocation.TemplateID, dept appraisal.DepartmentID) ([]allocation.TeamAllocation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	teams, ok := m.snapshots[snapshotKey{id, dept}]
	if !ok {
		return nil, false, nil
	}
	return append([]allocation.TeamAllocation{}, teams...), true, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TxMemory adds all-or-nothing writes to Memory.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx runs fn against copies of the maps and swaps them in only when
// fn returns nil.
func (tm *TxMemory) WithTx(_ context.Context, fn func(allocation.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	sets := make(map[allocation.TemplateID]*allocation.Set, len(tm.sets))
	for k, v := range tm.sets {
		sets[k] = v
	}
	snapshots := make(map[snapshotKey][]allocation.TeamAllocation, len(tm.snapshots))
	for k, v := range tm.snapshots {
		snapshots[k] = v
	}

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		// Rollback
		tm.sets = sets
		tm.snapshots = snapshots
		return err
	}
	return nil
}

// txMemoryView writes through to the parent, which already holds the lock.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) Load(_ context.Context, id allocation.TemplateID) (*allocation.Set, error) {
	return tv.parent.loadLocked(id)
}

func (tv *txMemoryView) Save(_ context.Context, set *allocation.Set) error {
	tv.parent.sets[set.TemplateID] = set.Clone()
	return nil
}

func (tv *txMemoryView) SaveSnapshot(_ context.Context, id allocation.TemplateID, dept appraisal.DepartmentID, teams []allocation.TeamAllocation) error {
	tv.parent.snapshots[snapshotKey{id, dept}] = append([]allocation.TeamAllocation{}, teams...)
	return nil
}

func (tv *txMemoryView) LoadSnapshot(_ context.Context, id allocation.TemplateID, dept appraisal.DepartmentID) ([]allocation.TeamAllocation, bool, error) {
	teams, ok := tv.parent.snapshots[snapshotKey{id, dept}]
	if !ok {
		return nil, false, nil
	}
	return append([]allocation.TeamAllocation{}, teams...), true, nil
}
