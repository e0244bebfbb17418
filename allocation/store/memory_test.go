package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/appraisal-engine/allocation"
	"github.com/warp/appraisal-engine/allocation/store"
)

func TestMemory_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	_, err := mem.Load(ctx, "okr-1")
	assert.ErrorIs(t, err, allocation.ErrSetNotFound)

	set := allocation.NewSet("okr-1")
	set.Teams = append(set.Teams, allocation.TeamAllocation{TeamID: "a"})
	require.NoError(t, mem.Save(ctx, set))

	loaded, err := mem.Load(ctx, "okr-1")
	require.NoError(t, err)
	loaded.Teams[0].TeamID = "mutated"

	again, err := mem.Load(ctx, "okr-1")
	require.NoError(t, err)
	assert.Equal(t, allocation.TeamID("a"), again.Teams[0].TeamID)
}

func TestTxMemory_RollbackOnError(t *testing.T) {
	// GIVEN: A committed set and snapshot
	ctx := context.Background()
	mem := store.NewTxMemory()
	require.NoError(t, mem.Save(ctx, allocation.NewSet("okr-1")))
	require.NoError(t, mem.SaveSnapshot(ctx, "okr-1", "sales", nil))

	// WHEN: A transaction writes then fails
	boom := errors.New("boom")
	err := mem.WithTx(ctx, func(st allocation.Store) error {
		set := allocation.NewSet("okr-1")
		set.Version = 7
		if err := st.Save(ctx, set); err != nil {
			return err
		}
		snaps := st.(allocation.SnapshotStore)
		if err := snaps.SaveSnapshot(ctx, "okr-1", "engineering", []allocation.TeamAllocation{{TeamID: "x"}}); err != nil {
			return err
		}
		return boom
	})

	// THEN: Nothing from the transaction is visible
	assert.ErrorIs(t, err, boom)
	set, err := mem.Load(ctx, "okr-1")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Version)

	_, ok, err := mem.LoadSnapshot(ctx, "okr-1", "engineering")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTxMemory_Commit(t *testing.T) {
	ctx := context.Background()
	mem := store.NewTxMemory()

	err := mem.WithTx(ctx, func(st allocation.Store) error {
		set := allocation.NewSet("okr-2")
		set.Version = 1
		return st.Save(ctx, set)
	})
	require.NoError(t, err)

	set, err := mem.Load(ctx, "okr-2")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Version)
}
