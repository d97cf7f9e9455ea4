package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"sheets/internal/grid"
)

func _createTmpBolt(t *testing.T) *BoltStore {
	t.Helper()
	store, err := OpenBolt(filepath.Join(t.TempDir(), "sheets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("save_and_load", func(t *testing.T) {
		data := grid.Snapshot{"0-0": "5", "0-1": "=SUM(A1:A1)"}
		require.NoError(t, store.Save(ctx, "sheet1", data))

		loaded, err := store.Load(ctx, "sheet1")
		require.NoError(t, err)
		assert.Equal(t, data, loaded)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "sheet2", grid.Snapshot{"0-0": "a"}))
		require.NoError(t, store.Save(ctx, "sheet2", grid.Snapshot{"1-1": "b"}))

		loaded, err := store.Load(ctx, "sheet2")
		require.NoError(t, err)
		assert.Equal(t, grid.Snapshot{"1-1": "b"}, loaded)
	})

	t.Run("copies_in_and_out", func(t *testing.T) {
		data := grid.Snapshot{"0-0": "x"}
		require.NoError(t, store.Save(ctx, "sheet3", data))
		data["0-0"] = "changed"

		loaded, err := store.Load(ctx, "sheet3")
		require.NoError(t, err)
		assert.Equal(t, "x", loaded["0-0"])

		loaded["0-0"] = "changed again"
		again, err := store.Load(ctx, "sheet3")
		require.NoError(t, err)
		assert.Equal(t, "x", again["0-0"])
	})

	t.Run("empty_sheet", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "empty", nil))

		loaded, err := store.Load(ctx, "empty")
		require.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Empty(t, loaded)
	})

	t.Run("not_found", func(t *testing.T) {
		loaded, err := store.Load(ctx, "not-exists")
		assert.ErrorIs(t, err, ErrSheetNotFound)
		assert.Nil(t, loaded)
	})

	t.Run("empty_id", func(t *testing.T) {
		assert.ErrorIs(t, store.Save(ctx, "", grid.Snapshot{}), ErrEmptyID)
	})

	t.Run("canceled_context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, store.Save(canceled, "sheet1", grid.Snapshot{}), context.Canceled)
		_, err := store.Load(canceled, "sheet1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	testStore(t, store)

	ids, err := store.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "sheet1", "sheet2", "sheet3"}, ids)
}

func TestBoltStore(t *testing.T) {
	store := _createTmpBolt(t)
	testStore(t, store)

	ids, err := store.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "sheet1", "sheet2", "sheet3"}, ids)
}

func TestBoltStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sheets.db")

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "sheet1", grid.Snapshot{"2-3": "hello, world"}))
	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Close())

	// re-open DB to ensure it stored at disk
	store, err = OpenBolt(path)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx, "sheet1")
	require.NoError(t, err)
	assert.Equal(t, grid.Snapshot{"2-3": "hello, world"}, loaded)
}

func TestBoltStore_CorruptValue(t *testing.T) {
	store := _createTmpBolt(t)

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sheetsBucket).Put([]byte("broken"), []byte{'C', 'U'})
	})
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSheetNotFound)
	assert.Contains(t, err.Error(), "decode broken")
}

func TestOpenBolt_Fail(t *testing.T) {
	_, err := OpenBolt(t.TempDir())
	assert.Error(t, err)
}
