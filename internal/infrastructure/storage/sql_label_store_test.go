package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"weld-inspector/internal/domain/entity"
)

func tempSQLiteStore(t *testing.T) *SQLLabelStore {
	t.Helper()
	store, err := NewSQLiteLabelStore(filepath.Join(t.TempDir(), "labels.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLLabelStore_AppendAndList(t *testing.T) {
	store := tempSQLiteStore(t)
	store.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	rows := []entity.LabeledExample{
		entity.NewNegativeExample("weld1.jpg"),
		entity.NewBoxExample("weld2.jpg", entity.Box{X: 10, Y: 20, Width: 30, Height: 40}, "porosity"),
		entity.NewBoxExample("weld2.jpg", entity.Box{X: 1.5, Y: 2, Width: 3, Height: 4}, "porosity"),
	}
	require.NoError(t, store.Append(ctx, rows...))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, rows, got)
	require.Equal(t, "sqlite", store.Driver())
}

func TestSQLLabelStore_InvalidBatchWritesNothing(t *testing.T) {
	store := tempSQLiteStore(t)
	ctx := context.Background()

	err := store.Append(ctx,
		entity.NewNegativeExample("weld1.jpg"),
		entity.LabeledExample{ImageName: "weld1.jpg"},
	)
	require.ErrorIs(t, err, entity.ErrValidation)

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSQLLabelStore_ClosedStoreFailsWithStoreWrite(t *testing.T) {
	store, err := NewSQLiteLabelStore(filepath.Join(t.TempDir(), "labels.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(context.Background(), entity.NewNegativeExample("weld1.jpg"))
	require.ErrorIs(t, err, entity.ErrStoreWrite)
}
