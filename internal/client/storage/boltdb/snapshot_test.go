package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/storage"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
)

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		SavedAt: time.Now().Truncate(time.Millisecond),
		Objects: map[string]*models.CanvasObject{
			"obj1": {
				ID:     "obj1",
				Type:   "rect",
				X:      10,
				Y:      20,
				Width:  100,
				Height: 50,
				Fill:   "#ff0000",
				ZIndex: 1,
			},
		},
		Meta: map[string]*models.ObjectMetadata{
			"obj1": {
				Version:      5,
				LastEditedBy: "actor-a",
				LastEditedAt: 1700000000000,
			},
		},
	}
}

func TestSaveLoadSnapshot(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	snap := testSnapshot()
	require.NoError(t, store.SaveSnapshot(ctx, "canvas-1", snap))

	loaded, state, err := store.LoadSnapshot(ctx, "canvas-1")
	require.NoError(t, err)
	assert.Equal(t, storage.LoadOK, state)
	require.NotNil(t, loaded)

	require.Contains(t, loaded.Objects, "obj1")
	assert.Equal(t, snap.Objects["obj1"].Fill, loaded.Objects["obj1"].Fill)
	require.Contains(t, loaded.Meta, "obj1")
	assert.Equal(t, int64(5), loaded.Meta["obj1"].Version)
	assert.Equal(t, "actor-a", loaded.Meta["obj1"].LastEditedBy)
}

func TestSaveSnapshot_Overwrites(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := testSnapshot()
	require.NoError(t, store.SaveSnapshot(ctx, "canvas-1", first))

	// Второй snapshot полностью вытесняет первый, merge не делается
	second := models.NewSnapshot()
	second.Objects["obj2"] = &models.CanvasObject{ID: "obj2", Type: "text", Text: "hello"}
	second.Meta["obj2"] = &models.ObjectMetadata{Version: 1, LastEditedBy: "actor-b"}
	require.NoError(t, store.SaveSnapshot(ctx, "canvas-1", second))

	loaded, state, err := store.LoadSnapshot(ctx, "canvas-1")
	require.NoError(t, err)
	assert.Equal(t, storage.LoadOK, state)
	assert.NotContains(t, loaded.Objects, "obj1")
	assert.Contains(t, loaded.Objects, "obj2")
}

func TestLoadSnapshot_Empty(t *testing.T) {
	store := newTestStorage(t)

	loaded, state, err := store.LoadSnapshot(context.Background(), "missing-canvas")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.Equal(t, storage.LoadEmpty, state)
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// Пишем заведомо битый payload напрямую в bucket
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte("canvas-1"), []byte("{not json"))
	})
	require.NoError(t, err)

	loaded, state, err := store.LoadSnapshot(ctx, "canvas-1")
	require.NoError(t, err, "corrupt payload must not be an error")
	assert.Nil(t, loaded)
	assert.Equal(t, storage.LoadCorrupt, state)
}

func TestClearSnapshot(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, "canvas-1", testSnapshot()))
	require.NoError(t, store.ClearSnapshot(ctx, "canvas-1"))

	loaded, state, err := store.LoadSnapshot(ctx, "canvas-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.Equal(t, storage.LoadEmpty, state)

	// Повторная очистка — no-op
	require.NoError(t, store.ClearSnapshot(ctx, "canvas-1"))
}

func TestSnapshot_IsolatedPerCanvas(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, "canvas-1", testSnapshot()))

	loaded, state, err := store.LoadSnapshot(ctx, "canvas-2")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.Equal(t, storage.LoadEmpty, state)
}
