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

func testOp(objectID string, version int64, kind models.OpKind) *models.QueuedOperation {
	op := &models.QueuedOperation{
		ID:        objectID + "-op",
		CanvasID:  "canvas-1",
		Kind:      kind,
		ObjectID:  objectID,
		Version:   version,
		Timestamp: time.Now().UnixMilli(),
		ActorID:   "actor-a",
	}

	if kind != models.OpDelete {
		op.Object = &models.CanvasObject{ID: objectID, Type: "rect", Width: 10, Height: 10}
	}

	return op
}

func TestEnqueueLoadQueue_FIFOOrder(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	ops := []*models.QueuedOperation{
		testOp("obj1", 1, models.OpCreate),
		testOp("obj2", 2, models.OpCreate),
		testOp("obj1", 3, models.OpUpdate),
		testOp("obj2", 4, models.OpDelete),
	}

	for _, op := range ops {
		require.NoError(t, store.Enqueue(ctx, "canvas-1", op))
	}

	loaded, state, err := store.LoadQueue(ctx, "canvas-1")
	require.NoError(t, err)
	assert.Equal(t, storage.LoadOK, state)
	require.Len(t, loaded, len(ops))

	// Порядок строго FIFO, без переупорядочивания и коалесинга
	for i, op := range ops {
		assert.Equal(t, op.ObjectID, loaded[i].ObjectID, "position %d", i)
		assert.Equal(t, op.Version, loaded[i].Version, "position %d", i)
		assert.Equal(t, op.Kind, loaded[i].Kind, "position %d", i)
	}
}

func TestEnqueue_SurvivesReopen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := tmpDir + "/canvas-client.db"
	ctx := context.Background()

	store, err := New(ctx, dbPath)
	require.NoError(t, err)

	require.NoError(t, store.Enqueue(ctx, "canvas-1", testOp("obj1", 1, models.OpCreate)))
	require.NoError(t, store.Enqueue(ctx, "canvas-1", testOp("obj1", 2, models.OpUpdate)))

	// Симулируем crash: закрываем и открываем базу заново
	require.NoError(t, store.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, reopened.Close()) }()

	loaded, state, err := reopened.LoadQueue(ctx, "canvas-1")
	require.NoError(t, err)
	assert.Equal(t, storage.LoadOK, state)
	require.Len(t, loaded, 2, "no drops, no duplicates after reopen")
	assert.Equal(t, int64(1), loaded[0].Version)
	assert.Equal(t, int64(2), loaded[1].Version)
}

func TestDequeueAcknowledged_ByIdentityNotPosition(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := testOp("obj1", 1, models.OpCreate)
	second := testOp("obj2", 2, models.OpCreate)
	third := testOp("obj1", 3, models.OpUpdate)

	for _, op := range []*models.QueuedOperation{first, second, third} {
		require.NoError(t, store.Enqueue(ctx, "canvas-1", op))
	}

	// Подтверждаем среднюю операцию — завершение передачи может идти
	// не в порядке очереди
	require.NoError(t, store.DequeueAcknowledged(ctx, "canvas-1", second))

	loaded, _, err := store.LoadQueue(ctx, "canvas-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "obj1", loaded[0].ObjectID)
	assert.Equal(t, int64(1), loaded[0].Version)
	assert.Equal(t, "obj1", loaded[1].ObjectID)
	assert.Equal(t, int64(3), loaded[1].Version)
}

func TestDequeueAcknowledged_MissingIsNoop(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, "canvas-1", testOp("obj1", 1, models.OpCreate)))

	// Подтверждение несуществующей операции не трогает очередь
	require.NoError(t, store.DequeueAcknowledged(ctx, "canvas-1", testOp("obj9", 9, models.OpDelete)))

	loaded, _, err := store.LoadQueue(ctx, "canvas-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestDequeueAcknowledged_RemovesSingleMatch(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// Две операции с одинаковой идентичностью — удаляется только одна
	op := testOp("obj1", 5, models.OpUpdate)
	require.NoError(t, store.Enqueue(ctx, "canvas-1", op))
	require.NoError(t, store.Enqueue(ctx, "canvas-1", op.Clone()))

	require.NoError(t, store.DequeueAcknowledged(ctx, "canvas-1", op))

	loaded, _, err := store.LoadQueue(ctx, "canvas-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestLoadQueue_Empty(t *testing.T) {
	store := newTestStorage(t)

	loaded, state, err := store.LoadQueue(context.Background(), "missing-canvas")
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.Equal(t, storage.LoadEmpty, state)
}

func TestLoadQueue_Corrupt(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueues).Put([]byte("canvas-1"), []byte("[{broken"))
	})
	require.NoError(t, err)

	loaded, state, err := store.LoadQueue(ctx, "canvas-1")
	require.NoError(t, err, "corrupt payload must not be an error")
	assert.Empty(t, loaded)
	assert.Equal(t, storage.LoadCorrupt, state)
}

func TestClearQueue(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, "canvas-1", testOp("obj1", 1, models.OpCreate)))
	require.NoError(t, store.ClearQueue(ctx, "canvas-1"))

	loaded, state, err := store.LoadQueue(ctx, "canvas-1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.Equal(t, storage.LoadEmpty, state)
}

func TestQueue_IsolatedPerCanvas(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, "canvas-1", testOp("obj1", 1, models.OpCreate)))

	loaded, state, err := store.LoadQueue(ctx, "canvas-2")
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.Equal(t, storage.LoadEmpty, state)
}
