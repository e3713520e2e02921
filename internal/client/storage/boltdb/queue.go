package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/storage"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
)

// Enqueue appends the operation to the tail of the persisted per-canvas
// queue. The whole list is written back within one transaction, so an
// interrupted process never loses an already-enqueued operation.
func (s *Storage) Enqueue(ctx context.Context, canvasID string, op *models.QueuedOperation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketQueues)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		// Читаем текущую очередь; битый payload начинает новую очередь
		ops := decodeQueue(bucket.Get([]byte(canvasID)))
		ops = append(ops, op)

		data, err := json.Marshal(ops)
		if err != nil {
			return fmt.Errorf("failed to marshal queue: %w", err)
		}

		if err := bucket.Put([]byte(canvasID), data); err != nil {
			return fmt.Errorf("failed to save queue: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("enqueue transaction failed: %w", err)
	}

	return nil
}

// DequeueAcknowledged removes one operation matching the given one by
// objectID+version+kind. Missing operations are a no-op: the ack may
// arrive after a replay already removed the entry.
func (s *Storage) DequeueAcknowledged(ctx context.Context, canvasID string, op *models.QueuedOperation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueues)
		if bucket == nil {
			return nil
		}

		ops := decodeQueue(bucket.Get([]byte(canvasID)))
		if len(ops) == 0 {
			return nil
		}

		// Удаляем первое совпадение по идентичности, сохраняя порядок остальных
		filtered := make([]*models.QueuedOperation, 0, len(ops))
		removed := false
		for _, queued := range ops {
			if !removed && queued.Matches(op) {
				removed = true
				continue
			}
			filtered = append(filtered, queued)
		}

		if !removed {
			return nil
		}

		data, err := json.Marshal(filtered)
		if err != nil {
			return fmt.Errorf("failed to marshal queue: %w", err)
		}

		if err := bucket.Put([]byte(canvasID), data); err != nil {
			return fmt.Errorf("failed to save queue: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("dequeue transaction failed: %w", err)
	}

	return nil
}

// LoadQueue returns the persisted queue in original FIFO order.
// Missing or corrupt payloads yield an empty list with the corresponding
// LoadState, never an error.
func (s *Storage) LoadQueue(ctx context.Context, canvasID string) ([]*models.QueuedOperation, storage.LoadState, error) {
	if s.db == nil {
		return nil, storage.LoadEmpty, storage.ErrStorageClosed
	}

	var (
		ops   []*models.QueuedOperation
		state = storage.LoadEmpty
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueues)
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte(canvasID))
		if data == nil {
			return nil
		}

		var loaded []*models.QueuedOperation
		if err := json.Unmarshal(data, &loaded); err != nil {
			state = storage.LoadCorrupt
			return nil
		}

		ops = loaded
		state = storage.LoadOK
		return nil
	})

	if err != nil {
		return nil, storage.LoadEmpty, fmt.Errorf("failed to load queue: %w", err)
	}

	return ops, state, nil
}

// ClearQueue removes the whole queue slot for the canvas
func (s *Storage) ClearQueue(ctx context.Context, canvasID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueues)
		if bucket == nil {
			return nil
		}

		return bucket.Delete([]byte(canvasID))
	})

	if err != nil {
		return fmt.Errorf("clear transaction failed: %w", err)
	}

	return nil
}

// decodeQueue разбирает сохраненную очередь; nil или битый payload
// трактуется как пустая очередь.
func decodeQueue(data []byte) []*models.QueuedOperation {
	if data == nil {
		return nil
	}

	var ops []*models.QueuedOperation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil
	}

	return ops
}
