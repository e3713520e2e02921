package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/storage"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
)

// SaveSnapshot serializes and overwrites the snapshot slot for the canvas.
// Last write wins at the storage layer; no history is kept here.
func (s *Storage) SaveSnapshot(ctx context.Context, canvasID string, snap *models.Snapshot) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	// Сериализуем snapshot в JSON
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		// Один слот на канвас, перезаписываем целиком
		if err := bucket.Put([]byte(canvasID), data); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// LoadSnapshot returns the last saved snapshot for the canvas.
// A missing slot or an unparseable payload is not an error: the caller
// receives LoadEmpty / LoadCorrupt and treats both as absence.
func (s *Storage) LoadSnapshot(ctx context.Context, canvasID string) (*models.Snapshot, storage.LoadState, error) {
	if s.db == nil {
		return nil, storage.LoadEmpty, storage.ErrStorageClosed
	}

	var (
		snap  *models.Snapshot
		state = storage.LoadEmpty
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSnapshots)
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte(canvasID))
		if data == nil {
			return nil
		}

		// Десериализуем; битый payload считается отсутствием данных
		loaded := &models.Snapshot{}
		if err := json.Unmarshal(data, loaded); err != nil {
			state = storage.LoadCorrupt
			return nil
		}

		snap = loaded
		state = storage.LoadOK
		return nil
	})

	if err != nil {
		return nil, storage.LoadEmpty, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return snap, state, nil
}

// ClearSnapshot removes the snapshot slot for the canvas
func (s *Storage) ClearSnapshot(ctx context.Context, canvasID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSnapshots)
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
