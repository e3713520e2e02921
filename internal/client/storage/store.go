package storage

import (
	"context"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
)

// LoadState distinguishes the outcome of reading a persisted blob.
// A corrupt payload is treated as absence by callers, but the two cases
// stay distinguishable for logging and tests.
type LoadState int

const (
	// LoadOK indicates the payload was present and parsed successfully
	LoadOK LoadState = iota
	// LoadEmpty indicates no payload exists for the key
	LoadEmpty
	// LoadCorrupt indicates the payload exists but failed to parse
	LoadCorrupt
)

// String returns a human-readable load state name.
func (s LoadState) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadEmpty:
		return "empty"
	case LoadCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

//go:generate moq -out snapshots_mock.go . SnapshotStorage

// SnapshotStorage defines interface for the durable canvas snapshot slot.
// One slot per canvas; save overwrites, no history is kept.
type SnapshotStorage interface {
	// SaveSnapshot serializes and overwrites the snapshot slot for the canvas
	SaveSnapshot(ctx context.Context, canvasID string, snap *models.Snapshot) error

	// LoadSnapshot returns the last saved snapshot.
	// A missing slot yields (nil, LoadEmpty, nil); an unparseable payload
	// yields (nil, LoadCorrupt, nil); corruption is never an error.
	LoadSnapshot(ctx context.Context, canvasID string) (*models.Snapshot, LoadState, error)

	// ClearSnapshot removes the snapshot slot for the canvas
	ClearSnapshot(ctx context.Context, canvasID string) error
}

//go:generate moq -out queue_mock.go . QueueStorage

// QueueStorage defines interface for the durable per-canvas operation queue.
// The queue holds local intent that has not been acknowledged by the
// transmit path yet; ordering is strictly FIFO per canvas.
type QueueStorage interface {
	// Enqueue appends the operation to the tail of the persisted list.
	// The full list is persisted before Enqueue returns, so a crash right
	// after a local edit cannot silently drop the operation.
	Enqueue(ctx context.Context, canvasID string, op *models.QueuedOperation) error

	// DequeueAcknowledged removes one operation whose objectID+version+kind
	// match the given one. Removal is by identity, not position, because
	// concurrent local edits may complete transmission out of order.
	DequeueAcknowledged(ctx context.Context, canvasID string, op *models.QueuedOperation) error

	// LoadQueue returns the persisted list in original FIFO order.
	// A missing or unparseable payload yields an empty list with the
	// corresponding LoadState, never an error.
	LoadQueue(ctx context.Context, canvasID string) ([]*models.QueuedOperation, LoadState, error)

	// ClearQueue removes the whole queue slot for the canvas
	ClearQueue(ctx context.Context, canvasID string) error
}
