package storage

import (
	"context"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
)

// ObjectRow одна строка backing-хранилища: последнее принятое состояние
// объекта канваса вместе с версионными метаданными. Payload хранится как
// непрозрачный JSON blob; удаленные объекты остаются строками-tombstone.
type ObjectRow struct {
	CanvasID   string // CanvasID идентификатор канваса
	ObjectID   string // ObjectID идентификатор объекта
	Payload    []byte // Payload сериализованный CanvasObject (nil для tombstone)
	Version    int64  // Version Lamport clock последней принятой записи
	Timestamp  int64  // Timestamp wall-clock unix millis
	ActorID    string // ActorID последний редактор
	ActorName  string // ActorName отображаемое имя
	ActorColor string // ActorColor цвет актора
	Deleted    bool   // Deleted флаг tombstone
}

// Metadata returns the row's version metadata in resolver form.
func (r *ObjectRow) Metadata() *models.ObjectMetadata {
	return &models.ObjectMetadata{
		Version:         r.Version,
		LastEditedAt:    r.Timestamp,
		LastEditedBy:    r.ActorID,
		LastEditedName:  r.ActorName,
		LastEditedColor: r.ActorColor,
		Deleted:         r.Deleted,
	}
}

//go:generate moq -out canvas_mock.go . CanvasStore

// CanvasStore defines interface for the durable backing row store the
// clients converge through. Writes are guarded by the same per-object
// last-write-wins rule the clients use, so replayed stale operations are
// rejected here exactly as on any other replica.
type CanvasStore interface {
	// SaveObject creates or updates a row if the incoming version wins.
	// Returns true if the row was written, false if the stored row is newer.
	SaveObject(ctx context.Context, row *ObjectRow) (bool, error)

	// GetObject retrieves a row (tombstones included).
	// Returns ErrObjectNotFound if no row exists.
	GetObject(ctx context.Context, canvasID, objectID string) (*ObjectRow, error)

	// ListObjects returns all live rows of a canvas ordered by object id
	ListObjects(ctx context.Context, canvasID string) ([]*ObjectRow, error)

	// DeleteCanvas removes all rows of a canvas, tombstones included
	DeleteCanvas(ctx context.Context, canvasID string) error
}
