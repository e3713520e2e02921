package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/crdt"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/server/storage"
)

// SaveObject creates or updates a canvas object row.
// The write is guarded by the same last-write-wins rule the clients use:
// a replayed stale operation loses here exactly as on any other replica.
// Returns true if the row was written, false if the stored row is newer.
func (s *Storage) SaveObject(ctx context.Context, row *storage.ObjectRow) (bool, error) {
	// Проверяем существующую строку
	existing, err := s.GetObject(ctx, row.CanvasID, row.ObjectID)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return false, fmt.Errorf("failed to check existing row: %w", err)
	}

	if existing != nil {
		// Тот же resolver, что и на клиентах: устаревшая запись отклоняется
		stamp := models.VersionStamp{
			Version:   row.Version,
			Timestamp: row.Timestamp,
			ActorID:   row.ActorID,
		}
		if !crdt.ShouldApplyRemote(existing.Metadata(), stamp) {
			return false, nil
		}

		query := `
			UPDATE canvas_objects
			SET payload = ?, version = ?, timestamp = ?,
			    actor_id = ?, actor_name = ?, actor_color = ?, deleted = ?
			WHERE canvas_id = ? AND object_id = ?
		`

		_, err := s.db.ExecContext(ctx, query,
			row.Payload,
			row.Version,
			row.Timestamp,
			row.ActorID,
			row.ActorName,
			row.ActorColor,
			boolToInt(row.Deleted),
			row.CanvasID,
			row.ObjectID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update row: %w", err)
		}

		return true, nil
	}

	// Создаем новую строку
	query := `
		INSERT INTO canvas_objects (
			canvas_id, object_id, payload, version, timestamp,
			actor_id, actor_name, actor_color, deleted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		row.CanvasID,
		row.ObjectID,
		row.Payload,
		row.Version,
		row.Timestamp,
		row.ActorID,
		row.ActorName,
		row.ActorColor,
		boolToInt(row.Deleted),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert row: %w", err)
	}

	return true, nil
}

// GetObject retrieves a canvas object row, tombstones included
func (s *Storage) GetObject(ctx context.Context, canvasID, objectID string) (*storage.ObjectRow, error) {
	query := `
		SELECT canvas_id, object_id, payload, version, timestamp,
		       actor_id, actor_name, actor_color, deleted
		FROM canvas_objects
		WHERE canvas_id = ? AND object_id = ?
	`

	row, err := scanObjectRow(s.db.QueryRowContext(ctx, query, canvasID, objectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get row: %w", err)
	}

	return row, nil
}

// ListObjects returns all live rows of a canvas ordered by object id
func (s *Storage) ListObjects(ctx context.Context, canvasID string) ([]*storage.ObjectRow, error) {
	query := `
		SELECT canvas_id, object_id, payload, version, timestamp,
		       actor_id, actor_name, actor_color, deleted
		FROM canvas_objects
		WHERE canvas_id = ? AND deleted = 0
		ORDER BY object_id
	`

	rows, err := s.db.QueryContext(ctx, query, canvasID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	defer rows.Close()

	var result []*storage.ObjectRow
	for rows.Next() {
		row, err := scanObjectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return result, nil
}

// DeleteCanvas removes all rows of a canvas, tombstones included
func (s *Storage) DeleteCanvas(ctx context.Context, canvasID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM canvas_objects WHERE canvas_id = ?`, canvasID)
	if err != nil {
		return fmt.Errorf("failed to delete canvas rows: %w", err)
	}

	return nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanObjectRow читает одну строку canvas_objects
func scanObjectRow(scanner rowScanner) (*storage.ObjectRow, error) {
	row := &storage.ObjectRow{}
	var deleted int

	err := scanner.Scan(
		&row.CanvasID,
		&row.ObjectID,
		&row.Payload,
		&row.Version,
		&row.Timestamp,
		&row.ActorID,
		&row.ActorName,
		&row.ActorColor,
		&deleted,
	)
	if err != nil {
		return nil, err
	}

	row.Deleted = deleted != 0
	return row, nil
}

// boolToInt конвертирует bool в SQLite integer
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
