package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/storage"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/crdt"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/pkg/api"
)

// ReplayResult contains queue replay results
type ReplayResult struct {
	Replayed  int // количество успешно переданных операций
	Remaining int // количество операций, оставшихся в очереди
}

// LoadLocalState restores the in-memory canvas from the durable snapshot.
// The snapshot is only a local cache: every object is reconciled through
// the same conflict resolver as remote-originated state, and every restored
// version is observed by the clock. A corrupt snapshot is treated as absent.
// Returns the number of restored objects (tombstones included).
func (e *Engine) LoadLocalState(ctx context.Context) (int, error) {
	snap, state, err := e.snapshots.LoadSnapshot(ctx, e.cfg.CanvasID)
	if err != nil {
		return 0, fmt.Errorf("failed to load snapshot: %w", err)
	}

	switch state {
	case storage.LoadEmpty:
		return 0, nil
	case storage.LoadCorrupt:
		e.logger.Warn("Snapshot payload is corrupt, starting from empty state",
			"canvas_id", e.cfg.CanvasID)
		return 0, nil
	}

	restored := 0

	e.mu.Lock()
	for id, meta := range snap.Meta {
		if meta == nil {
			continue
		}

		// Snapshot не источник истины: прогоняем каждый объект через
		// resolver против текущего состояния, как любое удаленное событие
		e.clock.Observe(meta.Version)

		stamp := models.VersionStamp{
			Version:   meta.Version,
			Timestamp: meta.LastEditedAt,
			ActorID:   meta.LastEditedBy,
		}
		if !crdt.ShouldApplyRemote(e.meta[id], stamp) {
			continue
		}

		if obj, ok := snap.Objects[id]; ok && !meta.Deleted {
			e.objects[id] = obj.Clone()
		} else {
			delete(e.objects, id)
		}
		e.meta[id] = meta.Clone()
		restored++
	}
	e.mu.Unlock()

	e.logger.Info("Restored canvas from local snapshot",
		"canvas_id", e.cfg.CanvasID,
		"objects", restored,
		"saved_at", snap.SavedAt)

	return restored, nil
}

// LoadAndReplay loads the persisted operation queue and re-transmits it in
// original FIFO order. Each operation is retried with exponential backoff
// and removed from the durable queue only after its transmit succeeds, so an
// interrupted replay leaves the remaining tail intact for the next attempt.
// The queue holds local intent: the sending side never consults the conflict
// resolver; receiving replicas decide what is still current.
// A nil transmit falls back to the engine's own transmitter.
func (e *Engine) LoadAndReplay(ctx context.Context, transmit Transmitter) (*ReplayResult, error) {
	if transmit == nil {
		transmit = e.transmitter
	}

	ops, state, err := e.queue.LoadQueue(ctx, e.cfg.CanvasID)
	if err != nil {
		return nil, fmt.Errorf("failed to load operation queue: %w", err)
	}

	if state == storage.LoadCorrupt {
		e.logger.Warn("Operation queue payload is corrupt, nothing to replay",
			"canvas_id", e.cfg.CanvasID)
		return &ReplayResult{}, nil
	}

	result := &ReplayResult{Remaining: len(ops)}
	if len(ops) == 0 {
		return result, nil
	}

	e.logger.Info("Replaying queued operations",
		"canvas_id", e.cfg.CanvasID,
		"count", len(ops))

	for _, op := range ops {
		event, err := eventFromOperation(op)
		if err != nil {
			return result, fmt.Errorf("failed to encode queued operation %s: %w", op.ID, err)
		}

		if err := e.transmitWithRetry(ctx, transmit, op, event); err != nil {
			// Оставшийся хвост очереди сохранен для следующего replay
			e.logger.Warn("Replay interrupted, remaining operations stay queued",
				"canvas_id", e.cfg.CanvasID,
				"replayed", result.Replayed,
				"remaining", result.Remaining,
				"error", err)
			return result, fmt.Errorf("replay interrupted at %s v%d: %w", op.ObjectID, op.Version, err)
		}

		// Убираем из durable-очереди только после успешной передачи
		if err := e.queue.DequeueAcknowledged(ctx, e.cfg.CanvasID, op); err != nil {
			e.logger.Warn("Failed to acknowledge replayed operation",
				"object_id", op.ObjectID,
				"version", op.Version,
				"error", err)
		}

		result.Replayed++
		result.Remaining--
	}

	e.logger.Info("Replay completed",
		"canvas_id", e.cfg.CanvasID,
		"replayed", result.Replayed)

	return result, nil
}

// transmitWithRetry передает одно событие с ограниченным экспоненциальным
// backoff; отмена контекста прерывает повторы.
func (e *Engine) transmitWithRetry(ctx context.Context, transmit Transmitter, op *models.QueuedOperation, event *api.Event) error {
	if transmit == nil {
		return fmt.Errorf("no transmitter configured for %s v%d", op.ObjectID, op.Version)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = 0 // ограничиваемся числом повторов

	send := func() error {
		return transmit.Send(ctx, *event)
	}

	return backoff.Retry(send, backoff.WithContext(
		backoff.WithMaxRetries(policy, e.cfg.ReplayMaxRetries), ctx))
}
