package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/storage"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/crdt"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/pkg/api"
)

// Engine errors
var (
	// ErrEngineClosed indicates the engine was already closed
	ErrEngineClosed = errors.New("sync engine is closed")

	// ErrUnknownOpKind indicates an unsupported mutation kind
	ErrUnknownOpKind = errors.New("unknown operation kind")

	// ErrMissingPayload indicates a create/update mutation without an object
	ErrMissingPayload = errors.New("mutation payload is required")

	// ErrMissingObjectID indicates a delete mutation without an object id
	ErrMissingObjectID = errors.New("object id is required")
)

const defaultSnapshotDebounce = 500 * time.Millisecond

//go:generate moq -out transmitter_mock.go . Transmitter

// Transmitter delivers outbound events to the broadcast collaborator.
// The transport itself lives outside this core.
type Transmitter interface {
	// Send transmits one event; an error leaves the operation queued
	Send(ctx context.Context, event api.Event) error
}

// TransmitFunc adapts a plain function to the Transmitter interface.
type TransmitFunc func(ctx context.Context, event api.Event) error

// Send implements Transmitter.
func (f TransmitFunc) Send(ctx context.Context, event api.Event) error {
	return f(ctx, event)
}

// Mutation describes one locally originated edit before it is stamped.
type Mutation struct {
	Kind     models.OpKind        // Kind тип мутации
	Object   *models.CanvasObject // Object полный payload (для create/update)
	ObjectID string               // ObjectID идентификатор (для delete; для create/update берется из Object)
}

// Config configures one per-canvas engine instance.
type Config struct {
	CanvasID         string        // CanvasID идентификатор канваса/сессии
	Actor            models.Actor  // Actor локальная идентичность редактора
	SnapshotDebounce time.Duration // SnapshotDebounce задержка отложенной записи snapshot (0 = default)
	ReplayMaxRetries uint64        // ReplayMaxRetries число повторов передачи одной операции при replay
}

// Engine владеет авторитативной in-memory таблицей объектов канваса и
// версионными метаданными. Локальные правки применяются оптимистично и
// буферизуются в durable-очереди до подтверждения передачи; удаленные
// события проходят через conflict resolver и применяются либо молча
// отбрасываются. Один Engine обслуживает одну canvas-сессию — глобальных
// синглтонов нет, все зависимости передаются явно.
type Engine struct {
	cfg         Config
	clock       *crdt.LamportClock
	snapshots   storage.SnapshotStorage
	queue       storage.QueueStorage
	transmitter Transmitter
	logger      *slog.Logger

	mu        sync.Mutex
	objects   map[string]*models.CanvasObject
	meta      map[string]*models.ObjectMetadata
	snapTimer *time.Timer
	closed    bool
}

// NewEngine creates a per-canvas sync engine.
// transmitter may be nil: local edits then stay queued until replay.
func NewEngine(
	cfg Config,
	snapshots storage.SnapshotStorage,
	queue storage.QueueStorage,
	transmitter Transmitter,
	logger *slog.Logger,
) *Engine {
	if cfg.SnapshotDebounce <= 0 {
		cfg.SnapshotDebounce = defaultSnapshotDebounce
	}
	if cfg.ReplayMaxRetries == 0 {
		cfg.ReplayMaxRetries = 3
	}

	return &Engine{
		cfg:         cfg,
		clock:       crdt.NewLamportClock(),
		snapshots:   snapshots,
		queue:       queue,
		transmitter: transmitter,
		logger:      logger,
		objects:     make(map[string]*models.CanvasObject),
		meta:        make(map[string]*models.ObjectMetadata),
	}
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *crdt.LamportClock {
	return e.clock
}

// ApplyLocal stamps a local mutation with the next logical clock value and
// actor metadata, applies it to in-memory state immediately, persists it to
// the durable operation queue and attempts transmission. A transmit failure
// leaves the operation queued for a later replay; a persistence failure only
// degrades durability and is logged, the in-memory state stays authoritative.
// Returns the stamped outbound event.
func (e *Engine) ApplyLocal(ctx context.Context, mut Mutation) (*api.Event, error) {
	if !mut.Kind.Valid() {
		return nil, ErrUnknownOpKind
	}

	objectID := mut.ObjectID
	if mut.Kind == models.OpDelete {
		if objectID == "" {
			return nil, ErrMissingObjectID
		}
	} else {
		if mut.Object == nil {
			return nil, ErrMissingPayload
		}
		if mut.Object.ID == "" {
			mut.Object.ID = uuid.NewString()
		}
		objectID = mut.Object.ID
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}

	// Проставляем версию и метаданные актора
	version := e.clock.Tick()
	now := time.Now().UnixMilli()

	// Оптимистичное применение: UI никогда не видит промежуточного состояния
	switch mut.Kind {
	case models.OpCreate, models.OpUpdate:
		e.objects[objectID] = mut.Object.Clone()
	case models.OpDelete:
		delete(e.objects, objectID)
	}

	// Метаданные удаленного объекта сохраняются как tombstone: опоздавший
	// устаревший update будет отклонен resolver-ом, а не воскресит объект
	e.meta[objectID] = &models.ObjectMetadata{
		Version:         version,
		LastEditedAt:    now,
		LastEditedBy:    e.cfg.Actor.ID,
		LastEditedName:  e.cfg.Actor.Name,
		LastEditedColor: e.cfg.Actor.Color,
		Deleted:         mut.Kind == models.OpDelete,
	}

	op := &models.QueuedOperation{
		ID:         uuid.NewString(),
		CanvasID:   e.cfg.CanvasID,
		Kind:       mut.Kind,
		ObjectID:   objectID,
		Version:    version,
		Timestamp:  now,
		ActorID:    e.cfg.Actor.ID,
		ActorName:  e.cfg.Actor.Name,
		ActorColor: e.cfg.Actor.Color,
	}
	if mut.Kind != models.OpDelete {
		op.Object = mut.Object.Clone()
	}
	e.mu.Unlock()

	// Сначала фиксируем намерение в durable-очереди, затем передаем
	if err := e.queue.Enqueue(ctx, e.cfg.CanvasID, op); err != nil {
		e.logger.Warn("Failed to persist queued operation, durability degraded",
			"object_id", objectID,
			"version", version,
			"error", err)
	}

	event, err := eventFromOperation(op)
	if err != nil {
		return nil, err
	}

	e.transmit(ctx, event, op)
	e.scheduleSnapshot()

	return event, nil
}

// transmit отправляет событие и подтверждает операцию в очереди при успехе.
func (e *Engine) transmit(ctx context.Context, event *api.Event, op *models.QueuedOperation) {
	if e.transmitter == nil {
		return
	}

	if err := e.transmitter.Send(ctx, *event); err != nil {
		// Операция остается в очереди до следующего replay
		e.logger.Warn("Transmit failed, operation stays queued",
			"object_id", op.ObjectID,
			"version", op.Version,
			"error", err)
		return
	}

	if err := e.queue.DequeueAcknowledged(ctx, e.cfg.CanvasID, op); err != nil {
		e.logger.Warn("Failed to acknowledge queued operation",
			"object_id", op.ObjectID,
			"version", op.Version,
			"error", err)
	}
}

// ApplyRemote advances the clock past the event's version, consults the
// conflict resolver and either applies the payload or silently discards the
// event. A discard is not an error: it is the expected outcome under
// concurrent editing. Returns true if the event was applied.
func (e *Engine) ApplyRemote(ctx context.Context, event api.Event) (bool, error) {
	// Часы продвигаются по каждой увиденной версии, даже отклоненной
	e.clock.Observe(event.Version)

	stamp := models.VersionStamp{
		Version:   event.Version,
		Timestamp: event.Timestamp,
		ActorID:   event.ActorID,
	}

	var obj *models.CanvasObject
	if event.Kind != api.EventDelete {
		parsed, err := objectFromPayload(event)
		if err != nil {
			// Битый payload трактуем как отсутствие события
			e.logger.Warn("Discarding remote event with malformed payload",
				"object_id", event.ObjectID,
				"error", err)
			return false, nil
		}
		obj = parsed
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false, ErrEngineClosed
	}

	if !crdt.ShouldApplyRemote(e.meta[event.ObjectID], stamp) {
		e.mu.Unlock()
		e.logger.Debug("Discarding stale remote event",
			"object_id", event.ObjectID,
			"version", event.Version,
			"actor_id", event.ActorID)
		return false, nil
	}

	switch event.Kind {
	case api.EventCreate, api.EventUpdate:
		e.objects[event.ObjectID] = obj
	case api.EventDelete:
		delete(e.objects, event.ObjectID)
	default:
		e.mu.Unlock()
		e.logger.Warn("Discarding remote event of unknown kind", "kind", event.Kind)
		return false, nil
	}

	e.meta[event.ObjectID] = &models.ObjectMetadata{
		Version:         event.Version,
		LastEditedAt:    event.Timestamp,
		LastEditedBy:    event.ActorID,
		LastEditedName:  event.ActorName,
		LastEditedColor: event.ActorColor,
		Deleted:         event.Kind == api.EventDelete,
	}
	e.mu.Unlock()

	e.scheduleSnapshot()

	return true, nil
}

// FlushSnapshot immediately writes the full in-memory state to the durable
// snapshot slot, bypassing the debounce.
func (e *Engine) FlushSnapshot(ctx context.Context) error {
	e.mu.Lock()
	snap := models.NewSnapshot()
	for id, obj := range e.objects {
		snap.Objects[id] = obj.Clone()
	}
	for id, meta := range e.meta {
		snap.Meta[id] = meta.Clone()
	}
	e.mu.Unlock()

	return e.snapshots.SaveSnapshot(ctx, e.cfg.CanvasID, snap)
}

// scheduleSnapshot откладывает запись snapshot, сбрасывая таймер при
// каждой новой мутации (debounce).
func (e *Engine) scheduleSnapshot() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	if e.snapTimer != nil {
		e.snapTimer.Stop()
	}

	e.snapTimer = time.AfterFunc(e.cfg.SnapshotDebounce, func() {
		if err := e.FlushSnapshot(context.Background()); err != nil {
			e.logger.Warn("Debounced snapshot save failed", "error", err)
		}
	})
}

// Object returns a copy of the live object with the given id.
func (e *Engine) Object(id string) (*models.CanvasObject, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj, ok := e.objects[id]
	if !ok {
		return nil, false
	}

	return obj.Clone(), true
}

// Objects returns copies of all live objects keyed by id.
func (e *Engine) Objects() map[string]*models.CanvasObject {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make(map[string]*models.CanvasObject, len(e.objects))
	for id, obj := range e.objects {
		result[id] = obj.Clone()
	}

	return result
}

// Metadata returns a copy of the version metadata for the given object,
// including tombstones of deleted objects.
func (e *Engine) Metadata(id string) (*models.ObjectMetadata, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	meta, ok := e.meta[id]
	if !ok {
		return nil, false
	}

	return meta.Clone(), true
}

// PendingCount returns the number of queued, not yet acknowledged local
// operations for this canvas.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	ops, _, err := e.queue.LoadQueue(ctx, e.cfg.CanvasID)
	if err != nil {
		return 0, err
	}

	return len(ops), nil
}

// Close stops the debounce timer and writes a final snapshot.
// The engine rejects further mutations after Close.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true

	if e.snapTimer != nil {
		e.snapTimer.Stop()
		e.snapTimer = nil
	}
	e.mu.Unlock()

	return e.FlushSnapshot(ctx)
}
