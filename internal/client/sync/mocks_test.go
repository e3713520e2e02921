package sync

import (
	"context"
	"sync"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/storage"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/pkg/api"
)

// TransmitterMock is a mock implementation of Transmitter for tests.
type TransmitterMock struct {
	SendFunc func(ctx context.Context, event api.Event) error

	mu    sync.Mutex
	calls []api.Event
}

// Send implements Transmitter.
func (m *TransmitterMock) Send(ctx context.Context, event api.Event) error {
	m.mu.Lock()
	m.calls = append(m.calls, event)
	m.mu.Unlock()

	if m.SendFunc == nil {
		return nil
	}
	return m.SendFunc(ctx, event)
}

// SendCalls returns the events passed to Send in call order.
func (m *TransmitterMock) SendCalls() []api.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]api.Event, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// queueStorageFake is an in-memory QueueStorage used to simulate the durable
// queue across engine "restarts" within one test.
type queueStorageFake struct {
	mu         sync.Mutex
	queues     map[string][]*models.QueuedOperation
	loadStates map[string]storage.LoadState
	enqueueErr error
}

func newQueueStorageFake() *queueStorageFake {
	return &queueStorageFake{
		queues:     make(map[string][]*models.QueuedOperation),
		loadStates: make(map[string]storage.LoadState),
	}
}

func (f *queueStorageFake) Enqueue(ctx context.Context, canvasID string, op *models.QueuedOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.enqueueErr != nil {
		return f.enqueueErr
	}

	f.queues[canvasID] = append(f.queues[canvasID], op.Clone())
	return nil
}

func (f *queueStorageFake) DequeueAcknowledged(ctx context.Context, canvasID string, op *models.QueuedOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ops := f.queues[canvasID]
	for i, queued := range ops {
		if queued.Matches(op) {
			f.queues[canvasID] = append(append([]*models.QueuedOperation{}, ops[:i]...), ops[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *queueStorageFake) LoadQueue(ctx context.Context, canvasID string) ([]*models.QueuedOperation, storage.LoadState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if state, ok := f.loadStates[canvasID]; ok {
		return nil, state, nil
	}

	ops, ok := f.queues[canvasID]
	if !ok || len(ops) == 0 {
		return nil, storage.LoadEmpty, nil
	}

	result := make([]*models.QueuedOperation, len(ops))
	for i, op := range ops {
		result[i] = op.Clone()
	}
	return result, storage.LoadOK, nil
}

func (f *queueStorageFake) ClearQueue(ctx context.Context, canvasID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.queues, canvasID)
	return nil
}

// snapshotStorageFake is an in-memory SnapshotStorage.
type snapshotStorageFake struct {
	mu         sync.Mutex
	saved      map[string]*models.Snapshot
	loadStates map[string]storage.LoadState
	saveErr    error
}

func newSnapshotStorageFake() *snapshotStorageFake {
	return &snapshotStorageFake{
		saved:      make(map[string]*models.Snapshot),
		loadStates: make(map[string]storage.LoadState),
	}
}

func (f *snapshotStorageFake) SaveSnapshot(ctx context.Context, canvasID string, snap *models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}

	f.saved[canvasID] = snap
	return nil
}

func (f *snapshotStorageFake) LoadSnapshot(ctx context.Context, canvasID string) (*models.Snapshot, storage.LoadState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if state, ok := f.loadStates[canvasID]; ok {
		return nil, state, nil
	}

	snap, ok := f.saved[canvasID]
	if !ok {
		return nil, storage.LoadEmpty, nil
	}
	return snap, storage.LoadOK, nil
}

func (f *snapshotStorageFake) ClearSnapshot(ctx context.Context, canvasID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.saved, canvasID)
	return nil
}

func (f *snapshotStorageFake) lastSaved(canvasID string) *models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.saved[canvasID]
}
