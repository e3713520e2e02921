package cli

import (
	"context"
	"fmt"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/sync"
	serverstorage "github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/server/storage"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/pkg/api"
)

// Cli bundles the per-canvas engine and the backing row store the demo
// commands operate on.
type Cli struct {
	engine   *sync.Engine
	store    serverstorage.CanvasStore
	canvasID string
}

// New creates a new Cli instance.
func New(engine *sync.Engine, store serverstorage.CanvasStore, canvasID string) *Cli {
	return &Cli{
		engine:   engine,
		store:    store,
		canvasID: canvasID,
	}
}

// PrintUsage выводит справку по командам
func PrintUsage() {
	fmt.Println("Usage: canvas-client [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  demo     Create a few objects and sync them to the backing store")
	fmt.Println("  status   Show live objects and pending queued operations")
	fmt.Println("  replay   Re-transmit queued operations to the backing store")
	fmt.Println("  flush    Write the current canvas snapshot to local storage")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -db      Path to local BoltDB database")
	fmt.Println("  -store   Path to SQLite backing store")
	fmt.Println("  -canvas  Canvas identifier")
	fmt.Println("  -actor   Actor identifier")
	fmt.Println("  -name    Actor display name")
}

// StoreTransmitter returns a transmitter that persists accepted events into
// the backing row store, the way the broadcast collaborator's durable side
// would.
func StoreTransmitter(store serverstorage.CanvasStore, canvasID string) sync.TransmitFunc {
	return func(ctx context.Context, event api.Event) error {
		row := &serverstorage.ObjectRow{
			CanvasID:   canvasID,
			ObjectID:   event.ObjectID,
			Payload:    event.Payload,
			Version:    event.Version,
			Timestamp:  event.Timestamp,
			ActorID:    event.ActorID,
			ActorName:  event.ActorName,
			ActorColor: event.ActorColor,
			Deleted:    event.Kind == api.EventDelete,
		}

		// Вердикт строки (записана или отклонена как устаревшая) для
		// отправителя значения не имеет: передача состоялась
		if _, err := store.SaveObject(ctx, row); err != nil {
			return fmt.Errorf("failed to persist event: %w", err)
		}

		return nil
	}
}
