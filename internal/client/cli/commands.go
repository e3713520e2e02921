package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/client/sync"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
)

// RunStatus prints the live object table and the pending queue length.
func (c *Cli) RunStatus(ctx context.Context) error {
	// Восстанавливаем локальное состояние и показываем его
	restored, err := c.engine.LoadLocalState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load local state: %w", err)
	}

	pending, err := c.engine.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending operations: %w", err)
	}

	objects := c.engine.Objects()

	fmt.Printf("Canvas:   %s\n", c.canvasID)
	fmt.Printf("Restored: %d entries from local snapshot\n", restored)
	fmt.Printf("Objects:  %d live\n", len(objects))
	fmt.Printf("Pending:  %d queued operations\n", pending)

	if len(objects) == 0 {
		return nil
	}

	// Сортируем для детерминированного вывода
	ids := make([]string, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println()
	for _, id := range ids {
		obj := objects[id]
		meta, _ := c.engine.Metadata(id)
		fmt.Printf("- %s %s at (%.0f, %.0f) v%d by %s\n",
			obj.Type, id, obj.X, obj.Y, meta.Version, meta.LastEditedName)
	}

	return nil
}

// RunDemo creates a few local objects and transmits them to the backing
// store, then deletes one to leave a tombstone behind.
func (c *Cli) RunDemo(ctx context.Context) error {
	if _, err := c.engine.LoadLocalState(ctx); err != nil {
		return fmt.Errorf("failed to load local state: %w", err)
	}

	rect := &models.CanvasObject{
		Type:   "rect",
		X:      100,
		Y:      100,
		Width:  200,
		Height: 120,
		Fill:   "#4f46e5",
	}
	rectEvent, err := c.engine.ApplyLocal(ctx, sync.Mutation{Kind: models.OpCreate, Object: rect})
	if err != nil {
		return fmt.Errorf("failed to create rect: %w", err)
	}
	fmt.Printf("Created %s v%d\n", rectEvent.ObjectID, rectEvent.Version)

	label := &models.CanvasObject{
		Type: "text",
		X:    120,
		Y:    140,
		Text: "hello, canvas",
	}
	labelEvent, err := c.engine.ApplyLocal(ctx, sync.Mutation{Kind: models.OpCreate, Object: label})
	if err != nil {
		return fmt.Errorf("failed to create label: %w", err)
	}
	fmt.Printf("Created %s v%d\n", labelEvent.ObjectID, labelEvent.Version)

	scratch := &models.CanvasObject{Type: "ellipse", X: 300, Y: 50, Width: 40, Height: 40}
	scratchEvent, err := c.engine.ApplyLocal(ctx, sync.Mutation{Kind: models.OpCreate, Object: scratch})
	if err != nil {
		return fmt.Errorf("failed to create scratch object: %w", err)
	}

	if _, err := c.engine.ApplyLocal(ctx, sync.Mutation{Kind: models.OpDelete, ObjectID: scratchEvent.ObjectID}); err != nil {
		return fmt.Errorf("failed to delete scratch object: %w", err)
	}
	fmt.Printf("Deleted %s (tombstone kept)\n", scratchEvent.ObjectID)

	if err := c.engine.FlushSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}

	stored, err := c.store.ListObjects(ctx, c.canvasID)
	if err != nil {
		return fmt.Errorf("failed to list backing store: %w", err)
	}
	fmt.Printf("Backing store now holds %d live objects\n", len(stored))

	return nil
}

// RunReplay re-transmits all queued operations to the backing store.
func (c *Cli) RunReplay(ctx context.Context) error {
	if _, err := c.engine.LoadLocalState(ctx); err != nil {
		return fmt.Errorf("failed to load local state: %w", err)
	}

	result, err := c.engine.LoadAndReplay(ctx, nil)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	fmt.Printf("Replayed %d operations, %d remaining\n", result.Replayed, result.Remaining)
	return nil
}

// RunFlush writes the current in-memory canvas to the local snapshot slot.
func (c *Cli) RunFlush(ctx context.Context) error {
	if _, err := c.engine.LoadLocalState(ctx); err != nil {
		return fmt.Errorf("failed to load local state: %w", err)
	}

	if err := c.engine.FlushSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}

	fmt.Println("Snapshot saved")
	return nil
}
