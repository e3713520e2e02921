package sync

import (
	"encoding/json"
	"fmt"

	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/pkg/api"
)

// eventFromOperation конвертирует буферизованную операцию в исходящее
// wire-событие. Payload сериализуется в JSON; delete-операции идут без
// payload.
func eventFromOperation(op *models.QueuedOperation) (*api.Event, error) {
	event := &api.Event{
		ObjectID:   op.ObjectID,
		Kind:       string(op.Kind),
		Version:    op.Version,
		ActorID:    op.ActorID,
		ActorName:  op.ActorName,
		ActorColor: op.ActorColor,
		Timestamp:  op.Timestamp,
	}

	if op.Object != nil {
		payload, err := json.Marshal(op.Object)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal object payload: %w", err)
		}
		event.Payload = payload
	}

	return event, nil
}

// objectFromPayload разбирает payload входящего события в CanvasObject.
// Идентификатор объекта всегда берется из конверта события.
func objectFromPayload(event api.Event) (*models.CanvasObject, error) {
	if len(event.Payload) == 0 {
		return nil, fmt.Errorf("event %s/%s has no payload", event.Kind, event.ObjectID)
	}

	obj := &models.CanvasObject{}
	if err := json.Unmarshal(event.Payload, obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal object payload: %w", err)
	}

	obj.ID = event.ObjectID
	return obj, nil
}
