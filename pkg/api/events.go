package api

import "encoding/json"

// Event kinds mirrored over the broadcast channel
const (
	EventCreate = "create"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Event представляет одно изменение объекта канваса, передаваемое через
// broadcast-канал. Входящие и исходящие события имеют одинаковую форму.
// Payload отсутствует у delete-событий.
type Event struct {
	ObjectID   string          `json:"object_id"`
	Kind       string          `json:"kind"` // create | update | delete
	Payload    json.RawMessage `json:"payload,omitempty"`
	Version    int64           `json:"version"`
	ActorID    string          `json:"actor_id"`
	ActorName  string          `json:"actor_name,omitempty"`
	ActorColor string          `json:"actor_color,omitempty"`
	Timestamp  int64           `json:"timestamp"` // wall-clock unix millis
}
