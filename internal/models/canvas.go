package models

import "time"

// OpKind тип локальной мутации объекта канваса.
type OpKind string

// Kinds of canvas mutations
const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Valid reports whether the kind is one of create/update/delete.
func (k OpKind) Valid() bool {
	return k == OpCreate || k == OpUpdate || k == OpDelete
}

// CanvasObject представляет один визуальный объект на канвасе.
// Владеет таблицей объектов только Sync Engine; все мутации проходят
// через его apply-методы.
type CanvasObject struct {
	ID          string   `json:"id"`                   // ID уникальный идентификатор объекта (UUID)
	Type        string   `json:"type"`                 // Type тип объекта: "rect", "ellipse", "line", "text", "group"
	X           float64  `json:"x"`                    // X позиция по горизонтали
	Y           float64  `json:"y"`                    // Y позиция по вертикали
	Width       float64  `json:"width"`                // Width ширина объекта
	Height      float64  `json:"height"`               // Height высота объекта
	Rotation    float64  `json:"rotation"`             // Rotation угол поворота в градусах
	Fill        string   `json:"fill,omitempty"`       // Fill цвет заливки
	Stroke      string   `json:"stroke,omitempty"`     // Stroke цвет обводки
	StrokeWidth float64  `json:"stroke_width,omitempty"`
	Text        string   `json:"text,omitempty"`       // Text текстовое содержимое (для текстовых объектов)
	ZIndex      int      `json:"z_index"`              // ZIndex порядок отрисовки
	Hidden      bool     `json:"hidden,omitempty"`     // Hidden флаг видимости
	Locked      bool     `json:"locked,omitempty"`     // Locked запрет редактирования в UI
	MemberIDs   []string `json:"member_ids,omitempty"` // MemberIDs идентификаторы членов группы (для составных объектов)
	GroupID     string   `json:"group_id,omitempty"`   // GroupID обратная ссылка на владеющую группу
}

// Clone создает глубокую копию объекта.
func (o *CanvasObject) Clone() *CanvasObject {
	clone := *o

	if o.MemberIDs != nil {
		clone.MemberIDs = make([]string, len(o.MemberIDs))
		copy(clone.MemberIDs, o.MemberIDs)
	}

	return &clone
}

// ObjectMetadata хранит версионные метаданные объекта: значение логических
// часов на момент последней принятой записи и информацию о последнем
// редакторе. Метаданные удаленных объектов сохраняются (tombstone),
// чтобы опоздавшие устаревшие апдейты не воскрешали объект.
type ObjectMetadata struct {
	Version         int64  `json:"version"`                     // Version значение Lamport clock последней принятой записи
	LastEditedAt    int64  `json:"last_edited_at,omitempty"`    // LastEditedAt wall-clock unix millis; 0 = неизвестно
	LastEditedBy    string `json:"last_edited_by"`              // LastEditedBy идентификатор актора
	LastEditedName  string `json:"last_edited_name,omitempty"`  // LastEditedName отображаемое имя (для UI)
	LastEditedColor string `json:"last_edited_color,omitempty"` // LastEditedColor цвет курсора актора (для UI)
	Deleted         bool   `json:"deleted,omitempty"`           // Deleted флаг tombstone
}

// Clone создает копию метаданных.
func (m *ObjectMetadata) Clone() *ObjectMetadata {
	clone := *m
	return &clone
}

// VersionStamp версионная отметка входящего удаленного изменения,
// передается в conflict resolver. Timestamp == 0 означает отсутствие
// wall-clock отметки; такое поле пропускается при сравнении.
type VersionStamp struct {
	Version   int64  // Version Lamport clock значение изменения
	Timestamp int64  // Timestamp wall-clock unix millis, 0 = отсутствует
	ActorID   string // ActorID идентификатор актора, создавшего изменение
}

// Actor identifies the user/session that originates local mutations.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

// QueuedOperation одна буферизованная локальная мутация, ожидающая
// подтверждения передачи. Очередь строго FIFO per canvas: операции
// передаются в порядке создания, без коалесинга.
type QueuedOperation struct {
	ID         string        `json:"id"`                    // ID уникальный идентификатор операции (UUID)
	CanvasID   string        `json:"canvas_id"`             // CanvasID идентификатор канваса
	Kind       OpKind        `json:"kind"`                  // Kind тип операции
	ObjectID   string        `json:"object_id"`             // ObjectID идентификатор объекта
	Object     *CanvasObject `json:"object,omitempty"`      // Object полный payload (nil для delete)
	Version    int64         `json:"version"`               // Version Lamport clock, проставленный при создании
	Timestamp  int64         `json:"timestamp"`             // Timestamp wall-clock unix millis
	ActorID    string        `json:"actor_id"`              // ActorID кто создал операцию
	ActorName  string        `json:"actor_name,omitempty"`  // ActorName отображаемое имя
	ActorColor string        `json:"actor_color,omitempty"` // ActorColor цвет актора
}

// Matches сравнивает операции по идентичности: объект + версия + тип.
// Используется при подтверждении передачи — удаление из очереди идет
// по совпадению, а не по позиции, так как конкурентные локальные правки
// могут завершаться не по порядку.
func (op *QueuedOperation) Matches(other *QueuedOperation) bool {
	return op.ObjectID == other.ObjectID &&
		op.Version == other.Version &&
		op.Kind == other.Kind
}

// Clone создает глубокую копию операции.
func (op *QueuedOperation) Clone() *QueuedOperation {
	clone := *op
	if op.Object != nil {
		clone.Object = op.Object.Clone()
	}
	return &clone
}

// Snapshot полное состояние канваса, записываемое в локальное
// durable-хранилище. Перезаписывается целиком (последний выигрывает),
// истории не хранит. Используется только как быстрый локальный кеш
// до прихода авторитативного состояния с сервера.
type Snapshot struct {
	SavedAt time.Time                  `json:"saved_at"`
	Objects map[string]*CanvasObject   `json:"objects"`
	Meta    map[string]*ObjectMetadata `json:"meta"`
}

// NewSnapshot создает пустой snapshot с текущим временем сохранения.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		SavedAt: time.Now(),
		Objects: make(map[string]*CanvasObject),
		Meta:    make(map[string]*ObjectMetadata),
	}
}
