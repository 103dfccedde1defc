package engine

// EventType names a side effect the simulation asks its host to perform
type EventType string

const (
	EventPush            EventType = "push"
	EventRefresh         EventType = "refresh"
	EventDestroyed       EventType = "destroyed"
	EventCollect         EventType = "collect"
	EventLevelTransition EventType = "level_transition"
	EventDialog          EventType = "dialog"
	EventWin             EventType = "win"
)

// Event is emitted during a tick. The engine never plays audio, redraws or
// changes scenes itself; listeners do.
type Event struct {
	Type     EventType  `json:"type"`
	EntityID uint64     `json:"entity_id,omitempty"`
	TileType TileType   `json:"tile_type,omitempty"`
	Position Position   `json:"position"`
	Target   string     `json:"target,omitempty"`
	Speaker  string     `json:"speaker,omitempty"`
	Text     string     `json:"text,omitempty"`
	Outcome  WinOutcome `json:"outcome,omitempty"`
}

// CollectibleRecorder persists one-time collectibles across plays of a level
type CollectibleRecorder interface {
	RecordCollectible(levelID string, kind TileType, pos Position) error
	IsCollected(levelID string, kind TileType, pos Position) bool
}

func (s *Simulation) emit(ev Event) {
	if s.tick != nil {
		s.tick.events = append(s.tick.events, ev)
	}
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// refresh signals that an entity's capability changed and needs redrawing
func (s *Simulation) refresh(e *Entity) {
	s.emit(Event{Type: EventRefresh, EntityID: e.ID, TileType: e.Type, Position: e.Pos})
}
