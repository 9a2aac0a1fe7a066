// Package events fans out board changes to subscribers of a project.
package events

import "sync"

// Event types published after a successful mutation.
const (
	CardCreated     = "card.created"
	CardUpdated     = "card.updated"
	CardMoved       = "card.moved"
	CardDeleted     = "card.deleted"
	BoardCreated    = "board.created"
	BoardUpdated    = "board.updated"
	BoardsReordered = "board.reordered"
	BoardDeleted    = "board.deleted"
)

// Event describes one change inside a project.
type Event struct {
	Type      string `json:"type"`
	ProjectID int64  `json:"projectId"`
	BoardID   int64  `json:"boardId,omitempty"`
	CardID    int64  `json:"cardId,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Bus is an in-process publish/subscribe hub keyed by project id. Slow
// subscribers miss events instead of blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int64]map[chan Event]struct{}
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int64]map[chan Event]struct{})}
}

// Subscribe registers a listener for projectID. The returned cancel func
// unregisters it and closes the channel.
func (b *Bus) Subscribe(projectID int64) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.subs[projectID] == nil {
		b.subs[projectID] = make(map[chan Event]struct{})
	}
	b.subs[projectID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs, ok := b.subs[projectID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, projectID)
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber of ev.ProjectID.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[ev.ProjectID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
