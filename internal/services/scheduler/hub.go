package scheduler

import (
	"log/slog"
	"sync"

	"github.com/fastprodman/drawengine/internal/draw"
)

// Hub fans completed settlement records out to subscribers. Publishing never
// blocks; a subscriber that falls behind misses records.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan draw.Record
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan draw.Record)}
}

// Subscribe returns a channel of records and a func that cancels the
// subscription and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan draw.Record, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++

	ch := make(chan draw.Record, buffer)
	h.subs[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *Hub) Publish(rec draw.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- rec:
		default:
			slog.Warn("settlement subscriber lagging, record dropped",
				"subscriber", id, "period_id", rec.PeriodID)
		}
	}
}
