// Package host carries the hosting-application boundary: events produced by
// the bridge (ready, property-change, status snapshots, frames) fan out to
// subscribers without ever blocking the producers.
package host

import (
	"sync"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/mpvbridge/internal/monitoring"
	"github.com/tr1v3r/mpvbridge/internal/player"
)

// Frame is one encoded video frame. Immutable once constructed.
type Frame struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	JPEG   string `json:"jpeg"` // base64-encoded
}

// Event kinds on the host bus.
const (
	EventReady          = "ready"
	EventPropertyChange = "property-change"
	EventStatus         = "status"
	EventFrame          = "frame"
)

type Event struct {
	Type   string         `json:"type"`
	Status *player.Status `json:"status,omitempty"`
	Frame  *Frame         `json:"frame,omitempty"`
}

const subscriberBuffer = 16

// Hub fans events out to subscribers. Publishing is fire-and-forget: a slow
// subscriber drops events, it never stalls the render or reader loops.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe returns a receive channel and a cancel func. The channel closes
// on cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if ch, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (h *Hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			if ev.Type == EventFrame {
				monitoring.GetMetrics().RecordFrameDropped()
			}
		}
	}
}

// Ready signals that engine initialization completed.
func (h *Hub) Ready() {
	log.Debug("host event: ready")
	h.publish(Event{Type: EventReady})
}

// PropertyChange is the coalesced "re-query status" notification.
func (h *Hub) PropertyChange() {
	h.publish(Event{Type: EventPropertyChange})
}

// Status publishes a playback snapshot.
func (h *Hub) Status(st player.Status) {
	h.publish(Event{Type: EventStatus, Status: &st})
}

// Frame publishes one encoded frame.
func (h *Hub) Frame(f Frame) {
	monitoring.GetMetrics().RecordFrameEmitted()
	h.publish(Event{Type: EventFrame, Frame: &f})
}
