// Package region fans packets out to the observers of a region.
package region

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
)

// Delivery is a packet addressed to the region it was broadcast from.
type Delivery struct {
	Region mob.RegionID
	Packet packet.Packet
}

// Subscription is one observer's buffered packet stream.
type Subscription struct {
	id      uint64
	regions map[mob.RegionID]bool
	ch      chan Delivery
}

// C returns the delivery channel. It is closed by Unsubscribe.
func (s *Subscription) C() <-chan Delivery { return s.ch }

// Hub delivers packets broadcast from a region to every subscription watching
// that region or one of its neighbours. Delivery never blocks the broadcaster:
// when a subscription's buffer is full the packet is dropped for that observer.
// All methods are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
	logger *zap.Logger
}

// NewHub creates a Hub whose subscriptions buffer up to buffer packets.
//
// Precondition: buffer >= 1; logger must be non-nil.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		panic("region.NewHub: buffer must be >= 1")
	}
	return &Hub{subs: make(map[uint64]*Subscription), buffer: buffer, logger: logger}
}

// Subscribe registers an observer of regions. An empty list observes everything.
func (h *Hub) Subscribe(regions ...mob.RegionID) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	s := &Subscription{id: h.nextID, ch: make(chan Delivery, h.buffer)}
	if len(regions) > 0 {
		s.regions = make(map[mob.RegionID]bool, len(regions))
		for _, r := range regions {
			s.regions[r] = true
		}
	}
	h.subs[s.id] = s
	return s
}

// Unsubscribe removes s and closes its channel. Unknown subscriptions are ignored.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	close(s.ch)
}

// Broadcast delivers p, originating in region r, to every observer of r or its
// surrounding regions.
//
// Postcondition: Returns the number of observers that received p.
func (h *Hub) Broadcast(r mob.RegionID, p packet.Packet) int {
	visible := make(map[mob.RegionID]bool, 9)
	for _, n := range r.Surrounding() {
		visible[n] = true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, s := range h.subs {
		if s.regions != nil && !watches(s.regions, visible) {
			continue
		}
		select {
		case s.ch <- Delivery{Region: r, Packet: p}:
			delivered++
		default:
			h.logger.Warn("region observer buffer full, dropping packet",
				zap.Uint64("subscription", s.id),
				zap.Stringer("opcode", p.Opcode()),
			)
		}
	}
	return delivered
}

func watches(watched, visible map[mob.RegionID]bool) bool {
	for r := range watched {
		if visible[r] {
			return true
		}
	}
	return false
}
