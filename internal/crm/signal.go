package crm

import "sync"

// Bus is the process-wide invalidation signal. Cache invalidation notifies
// every subscriber (unless explicitly suppressed) with no payload; consumers
// treat a tick purely as "your cached view may be stale, reconsider
// refetching."
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

// NewBus creates an empty signal bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan struct{})}
}

// Subscribe registers a listener. The returned channel receives one tick per
// notify; the cancel func removes the subscription. Channels are buffered and
// notification never blocks, so a slow consumer coalesces ticks rather than
// stalling mutations.
func (b *Bus) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Notify ticks every subscriber without blocking.
func (b *Bus) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
