// Package bus implements the synchronous in-session event bus.
package bus

// Handler receives the payload passed to Emit.
type Handler func(payload any)

// Bus dispatches named events to handlers synchronously, in registration
// order. Emit is re-entrant: an emit issued from inside a handler runs
// depth-first to completion before the outer emit continues. Handler lists
// are append-only and iterated by a live cursor, so a handler registered
// mid-emit is reached by the same emit (it always lands past the cursor).
//
// A Bus belongs to a single session goroutine and is not safe for concurrent
// use. Panics raised by handlers are not intercepted; guarding is the
// handler's responsibility.
type Bus struct {
	handlers map[string][]Handler
}

func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// On appends h to the handler list for event. There is no removal; handlers
// live as long as the bus.
func (b *Bus) On(event string, h Handler) {
	b.handlers[event] = append(b.handlers[event], h)
}

// Emit invokes every handler registered for event with payload.
func (b *Bus) Emit(event string, payload any) {
	// Indexed loop on purpose: the slice may grow while handlers run.
	for i := 0; i < len(b.handlers[event]); i++ {
		b.handlers[event][i](payload)
	}
}
