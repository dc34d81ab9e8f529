package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry collects the counters the storefront cares about. One
// instance is shared by the bot dispatcher and the ops API.
type Registry struct {
	EventsHandled  Counter
	EventErrors    Counter
	OrdersPlaced   Counter
	PromoRejected  Counter
	NotifyFailures Counter
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Snapshot returns the current counter values for the ops status
// endpoint.
func (r *Registry) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"events_handled":  r.EventsHandled.Load(),
		"event_errors":    r.EventErrors.Load(),
		"orders_placed":   r.OrdersPlaced.Load(),
		"promo_rejected":  r.PromoRejected.Load(),
		"notify_failures": r.NotifyFailures.Load(),
	}
}
