// Package notify implements the process-wide queue of expiring user-facing messages.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/prismcms/internal/clock"
	"github.com/and161185/prismcms/internal/metrics"
	"github.com/and161185/prismcms/internal/model"
)

// DefaultTTL is how long a notification stays visible unless dismissed.
const DefaultTTL = 5 * time.Second

type entry struct {
	n     model.Notification
	timer clock.Timer
}

// Bus holds active notifications in publish order.
type Bus struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	log     *zap.Logger
	entries []entry
	closed  bool
}

// NewBus constructs a bus whose notifications expire after ttl (DefaultTTL if <= 0).
func NewBus(clk clock.Clock, ttl time.Duration, log *zap.Logger) *Bus {
	if clk == nil {
		clk = clock.Real{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{clock: clk, ttl: ttl, log: log}
}

// Publish enqueues a message and schedules its expiry. Unknown types are shown as info.
// It returns "" once the bus is closed.
func (b *Bus) Publish(typ model.NotificationType, message string) string {
	switch typ {
	case model.NotifySuccess, model.NotifyError, model.NotifyWarning, model.NotifyInfo:
	default:
		typ = model.NotifyInfo
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ""
	}

	id := uuid.Must(uuid.NewV4()).String()
	n := model.Notification{ID: id, Type: typ, Message: message, CreatedAt: b.clock.Now()}
	// The timer callback blocks on b.mu until this entry is stored.
	t := b.clock.AfterFunc(b.ttl, func() {
		if b.remove(id) {
			b.log.Debug("notification expired", zap.String("id", id))
		}
	})
	b.entries = append(b.entries, entry{n: n, timer: t})
	metrics.NotificationsPublished.WithLabelValues(string(typ)).Inc()
	return id
}

// Dismiss removes a notification now. Unknown or already removed ids are ignored.
func (b *Bus) Dismiss(id string) {
	b.remove(id)
}

// remove drops id and stops its timer. It reports whether anything was removed.
func (b *Bus) remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.entries, func(e entry) bool { return e.n.ID == id })
	if i < 0 {
		return false
	}
	b.entries[i].timer.Stop()
	b.entries = slices.Delete(b.entries, i, i+1)
	return true
}

// List returns the active notifications ordered by publish time.
func (b *Bus) List() []model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.Notification, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.n
	}
	return out
}

// Close stops every pending expiry and empties the bus.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.entries {
		e.timer.Stop()
	}
	b.entries = nil
	b.closed = true
}
