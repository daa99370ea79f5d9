package services

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/shopease/storefront/internal/domain"
)

// DefaultNotificationDuration is how long a notification stays visible when
// no duration is configured.
const DefaultNotificationDuration = 1500 * time.Millisecond

// Notifier enqueues a transient UI message. Cart and wishlist mutations emit
// their feedback through this interface.
type Notifier interface {
	Notify(message string) domain.Notification
}

// NotificationEventType distinguishes queue additions from removals.
type NotificationEventType string

const (
	// NotificationAdded signals a notification became visible.
	NotificationAdded NotificationEventType = "added"
	// NotificationRemoved signals a notification was dismissed or expired.
	NotificationRemoved NotificationEventType = "removed"
)

// NotificationEvent is delivered to queue subscribers (the top-level
// renderer) on every visibility change.
type NotificationEvent struct {
	Type         NotificationEventType
	Notification domain.Notification
}

// NotificationCenterDeps configures the notification queue.
type NotificationCenterDeps struct {
	Duration    time.Duration
	Clock       func() time.Time
	IDGenerator func() string
	Logger      *zap.Logger
}

// NotificationCenter owns the stack of visible notifications and the dismiss
// timers attached to them. Timers are independent of whatever triggered the
// message, so a notification survives navigation away from its source view.
type NotificationCenter struct {
	duration time.Duration
	clock    func() time.Time
	newID    func() string
	logger   *zap.Logger

	mu          sync.Mutex
	active      []domain.Notification
	timers      map[string]*time.Timer
	subscribers map[uint64]func(NotificationEvent)
	nextSub     uint64
	closed      bool
}

// NewNotificationCenter constructs an empty queue. Every dependency has a
// sensible default.
func NewNotificationCenter(deps NotificationCenterDeps) *NotificationCenter {
	duration := deps.Duration
	if duration <= 0 {
		duration = DefaultNotificationDuration
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationCenter{
		duration:    duration,
		clock:       clock,
		newID:       newID,
		logger:      logger,
		timers:      make(map[string]*time.Timer),
		subscribers: make(map[uint64]func(NotificationEvent)),
	}
}

// Notify makes a message visible immediately and schedules its removal after
// the configured duration. Messages stack; there is no depth limit.
func (c *NotificationCenter) Notify(message string) domain.Notification {
	notification := domain.Notification{
		ID:        c.newID(),
		Message:   message,
		CreatedAt: c.clock().UTC(),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return notification
	}
	c.active = append(c.active, notification)
	id := notification.ID
	c.timers[id] = time.AfterFunc(c.duration, func() { c.expire(id) })
	callbacks := c.subscriberList()
	c.mu.Unlock()

	c.logger.Debug("notification shown", zap.String("id", notification.ID), zap.String("message", message))
	publishNotificationEvent(callbacks, NotificationEvent{Type: NotificationAdded, Notification: notification})
	return notification
}

// Dismiss removes a notification early, cancelling its pending timer so no
// stale callback touches already-discarded state. Reports whether the
// notification was still visible.
func (c *NotificationCenter) Dismiss(id string) bool {
	c.mu.Lock()
	notification, ok := c.removeLocked(id)
	var callbacks []func(NotificationEvent)
	if ok {
		callbacks = c.subscriberList()
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	c.logger.Debug("notification dismissed", zap.String("id", id))
	publishNotificationEvent(callbacks, NotificationEvent{Type: NotificationRemoved, Notification: notification})
	return true
}

// Active returns the visible notifications in creation order.
func (c *NotificationCenter) Active() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Notification, len(c.active))
	copy(out, c.active)
	return out
}

// Subscribe registers a renderer callback for queue changes. The returned
// cancel function removes the registration.
func (c *NotificationCenter) Subscribe(fn func(NotificationEvent)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	id := c.nextSub
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Close cancels every outstanding timer and drops all state. The queue
// rejects new messages afterwards.
func (c *NotificationCenter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.active = nil
	c.subscribers = make(map[uint64]func(NotificationEvent))
}

func (c *NotificationCenter) expire(id string) {
	c.mu.Lock()
	notification, ok := c.removeLocked(id)
	var callbacks []func(NotificationEvent)
	if ok {
		callbacks = c.subscriberList()
	}
	c.mu.Unlock()

	if !ok {
		// Already dismissed manually.
		return
	}
	c.logger.Debug("notification expired", zap.String("id", id))
	publishNotificationEvent(callbacks, NotificationEvent{Type: NotificationRemoved, Notification: notification})
}

// removeLocked must be called with c.mu held.
func (c *NotificationCenter) removeLocked(id string) (domain.Notification, bool) {
	for i, notification := range c.active {
		if notification.ID != id {
			continue
		}
		c.active = append(c.active[:i], c.active[i+1:]...)
		if timer, ok := c.timers[id]; ok {
			timer.Stop()
			delete(c.timers, id)
		}
		return notification, true
	}
	return domain.Notification{}, false
}

// subscriberList must be called with c.mu held.
func (c *NotificationCenter) subscriberList() []func(NotificationEvent) {
	if len(c.subscribers) == 0 {
		return nil
	}
	out := make([]func(NotificationEvent), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		out = append(out, fn)
	}
	return out
}

func publishNotificationEvent(callbacks []func(NotificationEvent), event NotificationEvent) {
	for _, fn := range callbacks {
		fn(event)
	}
}

var _ Notifier = (*NotificationCenter)(nil)
