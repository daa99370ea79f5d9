package services

import (
	"sync"
	"testing"
	"time"
)

type notificationRecorder struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (r *notificationRecorder) record(event NotificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *notificationRecorder) snapshot() []NotificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationEvent, len(r.events))
	copy(out, r.events)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestNotifyIsVisibleImmediately(t *testing.T) {
	center := NewNotificationCenter(NotificationCenterDeps{Duration: time.Hour})
	defer center.Close()

	notification := center.Notify("Added to cart")

	if notification.ID == "" {
		t.Fatalf("expected notification to receive an id")
	}
	active := center.Active()
	if len(active) != 1 || active[0].Message != "Added to cart" {
		t.Fatalf("expected one active notification, got %+v", active)
	}
}

func TestNotificationExpiresAfterDuration(t *testing.T) {
	center := NewNotificationCenter(NotificationCenterDeps{Duration: 20 * time.Millisecond})
	defer center.Close()

	recorder := &notificationRecorder{}
	center.Subscribe(recorder.record)

	center.Notify("Added to wishlist")

	waitFor(t, time.Second, func() bool { return len(center.Active()) == 0 })

	events := recorder.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected added+removed events, got %d", len(events))
	}
	if events[0].Type != NotificationAdded || events[1].Type != NotificationRemoved {
		t.Fatalf("expected added then removed, got %v then %v", events[0].Type, events[1].Type)
	}
}

func TestNotificationsStack(t *testing.T) {
	center := NewNotificationCenter(NotificationCenterDeps{Duration: time.Hour})
	defer center.Close()

	first := center.Notify("one")
	second := center.Notify("two")
	third := center.Notify("three")

	active := center.Active()
	if len(active) != 3 {
		t.Fatalf("expected 3 stacked notifications, got %d", len(active))
	}
	for i, want := range []string{first.ID, second.ID, third.ID} {
		if active[i].ID != want {
			t.Fatalf("expected creation order preserved at index %d", i)
		}
	}
}

func TestDismissCancelsPendingTimer(t *testing.T) {
	center := NewNotificationCenter(NotificationCenterDeps{Duration: 30 * time.Millisecond})
	defer center.Close()

	recorder := &notificationRecorder{}
	center.Subscribe(recorder.record)

	notification := center.Notify("bye")

	if !center.Dismiss(notification.ID) {
		t.Fatalf("expected dismiss of a visible notification to succeed")
	}
	if center.Dismiss(notification.ID) {
		t.Fatalf("expected second dismiss to report false")
	}

	// Give the cancelled timer a chance to misfire; it must not.
	time.Sleep(80 * time.Millisecond)

	events := recorder.snapshot()
	removed := 0
	for _, event := range events {
		if event.Type == NotificationRemoved {
			removed++
		}
	}
	if removed != 1 {
		t.Fatalf("expected exactly one removal event, got %d", removed)
	}
}

func TestSubscribeCancel(t *testing.T) {
	center := NewNotificationCenter(NotificationCenterDeps{Duration: time.Hour})
	defer center.Close()

	recorder := &notificationRecorder{}
	cancel := center.Subscribe(recorder.record)

	center.Notify("one")
	cancel()
	center.Notify("two")

	if got := len(recorder.snapshot()); got != 1 {
		t.Fatalf("expected no deliveries after cancel, got %d events", got)
	}
}

func TestCloseStopsQueue(t *testing.T) {
	center := NewNotificationCenter(NotificationCenterDeps{Duration: time.Hour})

	center.Notify("pending")
	center.Close()
	center.Close() // idempotent

	if got := len(center.Active()); got != 0 {
		t.Fatalf("expected no active notifications after close, got %d", got)
	}

	center.Notify("late")
	if got := len(center.Active()); got != 0 {
		t.Fatalf("expected closed queue to reject new notifications, got %d", got)
	}
}

func TestNotifyUsesInjectedClockAndIDs(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	ids := []string{"n-1", "n-2"}
	center := NewNotificationCenter(NotificationCenterDeps{
		Duration: time.Hour,
		Clock:    func() time.Time { return now },
		IDGenerator: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	})
	defer center.Close()

	notification := center.Notify("hello")
	if notification.ID != "n-1" {
		t.Fatalf("expected generated id n-1, got %s", notification.ID)
	}
	if !notification.CreatedAt.Equal(now) {
		t.Fatalf("expected clock value %v, got %v", now, notification.CreatedAt)
	}
}
