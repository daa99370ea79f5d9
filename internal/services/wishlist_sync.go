package services

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/shopease/storefront/internal/domain"
	"github.com/shopease/storefront/internal/storage"
)

var (
	errSyncStorageRequired  = errors.New("wishlist sync: storage is required")
	errSyncWishlistRequired = errors.New("wishlist sync: wishlist store is required")
)

// StorageWatcher is the change-notification side of a browsing context's
// shared storage. Events are delivered only for writes made by sibling
// contexts, never for the subscriber's own writes.
type StorageWatcher interface {
	Watch(fn func(storage.Event)) (cancel func())
}

// WishlistSnapshot is what the bridge republishes to local subscribers after
// reconciling a foreign change: the fresh set and its count for badges.
type WishlistSnapshot struct {
	Items []domain.ProductID
	Count int
}

// WishlistSyncBridgeDeps wires the bridge dependencies.
type WishlistSyncBridgeDeps struct {
	Storage  StorageWatcher
	Wishlist *WishlistService
	Key      string
	Logger   *zap.Logger
}

// WishlistSyncBridge holds the single process-wide subscription to the
// storage change feed. On a change to the wishlist key it re-reads storage
// through the wishlist store and fans the fresh snapshot out to interested
// local subscribers. Foreign events are unordered relative to local
// mutations; the latest storage value simply wins.
type WishlistSyncBridge struct {
	key      string
	wishlist *WishlistService
	logger   *zap.Logger
	cancel   func()

	mu          sync.Mutex
	subscribers map[uint64]func(WishlistSnapshot)
	nextSub     uint64
	closed      bool
}

// NewWishlistSyncBridge subscribes to the storage feed and returns the
// bridge. Close releases the subscription.
func NewWishlistSyncBridge(deps WishlistSyncBridgeDeps) (*WishlistSyncBridge, error) {
	if deps.Storage == nil {
		return nil, errSyncStorageRequired
	}
	if deps.Wishlist == nil {
		return nil, errSyncWishlistRequired
	}
	key := deps.Key
	if key == "" {
		key = DefaultWishlistKey
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bridge := &WishlistSyncBridge{
		key:         key,
		wishlist:    deps.Wishlist,
		logger:      logger,
		subscribers: make(map[uint64]func(WishlistSnapshot)),
	}
	bridge.cancel = deps.Storage.Watch(bridge.handleEvent)
	return bridge, nil
}

// Subscribe registers a callback for reconciled wishlist snapshots (badge
// counters and the like). The returned cancel function removes it.
func (b *WishlistSyncBridge) Subscribe(fn func(WishlistSnapshot)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSub++
	id := b.nextSub
	b.subscribers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// Close releases the storage subscription and drops local subscribers. Safe
// to call more than once.
func (b *WishlistSyncBridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.subscribers = make(map[uint64]func(WishlistSnapshot))
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (b *WishlistSyncBridge) handleEvent(event storage.Event) {
	if event.Key != b.key {
		return
	}

	// Re-read rather than trusting the event payload: by the time this
	// runs, yet another tab may have overwritten the key.
	b.wishlist.Hydrate()
	snapshot := WishlistSnapshot{Items: b.wishlist.Items()}
	snapshot.Count = len(snapshot.Items)

	b.logger.Debug("wishlist reconciled from sibling tab",
		zap.String("key", event.Key),
		zap.Int("count", snapshot.Count),
	)

	b.mu.Lock()
	callbacks := make([]func(WishlistSnapshot), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		callbacks = append(callbacks, fn)
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn(snapshot)
	}
}
