package services

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/shopease/storefront/internal/domain"
)

// DefaultWishlistKey is the shared storage key holding the wishlist array.
const DefaultWishlistKey = "wishlist"

const (
	addedToWishlistMessage     = "Added to wishlist"
	removedFromWishlistMessage = "Removed from wishlist"
)

var errWishlistStorageRequired = errors.New("wishlist service: storage is required")

// StorageContext is the slice of a browsing context's shared storage the
// wishlist needs: whole-value reads and writes of a single key.
type StorageContext interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// WishlistServiceDeps wires the wishlist store dependencies.
type WishlistServiceDeps struct {
	Storage  StorageContext
	Key      string
	Notifier Notifier
	Logger   *zap.Logger
}

// WishlistService owns the in-memory wishlist set and writes every mutation
// straight through to shared storage. Reads of that storage are treated as
// potentially stale: sibling tabs may overwrite the key at any time, and the
// last writer wins. Local toggles update in-memory state synchronously; only
// foreign-tab changes arrive via the sync bridge.
type WishlistService struct {
	storage  StorageContext
	key      string
	notifier Notifier
	logger   *zap.Logger

	mu     sync.Mutex
	ids    []domain.ProductID
	member map[domain.ProductID]struct{}
}

// NewWishlistService constructs the store and hydrates it from shared
// storage. Absent or malformed stored data yields an empty set, never an
// error.
func NewWishlistService(deps WishlistServiceDeps) (*WishlistService, error) {
	if deps.Storage == nil {
		return nil, errWishlistStorageRequired
	}
	key := deps.Key
	if key == "" {
		key = DefaultWishlistKey
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &WishlistService{
		storage:  deps.Storage,
		key:      key,
		notifier: deps.Notifier,
		logger:   logger,
		ids:      []domain.ProductID{},
		member:   map[domain.ProductID]struct{}{},
	}
	s.Hydrate()
	return s, nil
}

// Hydrate re-reads the wishlist from shared storage, replacing the in-memory
// set. Called once at construction and again by the sync bridge whenever a
// sibling tab rewrites the key.
func (s *WishlistService) Hydrate() {
	raw, ok := s.storage.Get(s.key)
	ids := []domain.ProductID{}
	if ok {
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			s.logger.Warn("wishlist storage value malformed, resetting to empty",
				zap.String("key", s.key),
				zap.Error(err),
			)
			ids = []domain.ProductID{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = s.ids[:0]
	s.member = make(map[domain.ProductID]struct{}, len(ids))
	for _, id := range ids {
		id = domain.NormalizeProductID(id.String())
		if id == "" {
			continue
		}
		if _, dup := s.member[id]; dup {
			continue
		}
		s.member[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

// IsWished reports membership against the current in-memory set.
func (s *WishlistService) IsWished(id domain.ProductID) bool {
	id = domain.NormalizeProductID(id.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.member[id]
	return ok
}

// Toggle adds the id when absent and removes it when present, reporting the
// resulting membership. The full set is written back to shared storage
// immediately after the in-memory update (write-through, whole-value
// read-modify-write).
func (s *WishlistService) Toggle(id domain.ProductID) bool {
	id = domain.NormalizeProductID(id.String())
	if id == "" {
		return false
	}

	s.mu.Lock()
	_, present := s.member[id]
	if present {
		delete(s.member, id)
		for i, existing := range s.ids {
			if existing == id {
				s.ids = append(s.ids[:i], s.ids[i+1:]...)
				break
			}
		}
	} else {
		s.member[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	value, serialized := s.encodeLocked()
	s.mu.Unlock()

	// The storage write must happen with s.mu released: Set fans out to
	// sibling watchers on this goroutine's stack, and those re-enter their
	// own wishlist locks via Hydrate.
	if serialized {
		s.persist(value)
	}

	wished := !present
	message := removedFromWishlistMessage
	if wished {
		message = addedToWishlistMessage
	}
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
	return wished
}

// Items returns the wished ids in insertion order.
func (s *WishlistService) Items() []domain.ProductID {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ProductID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Count returns the size of the wishlist (the badge value).
func (s *WishlistService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.ids)
}

// encodeLocked must be called with s.mu held.
func (s *WishlistService) encodeLocked() (string, bool) {
	data, err := json.Marshal(s.ids)
	if err != nil {
		s.logger.Warn("wishlist serialization failed", zap.Error(err))
		return "", false
	}
	return string(data), true
}

func (s *WishlistService) persist(value string) {
	if err := s.storage.Set(s.key, value); err != nil {
		s.logger.Warn("wishlist storage write failed", zap.String("key", s.key), zap.Error(err))
	}
}
