// Package storage models the browser-shared key-value store: one Origin holds
// the authoritative document per key, and every open tab attaches a Context to
// it. A write made through one context is pushed as a change event to the
// watchers of every other context on the same origin, never to the writer.
package storage

import (
	"errors"
	"sync"
)

// Event describes a storage change observed from another browsing context.
type Event struct {
	Key      string
	NewValue string
	OldValue string
}

// Origin is the per-origin shared store. Values are opaque strings and each
// key is a single mutable document: writers replace the whole value.
type Origin struct {
	mu       sync.Mutex
	values   map[string]string
	contexts map[uint64]*Context
	nextID   uint64
}

// NewOrigin constructs an empty shared store.
func NewOrigin() *Origin {
	return &Origin{
		values:   make(map[string]string),
		contexts: make(map[uint64]*Context),
	}
}

// OpenContext attaches a new browsing context (tab) to the origin.
func (o *Origin) OpenContext() *Context {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	ctx := &Context{
		origin:   o,
		id:       o.nextID,
		watchers: make(map[uint64]func(Event)),
	}
	o.contexts[ctx.id] = ctx
	return ctx
}

func (o *Origin) get(key string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	value, ok := o.values[key]
	return value, ok
}

// set replaces the value and returns the watcher callbacks of every context
// other than the writer. Callbacks are invoked after the lock is released so
// a watcher may freely read the store again.
func (o *Origin) set(writer uint64, key, value string) {
	o.mu.Lock()
	old := o.values[key]
	o.values[key] = value
	callbacks := o.foreignWatchers(writer)
	o.mu.Unlock()

	event := Event{Key: key, NewValue: value, OldValue: old}
	for _, fn := range callbacks {
		fn(event)
	}
}

func (o *Origin) remove(writer uint64, key string) {
	o.mu.Lock()
	old, existed := o.values[key]
	delete(o.values, key)
	var callbacks []func(Event)
	if existed {
		callbacks = o.foreignWatchers(writer)
	}
	o.mu.Unlock()

	event := Event{Key: key, OldValue: old}
	for _, fn := range callbacks {
		fn(event)
	}
}

// foreignWatchers must be called with o.mu held.
func (o *Origin) foreignWatchers(writer uint64) []func(Event) {
	var callbacks []func(Event)
	for id, ctx := range o.contexts {
		if id == writer {
			continue
		}
		ctx.mu.Lock()
		for _, fn := range ctx.watchers {
			callbacks = append(callbacks, fn)
		}
		ctx.mu.Unlock()
	}
	return callbacks
}

func (o *Origin) closeContext(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.contexts, id)
}

// ErrContextClosed is returned when a closed context is used.
var ErrContextClosed = errors.New("storage: context is closed")

// Context is one browsing context's handle on the shared origin store.
type Context struct {
	origin *Origin
	id     uint64

	mu         sync.Mutex
	watchers   map[uint64]func(Event)
	nextWatch  uint64
	closedFlag bool
}

// Get reads the current value for key; ok is false when the key is absent.
func (c *Context) Get(key string) (string, bool) {
	if c == nil || c.origin == nil {
		return "", false
	}
	return c.origin.get(key)
}

// Set replaces the full value for key. Watchers of sibling contexts receive a
// change event; the writer's own watchers do not.
func (c *Context) Set(key, value string) error {
	if c == nil || c.origin == nil {
		return ErrContextClosed
	}
	c.mu.Lock()
	closed := c.closedFlag
	c.mu.Unlock()
	if closed {
		return ErrContextClosed
	}
	c.origin.set(c.id, key, value)
	return nil
}

// Remove deletes the key. Sibling watchers are notified when a value existed.
func (c *Context) Remove(key string) error {
	if c == nil || c.origin == nil {
		return ErrContextClosed
	}
	c.mu.Lock()
	closed := c.closedFlag
	c.mu.Unlock()
	if closed {
		return ErrContextClosed
	}
	c.origin.remove(c.id, key)
	return nil
}

// Watch registers a callback for change events originating in sibling
// contexts. The returned cancel function removes the registration; it is safe
// to call more than once.
func (c *Context) Watch(fn func(Event)) (cancel func()) {
	if c == nil || fn == nil {
		return func() {}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextWatch++
	id := c.nextWatch
	c.watchers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.watchers, id)
	}
}

// Close detaches the context from the origin and drops its watchers.
func (c *Context) Close() {
	if c == nil || c.origin == nil {
		return
	}
	c.mu.Lock()
	if c.closedFlag {
		c.mu.Unlock()
		return
	}
	c.closedFlag = true
	c.watchers = make(map[uint64]func(Event))
	c.mu.Unlock()

	c.origin.closeContext(c.id)
}
