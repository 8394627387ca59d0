// Package store holds the client-side copies of server-owned entities.
//
// Every value in this package is owned by the Bubble Tea update loop and is
// not safe for concurrent use. Commands running on other goroutines never
// touch a store; they return messages that the loop applies.
package store

// Entity is anything with a stable server identifier.
type Entity interface {
	EntityID() string
}

// Collection is an ordered set of entities keyed by id.
// No two members share an id.
type Collection[T Entity] struct {
	items []T
	index map[string]int
}

// NewCollection creates a collection holding items, see ReplaceAll.
func NewCollection[T Entity](items []T) *Collection[T] {
	c := &Collection[T]{}
	c.ReplaceAll(items)
	return c
}

// ReplaceAll swaps the whole content. Later duplicates of an id are dropped.
func (c *Collection[T]) ReplaceAll(items []T) {
	c.items = make([]T, 0, len(items))
	c.index = make(map[string]int, len(items))
	for _, it := range items {
		id := it.EntityID()
		if _, dup := c.index[id]; dup {
			continue
		}
		c.index[id] = len(c.items)
		c.items = append(c.items, it)
	}
}

// Upsert applies patch to the entity with id. It reports false, and changes
// nothing, when no such entity exists. patch must not change the id.
func (c *Collection[T]) Upsert(id string, patch func(*T)) bool {
	i, ok := c.lookup(id)
	if !ok {
		return false
	}
	patch(&c.items[i])
	return true
}

// Put replaces the entity with the same id, or appends it.
func (c *Collection[T]) Put(item T) {
	id := item.EntityID()
	if i, ok := c.lookup(id); ok {
		c.items[i] = item
		return
	}
	c.ensureIndex()
	c.index[id] = len(c.items)
	c.items = append(c.items, item)
}

// Prepend inserts item at the front, replacing any entity with the same id.
func (c *Collection[T]) Prepend(item T) {
	c.Remove(item.EntityID())
	c.items = append([]T{item}, c.items...)
	c.reindex()
}

// Remove deletes the entity with id and reports whether it existed.
func (c *Collection[T]) Remove(id string) bool {
	i, ok := c.lookup(id)
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.reindex()
	return true
}

// Get returns a copy of the entity with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	i, ok := c.lookup(id)
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Has reports whether an entity with id exists.
func (c *Collection[T]) Has(id string) bool {
	_, ok := c.lookup(id)
	return ok
}

// All returns a copy of the members in order.
func (c *Collection[T]) All() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of members.
func (c *Collection[T]) Len() int { return len(c.items) }

func (c *Collection[T]) lookup(id string) (int, bool) {
	if c.index == nil {
		return 0, false
	}
	i, ok := c.index[id]
	return i, ok
}

func (c *Collection[T]) ensureIndex() {
	if c.index == nil {
		c.index = make(map[string]int)
	}
}

func (c *Collection[T]) reindex() {
	c.index = make(map[string]int, len(c.items))
	for i, it := range c.items {
		c.index[it.EntityID()] = i
	}
}
