package cache

import "sync"

// ModelCache maps compiled model names to their catalog record IDs so
// repeated saves of the same model skip the lookup query.
type ModelCache struct {
	m   sync.Mutex
	ids map[string]uint
}

func NewModelCache() *ModelCache {
	return &ModelCache{
		ids: make(map[string]uint),
	}
}

func (c *ModelCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.ids = make(map[string]uint)
}

func (c *ModelCache) GetID(name string) (uint, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	id, ok := c.ids[name]
	return id, ok
}

func (c *ModelCache) SetID(name string, id uint) {
	c.m.Lock()
	defer c.m.Unlock()
	c.ids[name] = id
}

func (c *ModelCache) Delete(name string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.ids, name)
}

func (c *ModelCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.ids)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
