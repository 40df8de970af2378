package hooking

import "sync"

// PositionCounter is a hook that counts how many times each hook position is
// triggered.
type PositionCounter struct {
	lock sync.Mutex

	posNames []string
	count    map[string]uint64
}

// NewPositionCounter creates a new PositionCounter.
func NewPositionCounter() *PositionCounter {
	return &PositionCounter{
		count: make(map[string]uint64),
	}
}

// Func counts the position of the invocation.
func (c *PositionCounter) Func(ctx HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	name := ctx.Pos.Name

	_, ok := c.count[name]
	if !ok {
		c.posNames = append(c.posNames, name)
	}

	c.count[name]++
}

// PosNames returns the names of the positions observed, in the order they
// were first observed.
func (c *PositionCounter) PosNames() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	names := make([]string, len(c.posNames))
	copy(names, c.posNames)

	return names
}

// Count returns the number of times a position has been triggered.
func (c *PositionCounter) Count(pos *HookPos) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.count[pos.Name]
}
