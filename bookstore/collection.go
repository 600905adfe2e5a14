package bookstore

// collection keeps records keyed by identifier and remembers insertion order,
// which is the order listings and snapshots use.
type collection[T any] struct {
	byID  map[int64]T
	order []int64
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{byID: make(map[int64]T)}
}

func (c *collection[T]) len() int { return len(c.order) }

func (c *collection[T]) get(id int64) (T, bool) {
	v, ok := c.byID[id]
	return v, ok
}

func (c *collection[T]) has(id int64) bool {
	_, ok := c.byID[id]
	return ok
}

// put inserts or replaces. A replaced record keeps its position.
func (c *collection[T]) put(id int64, v T) {
	if _, ok := c.byID[id]; !ok {
		c.order = append(c.order, id)
	}
	c.byID[id] = v
}

func (c *collection[T]) remove(id int64) {
	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *collection[T]) maxID() int64 {
	var m int64
	for _, id := range c.order {
		if id > m {
			m = id
		}
	}
	return m
}

// values returns a copy of every record in insertion order.
func (c *collection[T]) values() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *collection[T]) filter(keep func(T) bool) []T {
	var out []T
	for _, id := range c.order {
		if v := c.byID[id]; keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (c *collection[T]) clear() {
	c.byID = make(map[int64]T)
	c.order = nil
}
