package bookstore

// IDChoice says how a new record gets its identifier: allocated by the store
// or supplied by the caller.
type IDChoice struct {
	id       int64
	explicit bool
}

// Auto lets the store allocate the identifier.
func Auto() IDChoice { return IDChoice{} }

// Explicit requests a specific identifier. Non-positive values fall back to
// allocation.
func Explicit(id int64) IDChoice { return IDChoice{id: id, explicit: true} }

func (c IDChoice) String() string {
	if c.explicit && c.id > 0 {
		return "explicit"
	}
	return "auto"
}

// resolve returns the caller's identifier, or next when none usable was given.
func (c IDChoice) resolve(next func() int64) int64 {
	if c.explicit && c.id > 0 {
		return c.id
	}
	return next()
}

// nextID is the allocation policy for items, staff and patrons: one past the
// highest identifier in use, or 1 for an empty collection.
func nextID[T any](c *collection[T]) int64 {
	if c.len() == 0 {
		return 1
	}
	return c.maxID() + 1
}

// advance moves a running counter past id.
func advance(counter *int64, id int64) {
	if id >= *counter {
		*counter = id + 1
	}
}
