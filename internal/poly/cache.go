package poly

// Cache is a scoped pool of reusable coefficient buffers: a free list
// of equal-purpose scratch slices that root isolation borrows from and
// returns to rather than allocating fresh on every subdivision.
type Cache struct {
	free [][]float64
}

// NewCache returns an empty buffer cache.
func NewCache() *Cache {
	return &Cache{}
}

// Borrowed is a single scoped checkout from a Cache. Release must be
// called exactly once per logical use, though calling it more than once
// is safe; callers that push a Borrowed onto a working list should defer
// the release so that every path out of the caller returns it, matching
// the destruction-order requirement documented on IsolateRoots's wlist.
type Borrowed struct {
	cache *Cache
	buf   []float64
	freed bool
}

// Slice returns the borrowed buffer.
func (b *Borrowed) Slice() []float64 { return b.buf }

// Release returns the buffer to the cache it was borrowed from.
func (b *Borrowed) Release() {
	if b == nil || b.freed {
		return
	}
	b.freed = true
	b.cache.free = append(b.cache.free, b.buf)
}

// Borrow returns a Borrowed buffer of length n, reusing a freed buffer
// of sufficient capacity when one is available.
func (c *Cache) Borrow(n int) *Borrowed {
	if m := len(c.free); m > 0 {
		buf := c.free[m-1]
		c.free = c.free[:m-1]
		if cap(buf) < n {
			buf = make([]float64, n)
		} else {
			buf = buf[:n]
		}
		return &Borrowed{cache: c, buf: buf}
	}
	return &Borrowed{cache: c, buf: make([]float64, n)}
}
