/*Package intcache pools ready-to-use integrator instances so that worker
tasks can borrow one for the duration of a per-particle propagation and
return it on completion, rather than paying clone cost once per particle
per superstep.

The template integrator passed to New is never used directly; it exists
solely to seed clones when the pool runs dry.
*/
package intcache

// Cloner is implemented by anything that can produce an independent copy of
// itself cheaply enough to amortize across many propagations, but not so
// cheaply that skipping the cache would be free.
type Cloner[T any] interface {
	Clone() T
}

// Cache is an MPMC pool of integrator instances, backed by a buffered
// channel that holds up to 1<<16 idle instances; Release drops an
// instance when the channel is full.
type Cache[T Cloner[T]] struct {
	template T
	ready    chan T
}

// New returns a Cache seeded from template. template itself is never
// handed out; Acquire clones it the first time the pool is empty.
func New[T Cloner[T]](template T) *Cache[T] {
	return &Cache[T]{
		template: template,
		ready:    make(chan T, 1<<16),
	}
}

// Handle is a scoped, single-use borrow of a cached integrator. Release
// must be called on every exit path; it is safe to call more than once.
type Handle[T Cloner[T]] struct {
	cache    *Cache[T]
	value    T
	released bool
}

// Value returns the borrowed instance.
func (h *Handle[T]) Value() T { return h.value }

// Release returns the borrowed instance to the cache. Calling Release more
// than once, or on a zero Handle, is a no-op.
func (h *Handle[T]) Release() {
	if h == nil || h.released || h.cache == nil {
		return
	}
	h.released = true
	select {
	case h.cache.ready <- h.value:
	default:
		// Pool is momentarily oversubscribed (more concurrent releases
		// than the buffer was sized for); drop the instance rather than
		// block a worker. A fresh clone will be made on the next Acquire
		// that finds the channel empty.
	}
}

// Acquire returns an owned Handle, cloning a fresh instance from the
// template when the pool is empty. Callers must defer h.Release().
func (c *Cache[T]) Acquire() *Handle[T] {
	select {
	case v := <-c.ready:
		return &Handle[T]{cache: c, value: v}
	default:
		return &Handle[T]{cache: c, value: c.template.Clone()}
	}
}
