package deepcopy

import "sync"

// A Pool hands out reset Context instances and reclaims them on release,
// bounding allocation when Copy is called in tight loops — the same
// pooling shape as a *sync.Pool-backed buffer pool, applied to the
// identity map instead of a []byte.
type Pool struct {
	pool sync.Pool
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	p := &Pool{}
	p.pool.New = func() any { return NewContext() }
	return p
}

// DefaultPool is the Pool used internally by Copy and TryCopy. It is
// exported so re-entrant callers that want referential continuity across
// several top-level calls (spec §6's "re-entrant" Copy overload) can share
// it explicitly via CopyWithContext.
var DefaultPool = NewPool()

// Get leases a Context. The returned Context is empty regardless of
// whether it was freshly allocated or reused.
func (p *Pool) Get() *Context {
	ctx := p.pool.Get().(*Context)
	metricsPoolGet()
	return ctx
}

// Put clears ctx and returns it to the pool. The caller must not use ctx
// again after calling Put.
func (p *Pool) Put(ctx *Context) {
	if ctx == nil {
		return
	}
	ctx.reset()
	p.pool.Put(ctx)
	metricsPoolPut()
}
