package txn

import (
	"context"
	"errors"
	"sync"
)

// Resource is a participant in a unit of work. Begin may return a derived
// context carrying resource-scoped handles (for example a DB transaction).
type Resource interface {
	Begin(ctx context.Context) (context.Context, Handle, error)
}

// Handle finishes one resource's part of a unit of work.
type Handle interface {
	Commit() error
	Rollback() error
}

// Coordinator runs invocations one at a time with all-or-nothing semantics
// across every registered resource. Calls made with a context that is already
// inside one of its units of work join that unit instead of starting a new one.
type Coordinator struct {
	mu        sync.Mutex
	regMu     sync.RWMutex
	resources []Resource
}

type activeKey struct{}

func NewCoordinator(resources ...Resource) *Coordinator {
	return &Coordinator{resources: append([]Resource(nil), resources...)}
}

func (c *Coordinator) Register(resource Resource) {
	if resource == nil {
		return
	}
	c.regMu.Lock()
	defer c.regMu.Unlock()
	c.resources = append(c.resources, resource)
}

// InTransaction reports whether ctx belongs to a unit of work of c.
func (c *Coordinator) InTransaction(ctx context.Context) bool {
	active, _ := ctx.Value(activeKey{}).(*Coordinator)
	return active == c
}

func (c *Coordinator) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.InTransaction(ctx) {
		return fn(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.regMu.RLock()
	resources := append([]Resource(nil), c.resources...)
	c.regMu.RUnlock()

	ctx = context.WithValue(ctx, activeKey{}, c)
	handles := make([]Handle, 0, len(resources))
	for _, resource := range resources {
		next, handle, beginErr := resource.Begin(ctx)
		if beginErr != nil {
			return errors.Join(beginErr, rollback(handles))
		}
		ctx = next
		handles = append(handles, handle)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			_ = rollback(handles)
			panic(recovered)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := rollback(handles); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	for i, handle := range handles {
		if err := handle.Commit(); err != nil {
			return errors.Join(err, rollback(handles[i+1:]))
		}
	}
	return nil
}

// rollback unwinds handles in reverse registration order.
func rollback(handles []Handle) error {
	var errs []error
	for i := len(handles) - 1; i >= 0; i-- {
		if err := handles[i].Rollback(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Snapshotter is implemented by in-memory stores that can copy and restore
// their whole state.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// SnapshotResource adapts a Snapshotter into a Resource: Begin captures a
// snapshot and Rollback restores it.
func SnapshotResource(s Snapshotter) Resource {
	return snapshotResource{target: s}
}

type snapshotResource struct {
	target Snapshotter
}

func (r snapshotResource) Begin(ctx context.Context) (context.Context, Handle, error) {
	return ctx, &snapshotHandle{target: r.target, snapshot: r.target.Snapshot()}, nil
}

type snapshotHandle struct {
	target   Snapshotter
	snapshot any
}

func (h *snapshotHandle) Commit() error {
	h.snapshot = nil
	return nil
}

func (h *snapshotHandle) Rollback() error {
	if h.snapshot != nil {
		h.target.Restore(h.snapshot)
		h.snapshot = nil
	}
	return nil
}
