package uow

import (
	"context"
	"errors"
)

var (
	ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")
	// ErrConcurrentUpdate is wrapped by stores when a save carries a stale version.
	ErrConcurrentUpdate = errors.New("uow: concurrent update detected")
)

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}

// contextInjector is implemented by units that carry driver state (a Mongo
// session) which repositories pick up from the context.
type contextInjector interface {
	InjectContext(context.Context) context.Context
}

// Bind returns ctx carrying unit, letting the unit inject its own state first.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(contextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// BeginReadOnly reuses the unit already bound to ctx or starts a read-only one.
// The returned cleanup is nil when an outer unit is reused.
func BeginReadOnly(ctx context.Context, factory UoWFactory) (UnitOfWork, context.Context, func(), error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := Bind(ctx, unit)
	cleanup := func() {
		_ = unit.Rollback(execCtx)
	}
	return unit, execCtx, cleanup, nil
}

// Managed is the result of Begin: either the unit bound to the caller's
// context, or a unit owned by the handler that must be committed.
type Managed struct {
	Unit      UnitOfWork
	Ctx       context.Context
	owned     bool
	committed bool
}

// Begin reuses the unit bound to ctx (the transaction middleware) or starts a
// new read-write unit owned by the caller.
func Begin(ctx context.Context, factory UoWFactory) (*Managed, error) {
	if unit, ok := FromContext(ctx); ok {
		return &Managed{Unit: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Managed{Unit: unit, Ctx: Bind(ctx, unit), owned: true}, nil
}

// Commit commits owned units; outer units are committed by their owner.
func (m *Managed) Commit() error {
	if !m.owned || m.committed {
		return nil
	}
	if err := m.Unit.Commit(m.Ctx); err != nil {
		return err
	}
	m.committed = true
	return nil
}

// Close rolls back an owned unit that was not committed.
func (m *Managed) Close() {
	if m.owned && !m.committed {
		_ = m.Unit.Rollback(m.Ctx)
	}
}
