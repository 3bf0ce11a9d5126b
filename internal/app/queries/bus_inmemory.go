package queries

import (
	"context"
	"fmt"
)

// InMemoryBus answers queries from handlers registered at startup. It is not
// safe for concurrent registration.
type InMemoryBus struct {
	routes map[string]func(ctx context.Context, q Query) (any, error)
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]func(ctx context.Context, q Query) (any, error))}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	call, ok := b.routes[query.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, query.Key())
	}
	return call(ctx, query)
}

// Register routes Q to handler and panics on a duplicate route.
func Register[Q Query, R any](bus *InMemoryBus, handler Handler[Q, R]) {
	var zero Q
	key := zero.Key()
	if _, dup := bus.routes[key]; dup || key == "" {
		panic(fmt.Sprintf("queries: cannot route %q to %T", key, handler))
	}
	bus.routes[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrWrongQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	}
}
