package commands

import (
	"context"
	"fmt"
	"sort"
)

type route struct {
	handler string
	call    func(ctx context.Context, cmd Command) (any, error)
}

// InMemoryBus keeps one route per command key.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	r, ok := b.routes[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, cmd.Key())
	}
	return r.call(ctx, cmd)
}

// Routes maps each registered key to its handler type, sorted by key.
func (b *InMemoryBus) Routes() []string {
	out := make([]string, 0, len(b.routes))
	for key, r := range b.routes {
		out = append(out, key+" -> "+r.handler)
	}
	sort.Strings(out)
	return out
}

// Register routes C to handler. Wiring the same command twice panics.
func Register[C Command, R any](bus *InMemoryBus, handler Handler[C, R]) {
	var zero C
	key := zero.Key()
	if key == "" {
		panic(fmt.Sprintf("commands: %T has an empty key", zero))
	}
	if prev, dup := bus.routes[key]; dup {
		panic(fmt.Sprintf("commands: %s already routed to %s", key, prev.handler))
	}
	bus.routes[key] = route{
		handler: fmt.Sprintf("%T", handler),
		call: func(ctx context.Context, raw Command) (any, error) {
			cmd, ok := raw.(C)
			if !ok {
				return nil, fmt.Errorf("%w: %s got %T", ErrWrongCommand, key, raw)
			}
			return handler.Handle(ctx, cmd)
		},
	}
}
