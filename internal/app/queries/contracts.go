package queries

import (
	"context"
	"errors"
	"fmt"
)

// Query reads state without changing it. As with commands, Key must be
// constant per type.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type Func[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f Func[Q, R]) Handle(ctx context.Context, query Q) (R, error) { return f(ctx, query) }

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrNoHandler  = errors.New("queries: no handler registered")
	ErrWrongQuery = errors.New("queries: query does not match route")
	ErrResultType = errors.New("queries: unexpected result type")
	ErrNilBus     = errors.New("queries: nil bus")
)

func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	typed, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, query.Key(), res)
	}
	return typed, nil
}
