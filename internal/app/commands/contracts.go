package commands

import (
	"context"
	"errors"
	"fmt"
)

// Command is a state-changing request. Key names the route and must not
// depend on field values: the bus reads it from the zero value at registration.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// Func adapts a plain function to Handler.
type Func[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f Func[C, R]) Handle(ctx context.Context, cmd C) (R, error) { return f(ctx, cmd) }

// Bus is what middleware wraps and transports call.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrNoHandler    = errors.New("commands: no handler registered")
	ErrWrongCommand = errors.New("commands: command does not match route")
	ErrResultType   = errors.New("commands: unexpected result type")
	ErrNilBus       = errors.New("commands: nil bus")
)

// Dispatch sends cmd and narrows the untyped result to R. A nil result from a
// handler yields the zero R.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	typed, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, cmd.Key(), res)
	}
	return typed, nil
}
