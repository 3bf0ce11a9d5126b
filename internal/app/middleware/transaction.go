package middleware

import (
	"context"
	"errors"

	"luxrent/internal/app/commands"
	"luxrent/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

type TxOption func(*txConfig)

type txConfig struct {
	options TxOptionsProvider
	retries int
}

// WithTxOptions picks unit options per command.
func WithTxOptions(provider TxOptionsProvider) TxOption {
	return func(c *txConfig) { c.options = provider }
}

// RetryOnConflict reruns a command up to n more times, each in a fresh unit,
// when commit or the handler reports uow.ErrConcurrentUpdate.
func RetryOnConflict(n int) TxOption {
	return func(c *txConfig) { c.retries = max(n, 0) }
}

// Transaction binds a unit of work to the context of every command. The unit
// commits when the handler succeeds and is rolled back otherwise.
func Transaction(factory uow.UoWFactory, opts ...TxOption) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	var cfg txConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var txOpts uow.TxOptions
			if cfg.options != nil {
				txOpts = cfg.options(cmd)
			}
			for attempt := 0; ; attempt++ {
				res, err := runInUnit(ctx, factory, txOpts, next, cmd)
				if err == nil || attempt >= cfg.retries || !errors.Is(err, uow.ErrConcurrentUpdate) {
					return res, err
				}
			}
		})
	}
}

// runInUnit leaves a unit whose commit failed alone: stores close it as part
// of Commit.
func runInUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions, next commands.Bus, cmd commands.Command) (any, error) {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	res, err := next.Dispatch(execCtx, cmd)
	if err != nil {
		_ = unit.Rollback(execCtx)
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	return res, nil
}
