package middleware

import (
	"context"
	"log/slog"

	"luxrent/internal/app/commands"
	"luxrent/internal/app/outbox"
)

// OutboxFlush nudges box after a command commits. A failed flush is only
// logged: the records are already stored and the worker will pick them up.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if ferr := box.Flush(ctx); ferr != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", ferr)
			}
			return res, nil
		})
	}
}
