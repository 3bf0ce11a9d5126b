package booking

import (
	"context"
	"log/slog"

	"luxrent/internal/app/commands"
	"luxrent/internal/app/handlers/support"
	"luxrent/internal/app/outbox"
	"luxrent/internal/app/uow"
	domainbooking "luxrent/internal/domain/booking"
)

const expireRequestsKey = "booking.expire"

// ExpireRequestsCommand rejects every pending request whose start date has
// already gone by.
type ExpireRequestsCommand struct{}

func (c ExpireRequestsCommand) Key() string { return expireRequestsKey }

type ExpireRequestsResult struct {
	Expired []string `json:"expired"`
}

type ExpireRequestsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *ExpireRequestsHandler) Handle(ctx context.Context, _ ExpireRequestsCommand) (*ExpireRequestsResult, error) {
	managed, err := uow.Begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer managed.Close()
	ctx = managed.Ctx

	pending, err := managed.Unit.Requests().ListPending(ctx)
	if err != nil {
		return nil, err
	}
	today := h.Clock.Today()
	now := h.Clock.Time()
	result := &ExpireRequestsResult{Expired: []string{}}
	for _, request := range pending {
		if !request.Stale(today) {
			continue
		}
		if err := request.Reject(domainbooking.ReasonExpired, now); err != nil {
			return nil, err
		}
		if err := saveWithEvents(ctx, managed.Unit, h.Outbox, h.Encoder, request); err != nil {
			return nil, err
		}
		result.Expired = append(result.Expired, string(request.ID))
	}
	if err := managed.Commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil && len(result.Expired) > 0 {
		h.Logger.Info("stale booking requests expired", "count", len(result.Expired), "today", today)
	}
	return result, nil
}

var _ commands.Handler[ExpireRequestsCommand, *ExpireRequestsResult] = (*ExpireRequestsHandler)(nil)
