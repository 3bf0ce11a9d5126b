package booking

import (
	"context"
	"strings"

	"luxrent/internal/app/dto"
	"luxrent/internal/app/queries"
	"luxrent/internal/app/uow"
	domainbooking "luxrent/internal/domain/booking"
)

const getRequestKey = "booking.get"

type GetRequestQuery struct {
	RequestID string `validate:"required"`
}

func (q GetRequestQuery) Key() string { return getRequestKey }

type GetRequestHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetRequestHandler) Handle(ctx context.Context, q GetRequestQuery) (dto.BookingRequest, error) {
	unit, execCtx, cleanup, err := uow.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingRequest{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	request, err := unit.Requests().ByID(execCtx, domainbooking.RequestID(strings.TrimSpace(q.RequestID)))
	if err != nil {
		return dto.BookingRequest{}, err
	}
	return dto.MapBookingRequest(request), nil
}

var _ queries.Handler[GetRequestQuery, dto.BookingRequest] = (*GetRequestHandler)(nil)
