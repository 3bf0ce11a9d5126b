package ginserver

import (
	"fmt"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"luxrent/internal/app/commands"
	"luxrent/internal/app/dto"
	bookingapp "luxrent/internal/app/handlers/booking"
	"luxrent/internal/app/queries"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type customerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

type createBookingRequest struct {
	CarID    string          `json:"car_id" binding:"required"`
	Start    string          `json:"start" binding:"required"`
	End      string          `json:"end" binding:"required"`
	Tier     string          `json:"tier"`
	Customer customerRequest `json:"customer"`
	Message  string          `json:"message"`
}

type rejectBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if !bind(c, &req, binding.JSON) {
		return
	}
	start, err := dateonly.Parse(req.Start)
	if err != nil {
		writeError(c, fmt.Errorf("start: %w", err))
		return
	}
	end, err := dateonly.Parse(req.End)
	if err != nil {
		writeError(c, fmt.Errorf("end: %w", err))
		return
	}
	tier, err := pricing.ParseTier(req.Tier)
	if err != nil {
		writeError(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID: generateCommandID(),
		CarID:     req.CarID,
		Start:     start,
		End:       end,
		Tier:      tier,
		Customer: bookingapp.CustomerInput{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Message:         req.Message,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	query := bookingapp.GetRequestQuery{RequestID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetRequestQuery, dto.BookingRequest](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Accept(c *gin.Context) {
	cmd := bookingapp.AcceptRequestCommand{RequestID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.AcceptRequestCommand, *bookingapp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Reject(c *gin.Context) {
	var req rejectBookingRequest
	if c.Request.ContentLength != 0 && !bind(c, &req, binding.JSON) {
		return
	}
	cmd := bookingapp.RejectRequestCommand{RequestID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.RejectRequestCommand, *bookingapp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
