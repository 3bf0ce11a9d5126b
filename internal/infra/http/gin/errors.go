package ginserver

import (
	"errors"
	"fmt"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"luxrent/internal/app/middleware"
	"luxrent/internal/app/uow"
	domainavailability "luxrent/internal/domain/availability"
	domainbooking "luxrent/internal/domain/booking"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
)

// bind decodes the request into req and writes a 400 response on failure.
func bind(c *gin.Context, req any, b binding.Binding) bool {
	err := c.ShouldBindWith(req, b)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		err = fmt.Errorf("%w: %v", errBadRequest, err)
	}
	writeError(c, err)
	return false
}

// writeError maps application errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := map[string][]string{}
		for _, ferr := range verrs {
			fields[ferr.Field()] = append(fields[ferr.Field()], ferr.Error())
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domaincars.ErrCarNotFound),
		errors.Is(err, domainbooking.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainavailability.ErrOverlappingRange),
		errors.Is(err, uow.ErrConcurrentUpdate),
		errors.Is(err, middleware.ErrIdempotencyKeyReused),
		errors.Is(err, middleware.ErrIdempotencyInFlight):
		return http.StatusConflict
	case errors.Is(err, domainbooking.ErrNonPositiveDuration),
		errors.Is(err, domainbooking.ErrBlockedDateInRange),
		errors.Is(err, domainbooking.ErrStartInPast),
		errors.Is(err, domainbooking.ErrQuoteUnavailable),
		errors.Is(err, domainbooking.ErrCustomerRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pricing.ErrUnknownTier),
		errors.Is(err, domainavailability.ErrInvalidRole),
		errors.Is(err, dateonly.ErrInvalidDate),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")
