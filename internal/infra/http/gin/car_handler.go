package ginserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"luxrent/internal/app/dto"
	availabilityapp "luxrent/internal/app/handlers/availability"
	quotesapp "luxrent/internal/app/handlers/quotes"
	"luxrent/internal/app/queries"
	domainavailability "luxrent/internal/domain/availability"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
)

type CarHandler struct {
	Queries queries.Bus
}

// Calendar serves GET /cars/:id/calendar?month=YYYY-MM&role=start|end&start=YYYY-MM-DD.
func (h CarHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetCalendarQuery{CarID: c.Param("id")}
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		month, err := time.Parse("2006-01", raw)
		if err != nil {
			writeError(c, fmt.Errorf("%w: month must be YYYY-MM", errBadRequest))
			return
		}
		query.Year, query.Month = month.Year(), month.Month()
	}
	role, err := domainavailability.ParseRole(c.Query("role"))
	if err != nil {
		writeError(c, err)
		return
	}
	query.Role = role
	if query.Start, err = optionalDate(c, "start"); err != nil {
		writeError(c, err)
		return
	}

	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.CalendarMonth](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote serves GET /cars/:id/quote?start=&end=&tier=.
func (h CarHandler) Quote(c *gin.Context) {
	tier, err := pricing.ParseTier(c.Query("tier"))
	if err != nil {
		writeError(c, err)
		return
	}
	query := quotesapp.GetQuoteQuery{CarID: c.Param("id"), Tier: tier}
	if query.Start, err = optionalDate(c, "start"); err != nil {
		writeError(c, err)
		return
	}
	if query.End, err = optionalDate(c, "end"); err != nil {
		writeError(c, err)
		return
	}

	result, err := queries.Ask[quotesapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func optionalDate(c *gin.Context, name string) (*dateonly.Date, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := dateonly.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &d, nil
}

var _ CarHTTP = CarHandler{}
