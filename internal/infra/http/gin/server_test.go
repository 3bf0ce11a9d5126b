package ginserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"

	"luxrent/internal/app/commands"
	availabilityapp "luxrent/internal/app/handlers/availability"
	bookingapp "luxrent/internal/app/handlers/booking"
	quotesapp "luxrent/internal/app/handlers/quotes"
	"luxrent/internal/app/handlers/support"
	"luxrent/internal/app/middleware"
	"luxrent/internal/app/queries"
	domainavailability "luxrent/internal/domain/availability"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/infra/obs"
	"luxrent/internal/infra/storage/memory"
)

type ServerSuite struct {
	suite.Suite
	router *gin.Engine
	box    *memory.Outbox
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	cars := memory.NewCarRepository()
	car, err := domaincars.NewCar(domaincars.CreateParams{
		ID:      "ghost",
		Brand:   "Rolls-Royce",
		Model:   "Ghost",
		Pricing: pricing.RateSchedule{Daily: 300, Weekly: 1500},
		Unavailable: []domainavailability.BlockedRange{
			{From: dateonly.MustParse("2025-07-10"), To: dateonly.MustParse("2025-07-15")},
		},
	})
	s.Require().NoError(err)
	s.Require().NoError(cars.Save(context.Background(), car))

	s.box = memory.NewOutbox()
	factory := &memory.Factory{CarsRepo: cars, RequestsRepo: memory.NewRequestRepository(), Outbox: s.box}
	clock := support.Clock{Now: func() time.Time { return time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC) }}

	commandBus := commands.NewInMemoryBus()
	commands.Register(commandBus, &bookingapp.RequestBookingHandler{UoWFactory: factory, Outbox: s.box, Clock: clock})
	commands.Register(commandBus, &bookingapp.AcceptRequestHandler{UoWFactory: factory, Outbox: s.box, Clock: clock})
	commands.Register(commandBus, &bookingapp.RejectRequestHandler{UoWFactory: factory, Outbox: s.box, Clock: clock})
	queryBus := queries.NewInMemoryBus()
	queries.Register(queryBus, &availabilityapp.GetCalendarHandler{UoWFactory: factory, Clock: clock})
	queries.Register(queryBus, &quotesapp.GetQuoteHandler{UoWFactory: factory, Clock: clock})
	queries.Register(queryBus, &bookingapp.GetRequestHandler{UoWFactory: factory})

	validate := middleware.NewStructValidator()
	cmds := middleware.ChainCommands(commandBus,
		middleware.Validation(validate),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Transaction(factory, middleware.RetryOnConflict(1)),
		middleware.OutboxFlush(s.box, nil),
	)
	qs := middleware.ChainQueries(queryBus, middleware.QueryValidation(validate))

	s.router = NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Cars:    CarHandler{Queries: qs},
		Booking: BookingHandler{Commands: cmds, Queries: qs},
	})
}

func (s *ServerSuite) do(method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func bookingBody(start, end string) map[string]any {
	return map[string]any{
		"car_id":   "ghost",
		"start":    start,
		"end":      end,
		"customer": map[string]any{"name": "Ada", "email": "ada@example.com"},
	}
}

func (s *ServerSuite) TestHealth() {
	rec, _ := s.do(http.MethodGet, "/livez", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
	rec, body := s.do(http.MethodGet, "/readyz", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ready", body["status"])
}

func (s *ServerSuite) TestCalendar() {
	rec, body := s.do(http.MethodGet, "/api/v1/cars/ghost/calendar?month=2025-07", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("2025-07", body["month"])
	s.Equal("2025-06-01", body["today"])
	days := body["days"].([]any)
	s.Len(days, 31)
	tenth := days[9].(map[string]any)
	s.Equal("2025-07-10", tenth["date"])
	s.Equal(true, tenth["blocked"])
	s.Equal(false, tenth["selectable"])

	rec, body = s.do(http.MethodGet, "/api/v1/cars/ghost/calendar?month=2025-06&role=end&start=2025-06-10", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	days = body["days"].([]any)
	s.Equal(false, days[9].(map[string]any)["selectable"])
	s.Equal(true, days[10].(map[string]any)["selectable"])

	rec, _ = s.do(http.MethodGet, "/api/v1/cars/ghost/calendar?month=July", nil, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/cars/ghost/calendar?role=middle", nil, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/cars/ghost/calendar?start=06/10/2025", nil, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/cars/missing/calendar", nil, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerSuite) TestQuote() {
	rec, body := s.do(http.MethodGet, "/api/v1/cars/ghost/quote?start=2025-06-01&end=2025-06-10&tier=weekly", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.EqualValues(9, body["days"])
	s.EqualValues(2, body["periods"])
	s.EqualValues(3000, body["total_price"])
	s.Equal("ok", body["status"])
	s.Equal(true, body["bookable"])

	rec, body = s.do(http.MethodGet, "/api/v1/cars/ghost/quote", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("select_dates", body["status"])
	s.Equal("Select dates", body["label"])

	rec, body = s.do(http.MethodGet, "/api/v1/cars/ghost/quote?start=2025-06-01&end=2025-06-20&tier=monthly", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("N/A", body["label"])
	s.EqualValues(0, body["total_price"])

	rec, _ = s.do(http.MethodGet, "/api/v1/cars/ghost/quote?tier=hourly", nil, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/cars/ghost/quote?start=tomorrow", nil, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestBookingLifecycle() {
	rec, body := s.do(http.MethodPost, "/api/v1/bookings", bookingBody("2025-06-10", "2025-06-14"), map[string]string{"Idempotency-Key": "k-1"})
	s.Require().Equal(http.StatusAccepted, rec.Code, rec.Body.String())
	id, _ := body["request_id"].(string)
	s.Require().NotEmpty(id)
	s.Equal("PENDING", body["status"])
	s.EqualValues(4, body["days"])
	s.EqualValues(1200, body["total_price"])

	rec, replay := s.do(http.MethodPost, "/api/v1/bookings", bookingBody("2025-06-10", "2025-06-14"), map[string]string{"Idempotency-Key": "k-1"})
	s.Require().Equal(http.StatusAccepted, rec.Code)
	s.Equal(id, replay["request_id"])
	s.Len(s.box.Pending(), 1, "replay does not submit twice")

	rec, _ = s.do(http.MethodPost, "/api/v1/bookings", bookingBody("2025-06-20", "2025-06-24"), map[string]string{"Idempotency-Key": "k-1"})
	s.Equal(http.StatusConflict, rec.Code, "same key, other dates")

	rec, body = s.do(http.MethodGet, "/api/v1/bookings/"+id, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("ghost", body["car_id"])
	s.Equal("2025-06-10", body["start"])

	rec, body = s.do(http.MethodPost, "/api/v1/bookings/"+id+"/accept", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("ACCEPTED", body["status"])

	rec, _ = s.do(http.MethodPost, "/api/v1/bookings/"+id+"/accept", nil, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec, body = s.do(http.MethodGet, "/api/v1/cars/ghost/quote?start=2025-06-12&end=2025-06-16", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(false, body["bookable"], "accepted dates are now blocked")

	rec, _ = s.do(http.MethodPost, "/api/v1/bookings", bookingBody("2025-06-12", "2025-06-16"), nil)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *ServerSuite) TestReject() {
	rec, body := s.do(http.MethodPost, "/api/v1/bookings", bookingBody("2025-06-10", "2025-06-14"), nil)
	s.Require().Equal(http.StatusAccepted, rec.Code)
	id := body["request_id"].(string)

	rec, body = s.do(http.MethodPost, "/api/v1/bookings/"+id+"/reject", map[string]any{"reason": "car in service"}, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("REJECTED", body["status"])
	s.Equal("car in service", body["reason"])

	rec, _ = s.do(http.MethodPost, "/api/v1/bookings/missing/reject", nil, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerSuite) TestCreateBookingErrors() {
	noName := bookingBody("2025-06-10", "2025-06-14")
	noName["customer"] = map[string]any{"email": "ada@example.com"}
	rec, body := s.do(http.MethodPost, "/api/v1/bookings", noName, nil)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation failed", body["error"])
	s.Contains(body["fields"], "Name")

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"start in the past", bookingBody("2025-05-20", "2025-05-25"), http.StatusUnprocessableEntity},
		{"end before start", bookingBody("2025-06-14", "2025-06-10"), http.StatusUnprocessableEntity},
		{"blocked dates", bookingBody("2025-07-08", "2025-07-11"), http.StatusUnprocessableEntity},
		{"bad date", bookingBody("2025-06-31", "2025-07-02"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec, _ := s.do(http.MethodPost, "/api/v1/bookings", tt.body, nil)
			s.Equal(tt.status, rec.Code, rec.Body.String())
		})
	}

	noContact := bookingBody("2025-06-10", "2025-06-14")
	noContact["customer"] = map[string]any{"name": "Ada"}
	rec, _ = s.do(http.MethodPost, "/api/v1/bookings", noContact, nil)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	unknownCar := bookingBody("2025-06-10", "2025-06-14")
	unknownCar["car_id"] = "missing"
	rec, _ = s.do(http.MethodPost, "/api/v1/bookings", unknownCar, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerSuite) TestStatusFor() {
	s.Equal(http.StatusInternalServerError, statusFor(context.DeadlineExceeded))
	s.Equal(http.StatusConflict, statusFor(memory.ErrConcurrentUpdate))
	s.Equal(http.StatusConflict, statusFor(middleware.ErrIdempotencyKeyReused))
	s.Equal(http.StatusConflict, statusFor(middleware.ErrIdempotencyInFlight))
}

func (s *ServerSuite) TestMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}
