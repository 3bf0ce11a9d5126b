package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxrent/internal/app/commands"
	bookingapp "luxrent/internal/app/handlers/booking"
	appoutbox "luxrent/internal/app/outbox"
	domainavailability "luxrent/internal/domain/availability"
	"luxrent/internal/infra/storage/memory"
)

type recordingBus struct {
	got          []bookingapp.ApplyDecisionCommand
	correlations []string
	fail         error
}

func (b *recordingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	decision, ok := cmd.(bookingapp.ApplyDecisionCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command %T", cmd)
	}
	b.got = append(b.got, decision)
	b.correlations = append(b.correlations, appoutbox.CorrelationID(ctx))
	if b.fail != nil {
		return nil, b.fail
	}
	return &bookingapp.ApplyDecisionResult{Changed: true}, nil
}

func message(id, eventType, data string) *sarama.ConsumerMessage {
	value := fmt.Sprintf(`{"specversion":"1.0","id":%q,"type":%q,"data":%s}`, id, eventType, data)
	return &sarama.ConsumerMessage{Topic: "booking.events.v1", Value: []byte(value)}
}

const acceptedData = `{"request_id":"req-1","car_id":"ghost","start":"2025-06-10","end":"2025-06-14"}`

func TestDecisionHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepted event blocks once", func(t *testing.T) {
		bus := &recordingBus{}
		h := &DecisionHandler{Commands: bus, Inbox: memory.NewInbox()}

		require.NoError(t, h.Handle(ctx, message("e1", "booking.accepted.v1", acceptedData)))
		require.NoError(t, h.Handle(ctx, message("e1", "booking.accepted.v1", acceptedData)))

		require.Len(t, bus.got, 1)
		cmd := bus.got[0]
		assert.Equal(t, bookingapp.DecisionAccepted, cmd.Decision)
		assert.Equal(t, "req-1", cmd.RequestID)
		assert.Equal(t, "ghost", cmd.CarID)
		assert.Equal(t, "2025-06-10", cmd.Start.String())
		assert.Equal(t, "2025-06-14", cmd.End.String())
		assert.Equal(t, []string{"e1"}, bus.correlations)
	})

	t.Run("Correlation id is carried over", func(t *testing.T) {
		bus := &recordingBus{}
		h := &DecisionHandler{Commands: bus}
		value := `{"id":"e9","type":"booking.rejected.v1","correlationid":"req-http-7","data":{"request_id":"req-1","car_id":"ghost"}}`
		require.NoError(t, h.Handle(ctx, &sarama.ConsumerMessage{Value: []byte(value)}))
		assert.Equal(t, []string{"req-http-7"}, bus.correlations)
	})

	t.Run("Rejected event needs no dates", func(t *testing.T) {
		bus := &recordingBus{}
		h := &DecisionHandler{Commands: bus, Inbox: memory.NewInbox()}
		require.NoError(t, h.Handle(ctx, message("e2", "booking.rejected.v1", `{"request_id":"req-1","car_id":"ghost"}`)))
		require.Len(t, bus.got, 1)
		assert.Equal(t, bookingapp.DecisionRejected, bus.got[0].Decision)
	})

	t.Run("Other events and garbage are skipped", func(t *testing.T) {
		bus := &recordingBus{}
		h := &DecisionHandler{Commands: bus}
		assert.NoError(t, h.Handle(ctx, message("e3", "booking.requested.v1", acceptedData)))
		assert.NoError(t, h.Handle(ctx, &sarama.ConsumerMessage{Value: []byte("{")}))
		assert.NoError(t, h.Handle(ctx, message("e4", "booking.accepted.v1", `{"request_id":"req-1","car_id":"ghost","start":"soon"}`)))
		assert.Empty(t, bus.got)
	})

	t.Run("Permanent failure is acknowledged", func(t *testing.T) {
		bus := &recordingBus{fail: domainavailability.ErrOverlappingRange}
		inbox := memory.NewInbox()
		h := &DecisionHandler{Commands: bus, Inbox: inbox}
		require.NoError(t, h.Handle(ctx, message("e5", "booking.accepted.v1", acceptedData)))

		seen, err := inbox.Seen(ctx, "e5")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("Transient failure is redelivered", func(t *testing.T) {
		bus := &recordingBus{fail: errors.New("mongo unavailable")}
		inbox := memory.NewInbox()
		h := &DecisionHandler{Commands: bus, Inbox: inbox}
		require.Error(t, h.Handle(ctx, message("e6", "booking.accepted.v1", acceptedData)))

		bus.fail = nil
		require.NoError(t, h.Handle(ctx, message("e6", "booking.accepted.v1", acceptedData)))
		assert.Len(t, bus.got, 2)
	})
}
