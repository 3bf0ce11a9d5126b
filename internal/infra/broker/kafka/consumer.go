package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// MessageHandler processes one record. A nil error commits the offset; an
// error leaves it for redelivery.
type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer feeds a consumer group's records to a MessageHandler.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = NewConfig("luxrent")
	}
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return NewConsumerFrom(group, handler, logger), nil
}

func NewConsumerFrom(group sarama.ConsumerGroup, handler MessageHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: group, handler: handler, logger: logger}
}

// Run joins the group and consumes topics until ctx ends or the group is
// closed. Each rebalance ends one Consume call, so it loops.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	go c.logErrors()
	for {
		err := c.group.Consume(ctx, topics, groupHandler{handler: c.handler, logger: c.logger})
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return nil
		case err != nil:
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		}
	}
}

func (c *Consumer) logErrors() {
	for err := range c.group.Errors() {
		c.logger.Warn("kafka consumer group error", "error", err)
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim stops at the first record the handler fails. Returning the
// error ends the session, so the group rejoins and the record is delivered
// again from the last committed offset.
func (h groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handler.Handle(sess.Context(), msg); err != nil {
				h.logger.Warn("kafka message handling failed",
					"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
				pause(sess.Context(), redeliveryDelay)
				return err
			}
			sess.MarkMessage(msg, "")
		}
	}
}

const redeliveryDelay = time.Second

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
