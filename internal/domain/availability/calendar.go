package availability

import (
	"errors"
	"sort"
	"time"

	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/domain/shared/events"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: range not found")
	ErrInvalidBlock     = errors.New("availability: block must not end before it starts")
)

// Calendar holds the unavailable dates of one car.
type Calendar struct {
	CarID  string
	Blocks []BlockedRange
	events.EventRecorder
}

func NewCalendar(carID string, blocks []BlockedRange) *Calendar {
	c := &Calendar{CarID: carID, Blocks: append([]BlockedRange(nil), blocks...)}
	c.sort()
	return c
}

// CanBlock reports whether the inclusive window [from, to] is free.
func (c *Calendar) CanBlock(from, to dateonly.Date) bool {
	for _, b := range c.Blocks {
		if b.Intersects(from, to) {
			return false
		}
	}
	return true
}

// Block marks [from, to] as unavailable. Blocking again with a reference that
// is already present is a no-op so that replayed events stay harmless.
func (c *Calendar) Block(from, to dateonly.Date, reference string, now time.Time) error {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return ErrInvalidBlock
	}
	if reference != "" {
		if _, ok := c.find(reference); ok {
			return nil
		}
	}
	if !c.CanBlock(from, to) {
		c.Record(CalendarOverbookingPreventedEvent(c.CarID, from, to, reference, now))
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, BlockedRange{From: from, To: to, Reference: reference})
	c.sort()
	c.Record(CalendarBlockedEvent(c.CarID, from, to, reference, now))
	return nil
}

func (c *Calendar) Release(reference string, now time.Time) error {
	idx, ok := c.find(reference)
	if !ok {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx], c.Blocks[idx+1:]...)
	c.Record(CalendarReleasedEvent(c.CarID, removed.From, removed.To, reference, now))
	return nil
}

func (c *Calendar) find(reference string) (int, bool) {
	if reference == "" {
		return -1, false
	}
	for i, b := range c.Blocks {
		if b.Reference == reference {
			return i, true
		}
	}
	return -1, false
}

func (c *Calendar) sort() {
	sort.SliceStable(c.Blocks, func(i, j int) bool {
		return c.Blocks[i].From.Before(c.Blocks[j].From)
	})
}
