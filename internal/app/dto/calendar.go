package dto

import (
	"luxrent/internal/domain/availability"
	"luxrent/internal/domain/shared/dateonly"
)

type CalendarBlock struct {
	From dateonly.Date `json:"from"`
	To   dateonly.Date `json:"to"`
}

type CalendarDay struct {
	Date       dateonly.Date `json:"date"`
	Selectable bool          `json:"selectable"`
	Past       bool          `json:"past"`
	Blocked    bool          `json:"blocked"`
}

// CalendarMonth is one month of a car's calendar evaluated for a selection role.
type CalendarMonth struct {
	CarID  string          `json:"car_id"`
	Month  string          `json:"month"`
	Role   string          `json:"role"`
	Start  *dateonly.Date  `json:"start,omitempty"`
	Today  dateonly.Date   `json:"today"`
	Days   []CalendarDay   `json:"days"`
	Blocks []CalendarBlock `json:"blocks"`
}

func MapCalendarDays(days []availability.Day) []CalendarDay {
	out := make([]CalendarDay, 0, len(days))
	for _, d := range days {
		out = append(out, CalendarDay{Date: d.Date, Selectable: d.Selectable, Past: d.Past, Blocked: d.Blocked})
	}
	return out
}

// MapCalendarBlocks drops block references; they are internal bookkeeping.
func MapCalendarBlocks(blocks []availability.BlockedRange) []CalendarBlock {
	out := make([]CalendarBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, CalendarBlock{From: b.From, To: b.To})
	}
	return out
}
