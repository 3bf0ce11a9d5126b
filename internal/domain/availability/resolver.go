package availability

import (
	"errors"
	"strings"

	"luxrent/internal/domain/shared/dateonly"
)

var ErrInvalidRole = errors.New("availability: selection role must be start or end")

// SelectionRole tells the resolver which end of the rental the user is picking.
type SelectionRole string

const (
	RoleStart SelectionRole = "start"
	RoleEnd   SelectionRole = "end"
)

// ParseRole accepts "start" or "end" in any case; an empty value means start.
func ParseRole(raw string) (SelectionRole, error) {
	switch SelectionRole(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleStart:
		return RoleStart, nil
	case RoleEnd:
		return RoleEnd, nil
	default:
		return "", ErrInvalidRole
	}
}

// IsSelectable decides whether candidate may be picked. The rules run in order
// and the first failing one wins:
//
//  1. days before today are never selectable;
//  2. days inside a blocked range are never selectable;
//  3. when picking the end with a start already chosen, the end must be
//     strictly after the start;
//  4. anything else is selectable.
func IsSelectable(candidate, today dateonly.Date, blocked []BlockedRange, role SelectionRole, currentStart *dateonly.Date) bool {
	if candidate.Before(today) {
		return false
	}
	if IsBlocked(candidate, blocked) {
		return false
	}
	if role == RoleEnd && currentStart != nil && !currentStart.IsZero() {
		return candidate.After(*currentStart)
	}
	return true
}
