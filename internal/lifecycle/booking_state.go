// Package lifecycle is the single authority for booking, bill and seat
// state coupling. Every call site that changes a booking's status goes
// through Apply instead of carrying its own copy of the transition rules.
package lifecycle

import (
	"github.com/omar10120/ksdora-backend/internal/models"
)

// Event is a requested booking lifecycle change
type Event string

const (
	EventConfirm  Event = "confirm"
	EventCancel   Event = "cancel"
	EventComplete Event = "complete"
)

// EventForStatus maps a requested target status to the lifecycle event
// driving it. Requesting "pending" is never a legal transition.
func EventForStatus(target models.BookingStatus) (Event, error) {
	switch target {
	case models.BookingStatusConfirmed:
		return EventConfirm, nil
	case models.BookingStatusCancelled:
		return EventCancel, nil
	case models.BookingStatusCompleted:
		return EventComplete, nil
	default:
		return "", models.NewValidationError("invalid target status: %s", target)
	}
}

// SeatEffect describes what happens to the booking's seats on a transition
type SeatEffect int

const (
	SeatsKeep    SeatEffect = iota // no seat change
	SeatsBook                      // seats to booked, idempotent
	SeatsRelease                   // seats back to available, idempotent
)

// BillEffect describes what happens to the booking's bill on a transition
type BillEffect int

const (
	BillKeep    BillEffect = iota // no bill change
	BillRelease                   // paid bills revert to unpaid, unpaid bills are cancelled
)

// Transition is the outcome of applying an event to a booking status
type Transition struct {
	From  models.BookingStatus
	Event Event
	To    models.BookingStatus
	Seats SeatEffect
	Bill  BillEffect
}

// Apply decides the transition for an event against the current status.
// Legal transitions: pending -> confirmed | cancelled,
// confirmed -> completed | cancelled. Terminal states accept nothing.
func Apply(current models.BookingStatus, ev Event) (Transition, error) {
	if current.IsTerminal() {
		return Transition{}, models.NewBusinessRuleError("booking already finalized (%s)", current)
	}

	t := Transition{From: current, Event: ev}
	switch {
	case current == models.BookingStatusPending && ev == EventConfirm:
		t.To = models.BookingStatusConfirmed
		t.Seats = SeatsBook
	case current == models.BookingStatusPending && ev == EventCancel:
		t.To = models.BookingStatusCancelled
		t.Seats = SeatsRelease
		t.Bill = BillRelease
	case current == models.BookingStatusConfirmed && ev == EventComplete:
		t.To = models.BookingStatusCompleted
	case current == models.BookingStatusConfirmed && ev == EventCancel:
		t.To = models.BookingStatusCancelled
		t.Seats = SeatsRelease
		t.Bill = BillRelease
	default:
		return Transition{}, models.NewBusinessRuleError("illegal transition from %s on %s", current, ev)
	}
	return t, nil
}

// AvailableActions lists the events legal from the current status,
// used by status endpoints so clients never guess at the rules.
func AvailableActions(current models.BookingStatus) []string {
	actions := []string{}
	for _, ev := range []Event{EventConfirm, EventCancel, EventComplete} {
		if _, err := Apply(current, ev); err == nil {
			actions = append(actions, string(ev))
		}
	}
	return actions
}
