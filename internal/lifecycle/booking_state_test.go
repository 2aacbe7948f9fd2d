package lifecycle

import (
	"testing"

	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_LegalTransitions(t *testing.T) {
	tests := []struct {
		name      string
		from      models.BookingStatus
		event     Event
		wantTo    models.BookingStatus
		wantSeats SeatEffect
		wantBill  BillEffect
	}{
		{"pending confirm", models.BookingStatusPending, EventConfirm, models.BookingStatusConfirmed, SeatsBook, BillKeep},
		{"pending cancel", models.BookingStatusPending, EventCancel, models.BookingStatusCancelled, SeatsRelease, BillRelease},
		{"confirmed complete", models.BookingStatusConfirmed, EventComplete, models.BookingStatusCompleted, SeatsKeep, BillKeep},
		{"confirmed cancel", models.BookingStatusConfirmed, EventCancel, models.BookingStatusCancelled, SeatsRelease, BillRelease},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Apply(tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.from, tr.From)
			assert.Equal(t, tt.event, tr.Event)
			assert.Equal(t, tt.wantTo, tr.To)
			assert.Equal(t, tt.wantSeats, tr.Seats)
			assert.Equal(t, tt.wantBill, tr.Bill)
		})
	}
}

func TestApply_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		from  models.BookingStatus
		event Event
	}{
		{"pending complete", models.BookingStatusPending, EventComplete},
		{"confirmed confirm", models.BookingStatusConfirmed, EventConfirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(tt.from, tt.event)
			require.Error(t, err)

			appErr, ok := models.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, models.ErrKindBusinessRule, appErr.Kind)
		})
	}
}

func TestApply_TerminalStatesAreImmutable(t *testing.T) {
	for _, status := range []models.BookingStatus{models.BookingStatusCompleted, models.BookingStatusCancelled} {
		for _, ev := range []Event{EventConfirm, EventCancel, EventComplete} {
			_, err := Apply(status, ev)
			require.Error(t, err, "status=%s event=%s", status, ev)
			assert.Contains(t, err.Error(), "already finalized")
		}
	}
}

func TestEventForStatus(t *testing.T) {
	ev, err := EventForStatus(models.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, EventConfirm, ev)

	ev, err = EventForStatus(models.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, EventCancel, ev)

	ev, err = EventForStatus(models.BookingStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, EventComplete, ev)

	// pending is never a legal target
	_, err = EventForStatus(models.BookingStatusPending)
	assert.Error(t, err)

	_, err = EventForStatus(models.BookingStatus("unknown"))
	assert.Error(t, err)
}

func TestAvailableActions(t *testing.T) {
	assert.Equal(t, []string{"confirm", "cancel"}, AvailableActions(models.BookingStatusPending))
	assert.Equal(t, []string{"cancel", "complete"}, AvailableActions(models.BookingStatusConfirmed))
	assert.Empty(t, AvailableActions(models.BookingStatusCompleted))
	assert.Empty(t, AvailableActions(models.BookingStatusCancelled))
}
