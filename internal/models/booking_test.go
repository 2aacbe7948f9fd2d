package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateBookingRequest
		wantErr string
	}{
		{
			name: "Explicit seats",
			req:  CreateBookingRequest{TripID: "t", SeatNumbers: []int{1, 2, 3}},
		},
		{
			name: "By count",
			req:  CreateBookingRequest{TripID: "t", SeatCount: 4},
		},
		{
			name: "Ten seats is the ceiling",
			req:  CreateBookingRequest{TripID: "t", SeatCount: 10},
		},
		{
			name:    "Neither selection",
			req:     CreateBookingRequest{TripID: "t"},
			wantErr: "provide either seat_numbers or seat_count",
		},
		{
			name:    "Both selections",
			req:     CreateBookingRequest{TripID: "t", SeatNumbers: []int{1}, SeatCount: 1},
			wantErr: "provide either seat_numbers or seat_count",
		},
		{
			name:    "Eleven explicit seats",
			req:     CreateBookingRequest{TripID: "t", SeatNumbers: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
			wantErr: "maximum 10 seats",
		},
		{
			name:    "Eleven by count",
			req:     CreateBookingRequest{TripID: "t", SeatCount: 11},
			wantErr: "maximum 10 seats",
		},
		{
			name:    "Duplicate seat number",
			req:     CreateBookingRequest{TripID: "t", SeatNumbers: []int{5, 5}},
			wantErr: "duplicate seat number",
		},
		{
			name:    "Non-positive seat number",
			req:     CreateBookingRequest{TripID: "t", SeatNumbers: []int{0}},
			wantErr: "seat numbers must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			appErr, ok := AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, ErrKindValidation, appErr.Kind)
		})
	}
}
