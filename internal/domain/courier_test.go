package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCourier_Release(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    CourierStatus
		want    CourierStatus
		changed bool
	}{
		{name: "busy becomes available", from: StatusBusy, want: StatusAvailable, changed: true},
		{name: "offline wins", from: StatusOffline, want: StatusOffline},
		{name: "on break kept", from: StatusOnBreak, want: StatusOnBreak},
		{name: "already available", from: StatusAvailable, want: StatusAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Courier{Status: tt.from}
			require.Equal(t, tt.changed, c.Release())
			require.Equal(t, tt.want, c.Status)
		})
	}
}

func TestCourier_AddRating(t *testing.T) {
	t.Parallel()

	c := &Courier{}
	c.AddRating(4)
	require.InDelta(t, 4.0, c.AverageRating, 1e-9)

	c.AddRating(5)
	require.InDelta(t, 4.5, c.AverageRating, 1e-9)
	require.Equal(t, 2, c.RatingCount)
}

func TestCourierStatus_Settable(t *testing.T) {
	t.Parallel()

	require.True(t, StatusAvailable.Settable())
	require.True(t, StatusOffline.Settable())
	require.False(t, StatusBusy.Settable())
	require.False(t, CourierStatus("LOST").Settable())
}
