package service

import (
	"testing"

	"mandihub/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusConfirmed, true},
		{models.OrderStatusPending, models.OrderStatusRejected, true},
		{models.OrderStatusConfirmed, models.OrderStatusAssigned, true},
		{models.OrderStatusAssigned, models.OrderStatusPickedUp, true},
		{models.OrderStatusPickedUp, models.OrderStatusDelivered, true},

		// No skips.
		{models.OrderStatusPending, models.OrderStatusAssigned, false},
		{models.OrderStatusConfirmed, models.OrderStatusPickedUp, false},
		{models.OrderStatusAssigned, models.OrderStatusDelivered, false},

		// No backward moves.
		{models.OrderStatusConfirmed, models.OrderStatusPending, false},
		{models.OrderStatusDelivered, models.OrderStatusPickedUp, false},

		// Terminal states.
		{models.OrderStatusRejected, models.OrderStatusConfirmed, false},
		{models.OrderStatusDelivered, models.OrderStatusDelivered, false},

		// Self-loops are never allowed.
		{models.OrderStatusPending, models.OrderStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCheckTransitionWrapsInvalidTransition(t *testing.T) {
	err := checkTransition(models.OrderStatusRejected, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	assert.NoError(t, checkTransition(models.OrderStatusPending, models.OrderStatusConfirmed))
}
