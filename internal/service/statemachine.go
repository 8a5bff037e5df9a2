package service

import (
	"fmt"

	"mandihub/internal/models"
)

// orderTransitions is the allowed-transition table for the order lifecycle.
// pending -> confirmed|rejected is the farmer's decision; confirmed ->
// assigned is the vendor claim; assigned -> picked-up -> delivered is the
// delivery sub-machine. rejected and delivered are terminal. Transitions
// never skip states and never move backward.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusRejected},
	models.OrderStatusConfirmed: {models.OrderStatusAssigned},
	models.OrderStatusAssigned:  {models.OrderStatusPickedUp},
	models.OrderStatusPickedUp:  {models.OrderStatusDelivered},
	models.OrderStatusRejected:  {},
	models.OrderStatusDelivered: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition returns a descriptive InvalidTransition error when the
// requested move is not in the table.
func checkTransition(from, to models.OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("cannot transition from %s to %s: %w",
			from, to, models.ErrInvalidTransition)
	}
	return nil
}
