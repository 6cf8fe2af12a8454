package service

import (
	"fmt"

	"github.com/fulfil-next/internal/constants"
)

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusPaid:      true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusShipped:    true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
	},
}

// InvalidTransitionError 非法状态流转，携带当前与目标状态
type InvalidTransitionError struct {
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order status transition invalid: %s -> %s", e.Current, e.Requested)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrOrderStatusInvalid
}

// CanTransition 判断状态流转是否允许
func CanTransition(from, to string) bool {
	return allowedTransitions[from][to]
}

// IsTerminalStatus 已送达与已取消为终态
func IsTerminalStatus(status string) bool {
	return len(allowedTransitions[status]) == 0
}

func checkTransition(from, to string) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{Current: from, Requested: to}
	}
	return nil
}
