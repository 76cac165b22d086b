// Package orders covers order statuses, the customer's order history, the
// admin order list, and the admin status-update flow.
package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
)

// Status is an order's fulfilment state.
type Status string

// Order statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// LabelUnknown is shown for a status outside the fixed set.
const LabelUnknown = "Không xác định"

// ErrInvalidStatus is returned for a status outside the fixed set.
var ErrInvalidStatus = errors.New("invalid order status")

var labels = map[Status]string{
	StatusPending:    "Chờ xác nhận",
	StatusProcessing: "Đang xử lý",
	StatusShipping:   "Đang giao",
	StatusDelivered:  "Đã giao",
	StatusCancelled:  "Đã hủy",
}

// AllStatuses returns the statuses in workflow order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled}
}

// Valid reports whether s is one of the fixed statuses.
func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Label returns the Vietnamese display label.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return LabelUnknown
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// StatusOf returns the order's status, treating a missing one as pending.
func StatusOf(o bookstore.Order) Status {
	if o.OrderStatus == "" {
		return StatusPending
	}
	return Status(o.OrderStatus)
}

// normalize fills a missing status with pending.
func normalize(o *bookstore.Order) {
	if o != nil && o.OrderStatus == "" {
		o.OrderStatus = string(StatusPending)
	}
}
