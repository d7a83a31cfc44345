package orders

import "errors"

var (
	// ErrNotFound means no order has the requested id.
	ErrNotFound = errors.New("order not found")
	// ErrForbidden means the order exists but belongs to someone else.
	ErrForbidden = errors.New("order belongs to another user")
	// ErrUnauthenticated means no caller identity was supplied.
	ErrUnauthenticated = errors.New("caller identity missing")
)
