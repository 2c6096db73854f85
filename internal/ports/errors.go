package ports

import "errors"

var (
	// ErrNotFound is returned when a shipment, vehicle or plan does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a commit finds shipments or a vehicle in a
	// state other than the one the plan was computed from.
	ErrConflict = errors.New("conflict")
)
