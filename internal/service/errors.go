package service

import "errors"

var (
	// ErrInvalidInput wraps malformed requests: unresolved picks, degenerate
	// shapes, unknown filters or corners
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage wraps persistence failures
	ErrStorage = errors.New("storage failure")
	// ErrNoTemperatureData means no temperature run exists for the current AOI
	ErrNoTemperatureData = errors.New("no temperature results for the current area")
)
