package domain

import "errors"

// Sentinel errors shared across packages. Wrap with fmt.Errorf("...: %w", err)
// to add context; compare with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidAlert = errors.New("invalid alert")
	ErrPropMarket   = errors.New("prop or derivative market")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
)
