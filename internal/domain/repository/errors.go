package repository

import "errors"

var (
	// ErrSymbolNotFound means the provider recognizes the request but has no
	// such ticker.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrRateLimited means the outbound quota for the provider is exhausted.
	ErrRateLimited = errors.New("provider rate limited")
)
