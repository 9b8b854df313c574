package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid (empty food name, negative values)
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrFoodNotFound is returned when a food is not in the local store
	ErrFoodNotFound = errors.New("food not found in local store")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrProviderUnavailable is returned when a remote provider request fails
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrQuotaExhausted marks a generative failure caused by usage limits
	ErrQuotaExhausted = errors.New("generative provider quota exhausted")

	// ErrGenerativeFailure is returned when the generative provider fails and no fallback applies
	ErrGenerativeFailure = errors.New("generative provider request failed")

	// ErrPersistence is returned when custom foods cannot be written to disk
	ErrPersistence = errors.New("failed to persist custom foods")
)
