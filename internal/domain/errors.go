package domain

import "errors"

var (
	// ErrValidation reports an argument that violates a call's contract
	// (negative score, nil item, negative tolerance).
	ErrValidation = errors.New("validation failed")

	// ErrLookup reports a dimension name that is not registered.
	ErrLookup = errors.New("lookup failed")

	// ErrState reports a fact registered twice, or indexed before it exists.
	ErrState = errors.New("state violation")

	// ErrQueryShape reports a query of the wrong kind for the call.
	ErrQueryShape = errors.New("unsupported query shape")
)
