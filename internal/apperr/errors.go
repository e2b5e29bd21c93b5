package apperr

import "errors"

// Invalid is returned when the input fails domain validation.
var Invalid = errors.New("invalid input")

// Conflict indicates a uniqueness or state conflict (HTTP 409).
var Conflict = errors.New("conflict")

// NotFound indicates that the requested resource does not exist.
var NotFound = errors.New("not found")

// InvalidState is returned when an aggregate cannot move to the requested status.
var InvalidState = errors.New("invalid state transition")

// Forbidden indicates the caller does not own the resource.
var Forbidden = errors.New("forbidden")

// Unavailable indicates an upstream dependency is down or its circuit is open.
var Unavailable = errors.New("service unavailable")
