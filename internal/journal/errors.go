package journal

import "errors"

// ErrNotFound indicates the requested record does not exist for the user.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a duplicate identifier collision.
var ErrConflict = errors.New("record already exists")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrMissingUserID is returned when an operation is called without a user.
var ErrMissingUserID = errors.New("missing user id")

// ErrJourneyNotStarted is returned by operations that need a journey start.
var ErrJourneyNotStarted = errors.New("journey not started")
