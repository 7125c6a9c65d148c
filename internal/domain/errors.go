package domain

import "errors"

var (
	// ErrMalformedRecord marks an input row that cannot be turned into a usable record.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrSchema marks input whose columns do not match the expected layout.
	ErrSchema = errors.New("unexpected input schema")
	// ErrSourceUnavailable marks an input source that cannot be opened or fetched.
	ErrSourceUnavailable = errors.New("input source unavailable")
)
