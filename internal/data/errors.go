package data

import "errors"

var (
	// ErrDataUnavailable means a source could not be reached or lacked the
	// expected columns. Views render placeholders for it.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrUnknownCategory is returned for categories a provider does not serve.
	ErrUnknownCategory = errors.New("unknown category")
)
