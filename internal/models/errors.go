package models

import "errors"

// Errors that block forward progress of a turn and must reach the caller
// typed. Everything else in the pipeline is defaulted locally or reported to
// the analytics collaborator and swallowed.
var (
	// ErrMissingDestination means a Place turn cannot be formatted because no
	// destination location was ever selected or resolved.
	ErrMissingDestination = errors.New("no destination location selected")

	// ErrGeocodingFailed means the near-phrase of a Location turn resolved to
	// nothing; there is no meaningful search location without it.
	ErrGeocodingFailed = errors.New("near phrase could not be geocoded")
)
