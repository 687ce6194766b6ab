package model

import "github.com/rotisserie/eris"

// Validation and precondition errors. These stop a run before any dispatch.
var (
	ErrInvalidPincode     = eris.New("invalid pincode: must be six digits with a non-zero first digit")
	ErrNoPlatformSelected = eris.New("no platform selected")
	ErrTooManyPlatforms   = eris.New("too many platforms: at most 4 may be selected")
	ErrUnknownPlatform    = eris.New("unknown platform id")
	ErrNoItems            = eris.New("grocery list is empty")
)

// Per-call errors. These are recorded in the run summary and never abort a run.
var (
	ErrUnsupportedPlatform = eris.New("platform not supported by the extraction adapter")
	ErrExtractionFailed    = eris.New("extraction failed")
	ErrStoreWrite          = eris.New("store write failed")
)
