package sampler

import "errors"

var (
	// Format errors, returned when reading serialized sampler state.
	ErrFormat      = errors.New("sampler: malformed sampler data")
	ErrUnknownType = errors.New("sampler: unknown frame sampler type")

	// Shape errors. The operation is rejected before any state changes.
	ErrSamplerMismatch   = errors.New("sampler: incompatible frame sampler type")
	ErrDimensionMismatch = errors.New("sampler: frame sampler dimensions do not match")
	ErrInvalidDimensions = errors.New("sampler: invalid image dimensions")
	ErrSPPOverflow       = errors.New("sampler: samples per pixel exceed the dump format limit")

	ErrAdaptiveNotImplemented = errors.New("sampler: adaptive frame sampler is not implemented")
)
