package keyderiv

import "errors"

var (
	ErrEmptySecret       = errors.New("keyderiv.empty_secret")
	ErrInvalidIterations = errors.New("keyderiv.invalid_iterations")
	ErrInvalidLength     = errors.New("keyderiv.invalid_length")
)
