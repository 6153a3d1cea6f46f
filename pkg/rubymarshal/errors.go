package rubymarshal

import "errors"

var (
	ErrVersion         = errors.New("rubymarshal.unsupported_version")
	ErrTruncated       = errors.New("rubymarshal.truncated")
	ErrUnsupportedType = errors.New("rubymarshal.unsupported_type")
	ErrBadReference    = errors.New("rubymarshal.bad_reference")
	ErrTrailingData    = errors.New("rubymarshal.trailing_data")
)
