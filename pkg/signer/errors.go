package signer

import "errors"

var (
	ErrEmptySecret       = errors.New("signer.empty_secret")
	ErrUnsupportedDigest = errors.New("signer.unsupported_digest")
	ErrMalformed         = errors.New("signer.malformed_message")
	ErrInvalidSignature  = errors.New("signer.invalid_signature")
)
