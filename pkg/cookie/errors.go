package cookie

import "errors"

var (
	ErrInvalidConfig    = errors.New("cookie.invalid_config")
	ErrInvalidSignature = errors.New("cookie.invalid_signature")
	ErrDecryptionFailed = errors.New("cookie.decryption_failed")
	ErrCookieNotFound   = errors.New("cookie.not_found")
)
