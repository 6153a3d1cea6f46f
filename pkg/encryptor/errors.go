package encryptor

import "errors"

var (
	ErrUnsupportedCipher = errors.New("encryptor.unsupported_cipher")
	ErrInvalidKeyLength  = errors.New("encryptor.invalid_key_length")
	ErrEncryptionFailed  = errors.New("encryptor.encryption_failed")
	ErrInvalidPayload    = errors.New("encryptor.invalid_payload")
	ErrDecryptionFailed  = errors.New("encryptor.decryption_failed")
)
