package encryptor

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Separator joins the encoded ciphertext and IV.
const Separator = "--"

// Option configures an Encryptor.
type Option func(*options)

type options struct {
	cipher string
	random io.Reader
}

// WithCipher selects the cipher by OpenSSL name, e.g. "aes-256-cbc".
func WithCipher(name string) Option {
	return func(o *options) { o.cipher = name }
}

// WithRandom replaces the IV source. Nil readers are ignored.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.random = r
		}
	}
}

// Encryptor implements the Rails MessageEncryptor CBC format:
//
//	<base64 ciphertext>--<base64 iv>
//
// It is safe for concurrent use.
type Encryptor struct {
	block  cipher.Block
	random io.Reader
}

func New(key []byte, opts ...Option) (*Encryptor, error) {
	o := options{cipher: DefaultCipher, random: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}

	keyLen, err := KeyLen(o.cipher)
	if err != nil {
		return nil, err
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidKeyLength, normalize(o.cipher), keyLen, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrInvalidKeyLength, err)
	}

	return &Encryptor{block: block, random: o.random}, nil
}

// Encrypt pads plain with PKCS#7 and encrypts it under a fresh random IV.
func (e *Encryptor) Encrypt(plain []byte) (string, error) {
	size := e.block.BlockSize()

	iv := make([]byte, size)
	if _, err := io.ReadFull(e.random, iv); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	padded := pad(plain, size)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(e.block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext) + Separator + base64.StdEncoding.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(payload string) ([]byte, error) {
	parts := strings.Split(payload, Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrInvalidPayload
	}

	ciphertext, err := base64.StdEncoding.Strict().DecodeString(parts[0])
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	iv, err := base64.StdEncoding.Strict().DecodeString(parts[1])
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	size := e.block.BlockSize()
	if len(iv) != size {
		return nil, fmt.Errorf("%w: iv is %d bytes, want %d", ErrInvalidPayload, len(iv), size)
	}
	if len(ciphertext) == 0 || len(ciphertext)%size != 0 {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes", ErrInvalidPayload, len(ciphertext))
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(e.block, iv).CryptBlocks(plain, ciphertext)

	return unpad(plain, size)
}

func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, size int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, ErrDecryptionFailed
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrDecryptionFailed
		}
	}
	return data[:len(data)-n], nil
}
