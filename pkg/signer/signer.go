package signer

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"strings"
	"unicode/utf8"
)

// Separator joins the encoded data and its digest.
const Separator = "--"

// Option configures a Verifier.
type Option func(*options)

type options struct {
	digest string
}

// WithDigest selects the HMAC digest by OpenSSL name.
func WithDigest(name string) Option {
	return func(o *options) { o.digest = name }
}

// Verifier produces and checks "<base64 data>--<hex digest>" messages.
// It is safe for concurrent use.
type Verifier struct {
	secret []byte
	hash   func() hash.Hash
}

func New(secret []byte, opts ...Option) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	o := options{digest: DefaultDigest}
	for _, opt := range opts {
		opt(&o)
	}

	h, err := LookupDigest(o.digest)
	if err != nil {
		return nil, err
	}

	return &Verifier{secret: secret, hash: h}, nil
}

// Generate signs data. The digest covers the base64 text, not the raw bytes.
func (v *Verifier) Generate(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	return encoded + Separator + v.Digest(encoded)
}

// Digest returns the lowercase hex HMAC of data.
func (v *Verifier) Digest(data string) string {
	mac := hmac.New(v.hash, v.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signed message and returns the decoded data.
func (v *Verifier) Verify(signed string) ([]byte, error) {
	if strings.TrimSpace(signed) == "" || !utf8.ValidString(signed) {
		return nil, ErrMalformed
	}

	parts := strings.Split(signed, Separator)
	if len(parts) != 2 {
		return nil, ErrMalformed
	}

	data, digest := parts[0], parts[1]
	if strings.TrimSpace(data) == "" || strings.TrimSpace(digest) == "" {
		return nil, ErrMalformed
	}

	if !hmac.Equal([]byte(v.Digest(data)), []byte(digest)) {
		return nil, ErrInvalidSignature
	}

	decoded, err := base64.StdEncoding.Strict().DecodeString(data)
	if err != nil {
		return nil, ErrMalformed
	}

	return decoded, nil
}

// Valid reports whether signed carries a correct digest.
func (v *Verifier) Valid(signed string) bool {
	_, err := v.Verify(signed)
	return err == nil
}
