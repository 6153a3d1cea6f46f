package cookie

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/railscookie/pkg/encryptor"
	"github.com/dmitrymomot/railscookie/pkg/keyderiv"
	"github.com/dmitrymomot/railscookie/pkg/logger"
	"github.com/dmitrymomot/railscookie/pkg/serializer"
	"github.com/dmitrymomot/railscookie/pkg/signer"
)

// Manager reads and writes legacy Rails signed and AES-CBC encrypted cookies.
// It is safe for concurrent use.
type Manager struct {
	// keys[0] derives from the current secret; the rest are rotated secrets.
	keys                []*keyderiv.Generator
	serializer          serializer.Serializer
	encryptedSalt       string
	encryptedSignedSalt string
	signedSalt          string
	cipher              string
	cipherKeyLen        int
	digest              string
	defaults            CookieOptions
	logger              *slog.Logger
}

func New(secretKeyBase string, opts ...Option) (*Manager, error) {
	s := settings{
		serializer:          serializer.JSON{},
		encryptedSalt:       DefaultEncryptedSalt,
		encryptedSignedSalt: DefaultEncryptedSignedSalt,
		signedSalt:          DefaultSignedSalt,
		iterations:          keyderiv.DefaultIterations,
		keySize:             keyderiv.DefaultKeyLength,
		cipher:              encryptor.DefaultCipher,
		digest:              signer.DefaultDigest,
		logger:              logger.Noop(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	if s.serializer == nil {
		return nil, fmt.Errorf("%w: serializer is nil", ErrInvalidConfig)
	}
	if _, err := signer.LookupDigest(s.digest); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	cipherKeyLen, err := encryptor.KeyLen(s.cipher)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if s.keySize < cipherKeyLen {
		return nil, fmt.Errorf("%w: key size %d is smaller than the %d byte %s key",
			ErrInvalidConfig, s.keySize, cipherKeyLen, s.cipher)
	}

	secrets := make([]string, 0, len(s.rotated)+1)
	secrets = append(secrets, secretKeyBase)
	for _, r := range s.rotated {
		if r = strings.TrimSpace(r); r != "" {
			secrets = append(secrets, r)
		}
	}

	keys := make([]*keyderiv.Generator, 0, len(secrets))
	for _, secret := range secrets {
		g, err := keyderiv.NewGenerator(secret,
			keyderiv.WithIterations(s.iterations),
			keyderiv.WithKeyLength(s.keySize),
		)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		keys = append(keys, g)
	}

	defaults := applyCookieOptions(CookieOptions{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, s.defaults)

	return &Manager{
		keys:                keys,
		serializer:          s.serializer,
		encryptedSalt:       s.encryptedSalt,
		encryptedSignedSalt: s.encryptedSignedSalt,
		signedSalt:          s.signedSalt,
		cipher:              s.cipher,
		cipherKeyLen:        cipherKeyLen,
		digest:              s.digest,
		defaults:            defaults,
		logger:              s.logger,
	}, nil
}

// SerializeAndSign produces a sign-only cookie value.
func (m *Manager) SerializeAndSign(v any) (string, error) {
	data, err := m.serializer.Dump(v)
	if err != nil {
		return "", err
	}
	sig, err := m.verifier(m.keys[0], m.signedSalt)
	if err != nil {
		return "", err
	}
	return sig.Generate(data), nil
}

// VerifyAndDeserialize reads a sign-only cookie value.
func (m *Manager) VerifyAndDeserialize(value string) (any, error) {
	data, _, err := m.verify(value, m.signedSalt)
	if err != nil {
		return nil, err
	}
	return m.serializer.Load(data)
}

// TryVerifyAndDeserialize is VerifyAndDeserialize reporting an invalid
// signature as ok == false instead of an error.
func (m *Manager) TryVerifyAndDeserialize(value string) (any, bool, error) {
	return lenient(m.VerifyAndDeserialize(value))
}

// Encrypt produces an encrypted and signed cookie value.
func (m *Manager) Encrypt(v any) (string, error) {
	data, err := m.serializer.Dump(v)
	if err != nil {
		return "", err
	}
	enc, err := m.encryptor(m.keys[0])
	if err != nil {
		return "", err
	}
	payload, err := enc.Encrypt(data)
	if err != nil {
		return "", err
	}
	sig, err := m.verifier(m.keys[0], m.encryptedSignedSalt)
	if err != nil {
		return "", err
	}
	return sig.Generate([]byte(payload)), nil
}

// Decrypt reads an encrypted cookie value.
func (m *Manager) Decrypt(value string) (any, error) {
	inner, key, err := m.verify(value, m.encryptedSignedSalt)
	if err != nil {
		return nil, err
	}
	enc, err := m.encryptor(key)
	if err != nil {
		return nil, err
	}

	plain, err := enc.Decrypt(string(inner))
	switch {
	case errors.Is(err, encryptor.ErrDecryptionFailed):
		m.logger.Debug("cookie decryption failed", logger.Component("cookie"), logger.Error(err))
		return nil, errors.Join(ErrDecryptionFailed, err)
	case err != nil:
		m.logger.Debug("cookie payload malformed", logger.Component("cookie"), logger.Error(err))
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	return m.serializer.Load(plain)
}

// TryDecrypt is Decrypt reporting an invalid signature as ok == false
// instead of an error.
func (m *Manager) TryDecrypt(value string) (any, bool, error) {
	return lenient(m.Decrypt(value))
}

// DecryptCookieKey decrypts the cookie named key in a raw Cookie header.
func (m *Manager) DecryptCookieKey(header, key string) (any, error) {
	value, ok := CookieValue(header, key)
	if !ok {
		return nil, notFound(key)
	}
	return m.Decrypt(value)
}

func (m *Manager) TryDecryptCookieKey(header, key string) (any, bool, error) {
	return lenient(m.DecryptCookieKey(header, key))
}

// SignedCookieKey verifies the cookie named key in a raw Cookie header.
func (m *Manager) SignedCookieKey(header, key string) (any, error) {
	value, ok := CookieValue(header, key)
	if !ok {
		return nil, notFound(key)
	}
	return m.VerifyAndDeserialize(value)
}

func (m *Manager) TrySignedCookieKey(header, key string) (any, bool, error) {
	return lenient(m.SignedCookieKey(header, key))
}

// verify checks value against each secret in turn and returns the signed
// data together with the key generator that accepted it.
func (m *Manager) verify(value, salt string) ([]byte, *keyderiv.Generator, error) {
	var lastErr error
	for _, key := range m.keys {
		sig, err := m.verifier(key, salt)
		if err != nil {
			return nil, nil, err
		}
		data, err := sig.Verify(value)
		if err == nil {
			return data, key, nil
		}
		lastErr = err
		// Structural problems do not depend on the key.
		if !errors.Is(err, signer.ErrInvalidSignature) {
			break
		}
	}
	m.logger.Debug("cookie verification failed", logger.Component("cookie"), logger.Error(lastErr))
	return nil, nil, errors.Join(ErrInvalidSignature, lastErr)
}

func (m *Manager) verifier(key *keyderiv.Generator, salt string) (*signer.Verifier, error) {
	secret, err := key.Generate(salt, key.KeyLength())
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	v, err := signer.New(secret, signer.WithDigest(m.digest))
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return v, nil
}

func (m *Manager) encryptor(key *keyderiv.Generator) (*encryptor.Encryptor, error) {
	secret, err := key.Generate(m.encryptedSalt, m.cipherKeyLen)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	enc, err := encryptor.New(secret, encryptor.WithCipher(m.cipher))
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return enc, nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %w: %q", ErrInvalidSignature, ErrCookieNotFound, name)
}

// lenient maps ErrInvalidSignature to an absent result and passes every
// other outcome through.
func lenient(v any, err error) (any, bool, error) {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return v, true, nil
}
