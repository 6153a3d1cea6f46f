package keyderiv

import (
	"crypto/sha1"
	"fmt"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations matches ActiveSupport::KeyGenerator.
	DefaultIterations = 1000
	// DefaultKeyLength is the size in bytes of every derived secret.
	DefaultKeyLength = 64
)

// Derive runs PBKDF2-HMAC-SHA1 over secret and salt.
// The result is deterministic for identical inputs.
func Derive(secret, salt []byte, iterations, length int) ([]byte, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIterations, iterations)
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	return pbkdf2.Key(secret, salt, iterations, length, sha1.New), nil
}

// Option configures a Generator.
type Option func(*Generator)

// WithIterations overrides the PBKDF2 iteration count.
func WithIterations(n int) Option {
	return func(g *Generator) { g.iterations = n }
}

// WithKeyLength overrides the derived key length in bytes.
func WithKeyLength(n int) Option {
	return func(g *Generator) { g.keyLength = n }
}

// Generator derives and caches one secret per salt.
// It is safe for concurrent use.
type Generator struct {
	secret     []byte
	iterations int
	keyLength  int

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once sync.Once
	key  []byte
}

// NewGenerator returns a Generator for the given application secret.
func NewGenerator(secret string, opts ...Option) (*Generator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	g := &Generator{
		secret:     []byte(secret),
		iterations: DefaultIterations,
		keyLength:  DefaultKeyLength,
		entries:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.iterations <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIterations, g.iterations)
	}
	if g.keyLength <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, g.keyLength)
	}

	return g, nil
}

// KeyLength reports the length of a full derived secret.
func (g *Generator) KeyLength() int {
	return g.keyLength
}

// Generate returns the first length bytes of the secret derived for salt.
// The full-length secret is computed once per salt and reused afterwards.
func (g *Generator) Generate(salt string, length int) ([]byte, error) {
	if length <= 0 || length > g.keyLength {
		return nil, fmt.Errorf("%w: %d bytes requested, key length is %d", ErrInvalidLength, length, g.keyLength)
	}

	e := g.lookup(salt)
	e.once.Do(func() {
		// parameters were validated in NewGenerator
		e.key = pbkdf2.Key(g.secret, []byte(salt), g.iterations, g.keyLength, sha1.New)
	})

	out := make([]byte, length)
	copy(out, e.key)
	return out, nil
}

func (g *Generator) lookup(salt string) *entry {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[salt]
	if !ok {
		e = &entry{}
		g.entries[salt] = e
	}
	return e
}
