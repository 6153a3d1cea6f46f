package cookie

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/railscookie/pkg/serializer"
)

// Rails defaults for the cookie key generator and the cookie jar.
const (
	DefaultEncryptedSalt       = "encrypted cookie"
	DefaultEncryptedSignedSalt = "signed encrypted cookie"
	DefaultSignedSalt          = "signed cookie"
)

type settings struct {
	serializer          serializer.Serializer
	encryptedSalt       string
	encryptedSignedSalt string
	signedSalt          string
	iterations          int
	keySize             int
	cipher              string
	digest              string
	rotated             []string
	logger              *slog.Logger
	defaults            []CookieOption
}

// Option configures a Manager.
type Option func(*settings)

// WithSerializer sets the payload codec. JSON is used when unset.
func WithSerializer(s serializer.Serializer) Option {
	return func(c *settings) {
		c.serializer = s
	}
}

func WithEncryptedSalt(salt string) Option {
	return func(c *settings) {
		c.encryptedSalt = salt
	}
}

func WithEncryptedSignedSalt(salt string) Option {
	return func(c *settings) {
		c.encryptedSignedSalt = salt
	}
}

func WithSignedSalt(salt string) Option {
	return func(c *settings) {
		c.signedSalt = salt
	}
}

// WithIterations sets the PBKDF2 iteration count used for every derived key.
func WithIterations(n int) Option {
	return func(c *settings) {
		c.iterations = n
	}
}

// WithKeySize sets the PBKDF2 output length. Signing keys use the full
// length; the cipher key is its prefix.
func WithKeySize(n int) Option {
	return func(c *settings) {
		c.keySize = n
	}
}

func WithCipher(name string) Option {
	return func(c *settings) {
		c.cipher = name
	}
}

func WithDigest(name string) Option {
	return func(c *settings) {
		c.digest = name
	}
}

// WithRotatedSecrets registers previous secret_key_base values. They are
// tried in order after the current secret when reading and never used for
// writing.
func WithRotatedSecrets(secrets ...string) Option {
	return func(c *settings) {
		c.rotated = append(c.rotated, secrets...)
	}
}

// WithLogger sets the logger used for verification diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *settings) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaults sets the attributes applied to every cookie written through
// the net/http helpers.
func WithDefaults(opts ...CookieOption) Option {
	return func(c *settings) {
		c.defaults = append(c.defaults, opts...)
	}
}

// CookieOptions are the attributes of a Set-Cookie header.
type CookieOptions struct {
	Path     string
	Domain   string
	MaxAge   int
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

type CookieOption func(*CookieOptions)

func WithPath(path string) CookieOption {
	return func(o *CookieOptions) {
		o.Path = path
	}
}

func WithDomain(domain string) CookieOption {
	return func(o *CookieOptions) {
		o.Domain = domain
	}
}

func WithMaxAge(seconds int) CookieOption {
	return func(o *CookieOptions) {
		o.MaxAge = seconds
	}
}

func WithSecure(secure bool) CookieOption {
	return func(o *CookieOptions) {
		o.Secure = secure
	}
}

func WithHTTPOnly(httpOnly bool) CookieOption {
	return func(o *CookieOptions) {
		o.HttpOnly = httpOnly
	}
}

func WithSameSite(sameSite http.SameSite) CookieOption {
	return func(o *CookieOptions) {
		o.SameSite = sameSite
	}
}

// applyCookieOptions returns a copy of base with opts applied.
func applyCookieOptions(base CookieOptions, opts []CookieOption) CookieOptions {
	result := base
	for _, opt := range opts {
		opt(&result)
	}
	return result
}
