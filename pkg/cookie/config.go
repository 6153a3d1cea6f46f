package cookie

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/railscookie/pkg/encryptor"
	"github.com/dmitrymomot/railscookie/pkg/keyderiv"
	"github.com/dmitrymomot/railscookie/pkg/serializer"
	"github.com/dmitrymomot/railscookie/pkg/signer"
)

// Config holds cookie manager configuration.
type Config struct {
	SecretKeyBase        string `env:"RAILS_SECRET_KEY_BASE" envDefault:""`
	RotatedSecretKeyBase string `env:"RAILS_ROTATED_SECRET_KEY_BASES" envDefault:""`
	Serializer           string `env:"RAILS_COOKIES_SERIALIZER" envDefault:"json"`
	EncryptedSalt        string `env:"RAILS_ENCRYPTED_COOKIE_SALT" envDefault:"encrypted cookie"`
	EncryptedSignedSalt  string `env:"RAILS_ENCRYPTED_SIGNED_COOKIE_SALT" envDefault:"signed encrypted cookie"`
	SignedSalt           string `env:"RAILS_SIGNED_COOKIE_SALT" envDefault:"signed cookie"`
	Iterations           int    `env:"RAILS_KEY_ITERATIONS" envDefault:"1000"`
	KeySize              int    `env:"RAILS_KEY_SIZE" envDefault:"64"`
	Cipher               string `env:"RAILS_COOKIE_CIPHER" envDefault:"aes-256-cbc"`
	Digest               string `env:"RAILS_COOKIE_DIGEST" envDefault:"SHA1"`

	Path     string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"COOKIE_DOMAIN" envDefault:""`
	MaxAge   int           `env:"COOKIE_MAX_AGE" envDefault:"0"`
	Secure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	HttpOnly bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"2"` // 2 = SameSiteLaxMode
}

// DefaultConfig returns the Rails defaults without a secret.
func DefaultConfig() Config {
	return Config{
		Serializer:          serializer.NameJSON,
		EncryptedSalt:       DefaultEncryptedSalt,
		EncryptedSignedSalt: DefaultEncryptedSignedSalt,
		SignedSalt:          DefaultSignedSalt,
		Iterations:          keyderiv.DefaultIterations,
		KeySize:             keyderiv.DefaultKeyLength,
		Cipher:              encryptor.DefaultCipher,
		Digest:              signer.DefaultDigest,
		Path:                "/",
		HttpOnly:            true,
		SameSite:            http.SameSiteLaxMode,
	}
}

// rotatedSecrets splits the comma separated list of previous secrets.
func (c Config) rotatedSecrets() []string {
	if c.RotatedSecretKeyBase == "" {
		return nil
	}

	parts := strings.Split(c.RotatedSecretKeyBase, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// NewFromConfig creates a Manager from cfg. Zero-valued protocol fields keep
// the Rails defaults; opts are applied last.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	s, err := serializer.ByName(cfg.Serializer)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	configOpts := []Option{WithSerializer(s)}
	if cfg.EncryptedSalt != "" {
		configOpts = append(configOpts, WithEncryptedSalt(cfg.EncryptedSalt))
	}
	if cfg.EncryptedSignedSalt != "" {
		configOpts = append(configOpts, WithEncryptedSignedSalt(cfg.EncryptedSignedSalt))
	}
	if cfg.SignedSalt != "" {
		configOpts = append(configOpts, WithSignedSalt(cfg.SignedSalt))
	}
	if cfg.Iterations != 0 {
		configOpts = append(configOpts, WithIterations(cfg.Iterations))
	}
	if cfg.KeySize != 0 {
		configOpts = append(configOpts, WithKeySize(cfg.KeySize))
	}
	if cfg.Cipher != "" {
		configOpts = append(configOpts, WithCipher(cfg.Cipher))
	}
	if cfg.Digest != "" {
		configOpts = append(configOpts, WithDigest(cfg.Digest))
	}
	if rotated := cfg.rotatedSecrets(); len(rotated) > 0 {
		configOpts = append(configOpts, WithRotatedSecrets(rotated...))
	}

	cookieOpts := make([]CookieOption, 0, 6)
	if cfg.Path != "" {
		cookieOpts = append(cookieOpts, WithPath(cfg.Path))
	}
	if cfg.Domain != "" {
		cookieOpts = append(cookieOpts, WithDomain(cfg.Domain))
	}
	if cfg.MaxAge != 0 {
		cookieOpts = append(cookieOpts, WithMaxAge(cfg.MaxAge))
	}
	cookieOpts = append(cookieOpts, WithSecure(cfg.Secure), WithHTTPOnly(cfg.HttpOnly))
	if cfg.SameSite != 0 {
		cookieOpts = append(cookieOpts, WithSameSite(cfg.SameSite))
	}
	configOpts = append(configOpts, WithDefaults(cookieOpts...))

	configOpts = append(configOpts, opts...)

	return New(cfg.SecretKeyBase, configOpts...)
}
