package bridge

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// Config holds bridge settings loaded from the environment.
type Config struct {
	AuthSecret     string        `env:"BRIDGE_AUTH_SECRET" envDefault:""`
	AllowedOrigins []string      `env:"BRIDGE_ALLOWED_ORIGINS" envSeparator:","`
	RateLimit      float64       `env:"BRIDGE_RATE_LIMIT" envDefault:"0"`
	RateBurst      int           `env:"BRIDGE_RATE_BURST" envDefault:"20"`
	MaxBodyBytes   int64         `env:"BRIDGE_MAX_BODY_BYTES" envDefault:"65536"`
	Timeout        time.Duration `env:"BRIDGE_TIMEOUT" envDefault:"10s"`
}

// NewRouterFromConfig is NewRouter with options taken from cfg; opts are
// applied last.
func NewRouterFromConfig(codec Codec, cfg Config, opts ...Option) chi.Router {
	configOpts := []Option{
		WithAuthSecret(cfg.AuthSecret),
		WithMaxBodyBytes(cfg.MaxBodyBytes),
		WithTimeout(cfg.Timeout),
	}
	if cfg.RateLimit > 0 {
		configOpts = append(configOpts, WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	if len(cfg.AllowedOrigins) > 0 {
		configOpts = append(configOpts, WithAllowedOrigins(cfg.AllowedOrigins...))
	}
	return NewRouter(codec, append(configOpts, opts...)...)
}
