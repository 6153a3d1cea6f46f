package bridge

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/railscookie/pkg/logger"
	"github.com/dmitrymomot/railscookie/pkg/requestid"
)

// Codec is the cookie protocol served by the bridge. *cookie.Manager
// implements it.
type Codec interface {
	Encrypt(v any) (string, error)
	Decrypt(value string) (any, error)
	DecryptCookieKey(header, key string) (any, error)
	SerializeAndSign(v any) (string, error)
	VerifyAndDeserialize(value string) (any, error)
	SignedCookieKey(header, key string) (any, error)
}

// DefaultMaxBodyBytes bounds request bodies. Browsers cap a cookie at 4 KiB;
// a whole Cookie header rarely exceeds a few times that.
const DefaultMaxBodyBytes = 64 << 10

type options struct {
	logger         *slog.Logger
	maxBodyBytes   int64
	authSecret     []byte
	rateLimit      float64
	rateBurst      int
	allowedOrigins []string
	timeout        time.Duration
}

// Option configures NewRouter.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithAuthSecret requires every codec request to carry an HS256 bearer
// token signed with secret. /health stays open.
func WithAuthSecret(secret string) Option {
	return func(o *options) {
		if secret != "" {
			o.authSecret = []byte(secret)
		}
	}
}

// WithRateLimit allows each client perSecond requests with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = perSecond
		o.rateBurst = burst
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		o.allowedOrigins = append(o.allowedOrigins, origins...)
	}
}

// WithTimeout bounds the time spent handling a request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

type handler struct {
	codec        Codec
	log          *slog.Logger
	validate     *validator.Validate
	maxBodyBytes int64
}

// NewRouter returns a router serving codec.
func NewRouter(codec Codec, opts ...Option) chi.Router {
	o := options{
		logger:       logger.Noop(),
		maxBodyBytes: DefaultMaxBodyBytes,
		timeout:      10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &handler{
		codec:        codec,
		log:          o.logger.With(logger.Component("bridge")),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		maxBodyBytes: o.maxBodyBytes,
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(o.timeout))
	if len(o.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: o.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestid.Header},
			ExposedHeaders: []string{requestid.Header},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.health)

	r.Group(func(r chi.Router) {
		if o.rateLimit > 0 {
			r.Use(newRateLimiter(o.rateLimit, o.rateBurst).middleware)
		}
		if len(o.authSecret) > 0 {
			r.Use(bearerAuth(o.authSecret, h.log))
		}
		r.Post("/encrypt", h.encrypt)
		r.Post("/decrypt", h.decrypt)
		r.Post("/sign", h.sign)
		r.Post("/verify", h.verify)
		r.Post("/cookies", h.cookies)
	})

	return r
}
