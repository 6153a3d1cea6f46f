// Package cookie reads and writes cookies that are byte-compatible with the
// legacy Rails cookie jar (Rails 4.x to 5.1: AES-CBC with HMAC-SHA1), so Go
// services can share sessions with a Rails application.
//
// # Overview
//
// The Manager type is the entry point. It is created from the Rails
// secret_key_base and derives the same keys Rails does: PBKDF2-HMAC-SHA1 with
// 1000 iterations and a 64 byte output per salt.
//
//   - SerializeAndSign, VerifyAndDeserialize: signed cookies (cookies.signed)
//   - Encrypt, Decrypt: encrypted cookies (cookies.encrypted), AES-256-CBC
//     wrapped in a signed envelope
//   - DecryptCookieKey, SignedCookieKey: the same reads starting from a raw
//     Cookie header
//   - SetEncrypted, GetEncrypted, SetSigned, GetSigned, Delete: net/http
//     helpers
//
// Every read has a Try variant that reports an invalid signature as
// ok == false instead of an error. Both variants return ErrDecryptionFailed
// for a correctly signed payload that does not decrypt, and serializer errors
// unchanged.
//
// # Usage
//
//	import "github.com/dmitrymomot/railscookie/pkg/cookie"
//
//	man, err := cookie.New(os.Getenv("RAILS_SECRET_KEY_BASE"))
//	if err != nil { log.Fatal(err) }
//
//	http.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
//	    session, err := man.GetEncrypted(r, "_app_session")
//	    if errors.Is(err, cookie.ErrInvalidSignature) {
//	        http.Error(w, "unauthorized", http.StatusUnauthorized)
//	        return
//	    }
//	    _ = session
//	})
//
// # Key Rotation
//
// WithRotatedSecrets adds previous secret_key_base values. Reads try the
// current secret first and then each rotated one; writes always use the
// current secret.
//
// # Configuration
//
// Config is loaded from RAILS_* and COOKIE_* environment variables via
// github.com/caarlos0/env.
//
//	var cfg cookie.Config
//	if err := config.Load(&cfg); err != nil { log.Fatal(err) }
//	man, err := cookie.NewFromConfig(cfg)
package cookie
