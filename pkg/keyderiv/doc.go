// Package keyderiv derives purpose-scoped secrets from a single application
// secret the way the Rails key generator does: PBKDF2 with HMAC-SHA1, 1000
// iterations and a 64-byte output by default.
//
// The Generator type memoizes one derivation per salt. Derivation is a pure
// function of the secret, salt, iteration count and output length, so the
// cached value stays valid for the lifetime of the generator.
//
// # Usage
//
//	import "github.com/dmitrymomot/railscookie/pkg/keyderiv"
//
//	gen, err := keyderiv.NewGenerator(os.Getenv("RAILS_SECRET_KEY_BASE"))
//	if err != nil { log.Fatal(err) }
//
//	signKey, _ := gen.Generate("signed cookie", keyderiv.DefaultKeyLength)
//	encKey, _ := gen.Generate("encrypted cookie", 32)
//
// # Error Handling
//
// Invalid parameters (empty secret, non-positive iterations or lengths) are
// reported with sentinel errors such as ErrEmptySecret and ErrInvalidLength.
// They are programmer errors and never depend on request input.
package keyderiv
