// Package signer implements the Rails MessageVerifier wire format.
//
// A signed message has the shape
//
//	<base64 data>--<lowercase hex HMAC(base64 data)>
//
// The HMAC is computed over the base64 text itself, so the signed string
// never contains the "--" separator. Standard base64 with padding is used and
// the default digest is SHA1.
//
// # Usage
//
//	v, err := signer.New(key, signer.WithDigest("SHA1"))
//	if err != nil { ... }
//
//	msg := v.Generate([]byte(`["signed",true]`))
//	data, err := v.Verify(msg)
//
// # Error Handling
//
// Verify returns ErrMalformed for blank text, invalid UTF-8, a wrong segment
// count or bad base64, and ErrInvalidSignature when the digest does not match.
// Digests are compared in constant time.
package signer
