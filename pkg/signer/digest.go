package signer

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"
)

// DefaultDigest is the legacy Rails cookie digest.
const DefaultDigest = "SHA1"

// digests maps OpenSSL digest names to hash constructors.
var digests = map[string]func() hash.Hash{
	"SHA1":   sha1.New,
	"SHA224": sha256.New224,
	"SHA256": sha256.New,
	"SHA384": sha512.New384,
	"SHA512": sha512.New,
	"MD5":    md5.New,
}

// LookupDigest resolves a digest name such as "SHA1" or "sha256".
func LookupDigest(name string) (func() hash.Hash, error) {
	h, ok := digests[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDigest, name)
	}
	return h, nil
}
