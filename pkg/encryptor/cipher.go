package encryptor

import (
	"fmt"
	"strings"
)

// DefaultCipher is the legacy Rails encrypted cookie cipher.
const DefaultCipher = "aes-256-cbc"

// ciphers maps OpenSSL cipher names to AES key sizes in bytes.
var ciphers = map[string]int{
	"aes-128-cbc": 16,
	"aes-192-cbc": 24,
	"aes-256-cbc": 32,
}

// KeyLen returns the key size in bytes required by the named cipher.
func KeyLen(name string) (int, error) {
	n, ok := ciphers[normalize(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCipher, name)
	}
	return n, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
