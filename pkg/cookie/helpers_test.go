package cookie_test

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/railscookie/pkg/cookie"
	"github.com/dmitrymomot/railscookie/pkg/keyderiv"
	"github.com/dmitrymomot/railscookie/pkg/serializer"
	"github.com/dmitrymomot/railscookie/pkg/signer"
)

const secretKeyBase = "a4fd2bd2d7e7b92a32711a91f39ebc293ec3884768c1ff7d65eb0b8cc02bcac894dec9f987713498062deba78ba5a93bfd2057d5c725f22cc3777410f85f694e"

// Values produced by a Rails application configured with secretKeyBase.
const (
	jsonSigned       = "WyJzaWduZWQiLHRydWVd--9262a03fc6d9af0a3ef21636bc6af334b16fe455"
	marshalSigned    = "BAhbB0kiC3NpZ25lZAY6BkVUVA==--b4fbf072bcfc0914feaa3d55c091b972d6bbaa66"
	jsonEncrypted    = "VTVSajdXQlNHOTJTbE1OVktmRTRqdz09LS02NGc4OGEyWnVzVitEYUw0bU9oZ1RnPT0=--7f3a476b45580498430cd2c78a693da9a811175a"
	marshalEncrypted = "VXdhY0NxOURzRm1FM1g3T0xuclJKYzJNSWtWY0VrZ0drMlhTSllIK2dTVT0tLW9Id3VUVXVuS3ovbUM4VGRYbzFRcXc9PQ==--c952286bdb6e328b6a715f00ded1a51b382106f1"

	jsonEncryptedHeader    = "encrypted_key=VTVSajdXQlNHOTJTbE1OVktmRTRqdz09LS02NGc4OGEyWnVzVitEYUw0bU9oZ1RnPT0%3D--7f3a476b45580498430cd2c78a693da9a811175a; other_key=abc"
	marshalEncryptedHeader = "encrypted_key=VXdhY0NxOURzRm1FM1g3T0xuclJKYzJNSWtWY0VrZ0drMlhTSllIK2dTVT0tLW9Id3VUVXVuS3ovbUM4VGRYbzFRcXc9PQ%3D%3D--c952286bdb6e328b6a715f00ded1a51b382106f1"
	jsonSignedHeader       = "signed=WyJzaWduZWQiLHRydWVd--9262a03fc6d9af0a3ef21636bc6af334b16fe455"
	marshalSignedHeader    = "signed=BAhbB0kiC3NpZ25lZAY6BkVUVA%3D%3D--b4fbf072bcfc0914feaa3d55c091b972d6bbaa66"
)

func newJSONManager(t *testing.T, opts ...cookie.Option) *cookie.Manager {
	t.Helper()
	m, err := cookie.New(secretKeyBase, opts...)
	require.NoError(t, err)
	return m
}

func newMarshalManager(t *testing.T, opts ...cookie.Option) *cookie.Manager {
	t.Helper()
	return newJSONManager(t, append([]cookie.Option{cookie.WithSerializer(serializer.Marshal{})}, opts...)...)
}

func derivedKey(t *testing.T, salt string, length int) []byte {
	t.Helper()
	g, err := keyderiv.NewGenerator(secretKeyBase)
	require.NoError(t, err)
	key, err := g.Generate(salt, length)
	require.NoError(t, err)
	return key
}

// signRaw signs data the way the cookie jar does for the given salt.
func signRaw(t *testing.T, salt string, data []byte) string {
	t.Helper()
	v, err := signer.New(derivedKey(t, salt, keyderiv.DefaultKeyLength))
	require.NoError(t, err)
	return v.Generate(data)
}

// badPaddingEnvelope returns a correctly signed encrypted value whose plain
// text ends with the invalid padding byte 0x00.
func badPaddingEnvelope(t *testing.T) string {
	t.Helper()
	block, err := aes.NewCipher(derivedKey(t, cookie.DefaultEncryptedSalt, 32))
	require.NoError(t, err)

	iv := make([]byte, aes.BlockSize)
	plain := make([]byte, aes.BlockSize)
	ct := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, plain)

	payload := base64.StdEncoding.EncodeToString(ct) + "--" + base64.StdEncoding.EncodeToString(iv)
	return signRaw(t, cookie.DefaultEncryptedSignedSalt, []byte(payload))
}
