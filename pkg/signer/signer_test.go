package signer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/railscookie/pkg/keyderiv"
	"github.com/dmitrymomot/railscookie/pkg/signer"
)

const testSecret = "a4fd2bd2d7e7b92a32711a91f39ebc293ec3884768c1ff7d65eb0b8cc02bcac894dec9f987713498062deba78ba5a93bfd2057d5c725f22cc3777410f85f694e"

func signedKey(t *testing.T) []byte {
	t.Helper()
	key, err := keyderiv.Derive([]byte(testSecret), []byte("signed cookie"), 1000, 64)
	require.NoError(t, err)
	return key
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := signer.New(nil)
	require.ErrorIs(t, err, signer.ErrEmptySecret)

	_, err = signer.New([]byte("k"), signer.WithDigest("WHIRLPOOL"))
	require.ErrorIs(t, err, signer.ErrUnsupportedDigest)

	for _, name := range []string{"SHA1", "sha1", "SHA224", "SHA256", "SHA384", "SHA512", "MD5"} {
		_, err := signer.New([]byte("k"), signer.WithDigest(name))
		assert.NoError(t, err, name)
	}
}

func TestVerify_RailsFixture(t *testing.T) {
	t.Parallel()

	v, err := signer.New(signedKey(t))
	require.NoError(t, err)

	data, err := v.Verify("WyJzaWduZWQiLHRydWVd--9262a03fc6d9af0a3ef21636bc6af334b16fe455")
	require.NoError(t, err)
	assert.Equal(t, `["signed",true]`, string(data))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	v, err := signer.New(signedKey(t))
	require.NoError(t, err)

	msg := v.Generate([]byte(`["signed",true]`))
	assert.Equal(t, "WyJzaWduZWQiLHRydWVd--9262a03fc6d9af0a3ef21636bc6af334b16fe455", msg)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"binary", []byte{0x00, 0x2d, 0x2d, 0xff}},
		{"contains separator", []byte("a--b--c")},
		{"unicode", []byte("Hello 世界")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := v.Generate(tt.data)
			assert.Len(t, strings.Split(msg, signer.Separator), 2)
			if len(tt.data) == 0 {
				// base64 of nothing is empty, which is never a valid message
				_, err := v.Verify(msg)
				assert.ErrorIs(t, err, signer.ErrMalformed)
				return
			}
			got, err := v.Verify(msg)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}
}

func TestVerify_TamperedDigest(t *testing.T) {
	t.Parallel()

	v, err := signer.New(signedKey(t))
	require.NoError(t, err)

	msg := v.Generate([]byte("payload"))
	sep := strings.Index(msg, signer.Separator) + len(signer.Separator)

	for i := sep; i < len(msg); i++ {
		flipped := byte('0')
		if msg[i] == '0' {
			flipped = '1'
		}
		tampered := msg[:i] + string(flipped) + msg[i+1:]
		_, err := v.Verify(tampered)
		assert.ErrorIs(t, err, signer.ErrInvalidSignature, "position %d", i)
		assert.False(t, v.Valid(tampered))
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	v, err := signer.New(signedKey(t))
	require.NoError(t, err)
	valid := v.Generate([]byte("payload"))

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", signer.ErrMalformed},
		{"blank", "   ", signer.ErrMalformed},
		{"one segment", "cGF5bG9hZA==", signer.ErrMalformed},
		{"three segments", valid + "--extra", signer.ErrMalformed},
		{"empty data", "--abcdef", signer.ErrMalformed},
		{"empty digest", "cGF5bG9hZA==--", signer.ErrMalformed},
		{"blank digest", "cGF5bG9hZA==--  ", signer.ErrMalformed},
		{"invalid utf8", "cGF5\xffbG9hZA==--abcdef", signer.ErrMalformed},
		{"wrong digest", "cGF5bG9hZA==--abcdef", signer.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.NotPanics(t, func() {
				_, err := v.Verify(tt.input)
				assert.ErrorIs(t, err, tt.want)
			})
		})
	}
}

func TestVerify_BadBase64WithValidDigest(t *testing.T) {
	t.Parallel()

	v, err := signer.New(signedKey(t))
	require.NoError(t, err)

	data := "not*base64"
	_, err = v.Verify(data + signer.Separator + v.Digest(data))
	assert.ErrorIs(t, err, signer.ErrMalformed)
}

func TestVerify_DifferentDigests(t *testing.T) {
	t.Parallel()

	sha1v, err := signer.New(signedKey(t))
	require.NoError(t, err)
	sha256v, err := signer.New(signedKey(t), signer.WithDigest("SHA256"))
	require.NoError(t, err)

	msg := sha256v.Generate([]byte("payload"))
	assert.Len(t, strings.Split(msg, signer.Separator)[1], 64)

	got, err := sha256v.Verify(msg)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	_, err = sha1v.Verify(msg)
	assert.ErrorIs(t, err, signer.ErrInvalidSignature)
}
