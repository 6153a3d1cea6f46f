package bridge_test

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/railscookie/pkg/bridge"
	"github.com/dmitrymomot/railscookie/pkg/cookie"
	"github.com/dmitrymomot/railscookie/pkg/requestid"
	"github.com/dmitrymomot/railscookie/pkg/serializer"
)

const secretKeyBase = "a4fd2bd2d7e7b92a32711a91f39ebc293ec3884768c1ff7d65eb0b8cc02bcac894dec9f987713498062deba78ba5a93bfd2057d5c725f22cc3777410f85f694e"

const (
	jsonSigned    = "WyJzaWduZWQiLHRydWVd--9262a03fc6d9af0a3ef21636bc6af334b16fe455"
	jsonEncrypted = "VTVSajdXQlNHOTJTbE1OVktmRTRqdz09LS02NGc4OGEyWnVzVitEYUw0bU9oZ1RnPT0=--7f3a476b45580498430cd2c78a693da9a811175a"
	railsHeader   = "encrypted_key=VTVSajdXQlNHOTJTbE1OVktmRTRqdz09LS02NGc4OGEyWnVzVitEYUw0bU9oZ1RnPT0%3D--7f3a476b45580498430cd2c78a693da9a811175a; other_key=abc"
)

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *bridge.ErrorDetail `json:"error"`
}

func newRouter(t *testing.T, opts ...bridge.Option) http.Handler {
	t.Helper()
	m, err := cookie.New(secretKeyBase)
	require.NoError(t, err)
	return bridge.NewRouter(m, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func dataAs[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec, env := do(t, newRouter(t), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, dataAs[map[string]string](t, env))
	assert.NotEmpty(t, rec.Header().Get(requestid.Header))
}

func TestDecrypt_RailsFixture(t *testing.T) {
	t.Parallel()

	h := newRouter(t)

	rec, env := do(t, h, http.MethodPost, "/decrypt", `{"value":"`+jsonEncrypted+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "revealed", dataAs[string](t, env))

	rec, env = do(t, h, http.MethodPost, "/decrypt", `{"cookie":"`+railsHeader+`","key":"encrypted_key"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "revealed", dataAs[string](t, env))
}

func TestVerify_RailsFixture(t *testing.T) {
	t.Parallel()

	rec, env := do(t, newRouter(t), http.MethodPost, "/verify", `{"value":"`+jsonSigned+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"signed", true}, dataAs[[]any](t, env))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serializer serializer.Serializer
		write      string
		read       string
	}{
		{"json encrypted", serializer.JSON{}, "/encrypt", "/decrypt"},
		{"json signed", serializer.JSON{}, "/sign", "/verify"},
		{"marshal encrypted", serializer.Marshal{}, "/encrypt", "/decrypt"},
		{"marshal signed", serializer.Marshal{}, "/sign", "/verify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := cookie.New(secretKeyBase, cookie.WithSerializer(tt.serializer))
			require.NoError(t, err)
			h := bridge.NewRouter(m)

			payload := `{"session_id":"c0ffee","user_id":42,"ratio":0.5,"flags":[true,null]}`
			rec, env := do(t, h, http.MethodPost, tt.write, `{"data":`+payload+`}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			value := dataAs[map[string]string](t, env)["value"]
			require.NotEmpty(t, value)

			body, err := json.Marshal(map[string]string{"value": value})
			require.NoError(t, err)
			rec, env = do(t, h, http.MethodPost, tt.read, string(body))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, payload, string(env.Data))
		})
	}
}

func TestRoundTrip_Null(t *testing.T) {
	t.Parallel()

	h := newRouter(t)

	rec, env := do(t, h, http.MethodPost, "/encrypt", `{"data":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	value := dataAs[map[string]string](t, env)["value"]

	rec, env = do(t, h, http.MethodPost, "/decrypt", `{"value":"`+value+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(env.Data))
}

func TestVerify_ValueWithoutJSONForm(t *testing.T) {
	t.Parallel()

	m, err := cookie.New(secretKeyBase, cookie.WithSerializer(serializer.Marshal{}))
	require.NoError(t, err)
	h := bridge.NewRouter(m)

	for _, f := range []float64{math.Inf(1), math.NaN()} {
		value, err := m.SerializeAndSign(map[string]any{"ttl": f})
		require.NoError(t, err)

		rec, env := do(t, h, http.MethodPost, "/verify", `{"value":"`+value+`"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		require.NotNil(t, env.Error)
		assert.Equal(t, "deserialize_failed", env.Error.Code)
	}
}

func TestSign_KeepsFloatLiterals(t *testing.T) {
	t.Parallel()

	rec, env := do(t, newRouter(t), http.MethodPost, "/sign", `{"data":[1.0,2,0.5]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data, _, ok := strings.Cut(dataAs[map[string]string](t, env)["value"], "--")
	require.True(t, ok)
	payload, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	assert.Equal(t, "[1.0,2,0.5]", string(payload))
}

func TestCookies(t *testing.T) {
	t.Parallel()

	rec, env := do(t, newRouter(t), http.MethodPost, "/cookies", `{"cookie":"`+railsHeader+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"encrypted_key": jsonEncrypted,
		"other_key":     "abc",
	}, dataAs[map[string]string](t, env))
}

func TestCookieErrors(t *testing.T) {
	t.Parallel()

	h := newRouter(t)

	tests := []struct {
		name string
		path string
		body string
		code string
	}{
		{"tampered", "/decrypt", `{"value":"` + jsonEncrypted[:len(jsonEncrypted)-1] + `0"}`, "invalid_signature"},
		{"wrong purpose", "/verify", `{"value":"` + jsonEncrypted + `"}`, "invalid_signature"},
		{"malformed", "/verify", `{"value":"garbage"}`, "invalid_signature"},
		{"missing key", "/decrypt", `{"cookie":"` + railsHeader + `","key":"session"}`, "cookie_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := do(t, h, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotContains(t, env.Error.Message, "VTVS", "responses never echo cookie content")
		})
	}
}

// stubCodec fails every operation with err.
type stubCodec struct{ err error }

func (s stubCodec) Encrypt(any) (string, error)                  { return "", s.err }
func (s stubCodec) Decrypt(string) (any, error)                  { return nil, s.err }
func (s stubCodec) DecryptCookieKey(string, string) (any, error) { return nil, s.err }
func (s stubCodec) SerializeAndSign(any) (string, error)         { return "", s.err }
func (s stubCodec) VerifyAndDeserialize(string) (any, error)     { return nil, s.err }
func (s stubCodec) SignedCookieKey(string, string) (any, error)  { return nil, s.err }

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		path   string
		body   string
		status int
		code   string
	}{
		{"decryption failed", cookie.ErrDecryptionFailed, "/decrypt", `{"value":"x"}`, http.StatusUnprocessableEntity, "decryption_failed"},
		{"deserialize failed", errors.Join(serializer.ErrDeserialize, errors.New("eof")), "/verify", `{"value":"x"}`, http.StatusUnprocessableEntity, "deserialize_failed"},
		{"serialize failed", serializer.ErrSerialize, "/encrypt", `{"data":1}`, http.StatusUnprocessableEntity, "serialize_failed"},
		{"unexpected", errors.New("boom"), "/sign", `{"data":1}`, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := do(t, bridge.NewRouter(stubCodec{err: tt.err}), http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotContains(t, env.Error.Message, "boom")
		})
	}
}

func TestBadRequests(t *testing.T) {
	t.Parallel()

	h := newRouter(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"not json", "/decrypt", `value=abc`},
		{"empty body", "/decrypt", ``},
		{"unknown field", "/decrypt", `{"value":"a","extra":1}`},
		{"neither value nor cookie", "/decrypt", `{}`},
		{"value and cookie", "/verify", `{"value":"a","cookie":"b=1","key":"b"}`},
		{"cookie without key", "/verify", `{"cookie":"b=1"}`},
		{"missing data", "/encrypt", `{}`},
		{"trailing data", "/sign", `{"data":1}{"data":2}`},
		{"empty cookie header", "/cookies", `{"cookie":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := do(t, h, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, "invalid_request", env.Error.Code)
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	t.Parallel()

	h := newRouter(t, bridge.WithMaxBodyBytes(32))
	rec, env := do(t, h, http.MethodPost, "/decrypt", `{"value":"`+jsonEncrypted+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_request", env.Error.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	rec, _ := do(t, newRouter(t), http.MethodGet, "/decrypt", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func token(t *testing.T, secret string, method jwt.SigningMethod, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "rails", ExpiresAt: jwt.NewNumericDate(exp)}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuth(t *testing.T) {
	t.Parallel()

	const secret = "bridge-shared-secret"
	h := newRouter(t, bridge.WithAuthSecret(secret))
	body := `{"value":"` + jsonEncrypted + `"}`
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		header []string
		status int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"not bearer", []string{"Authorization", "Basic abc"}, http.StatusUnauthorized},
		{"garbage", []string{"Authorization", "Bearer abc.def.ghi"}, http.StatusUnauthorized},
		{"wrong secret", []string{"Authorization", "Bearer " + token(t, "other", jwt.SigningMethodHS256, future)}, http.StatusUnauthorized},
		{"wrong algorithm", []string{"Authorization", "Bearer " + token(t, secret, jwt.SigningMethodHS512, future)}, http.StatusUnauthorized},
		{"expired", []string{"Authorization", "Bearer " + token(t, secret, jwt.SigningMethodHS256, time.Now().Add(-time.Minute))}, http.StatusUnauthorized},
		{"valid", []string{"Authorization", "Bearer " + token(t, secret, jwt.SigningMethodHS256, future)}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := do(t, h, http.MethodPost, "/decrypt", body, tt.header...)
			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				require.NotNil(t, env.Error)
				assert.Equal(t, "unauthorized", env.Error.Code)
			}
		})
	}

	t.Run("health stays open", func(t *testing.T) {
		t.Parallel()
		rec, _ := do(t, h, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h := newRouter(t, bridge.WithRateLimit(0.001, 2))
	body := `{"cookie":"a=1"}`

	for range 2 {
		rec, _ := do(t, h, http.MethodPost, "/cookies", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, env := do(t, h, http.MethodPost, "/cookies", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "rate_limited", env.Error.Code)

	// Another client has its own bucket.
	rec, _ = do(t, h, http.MethodPost, "/cookies", body, "X-Real-IP", "203.0.113.9")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	h := newRouter(t, bridge.WithAllowedOrigins("https://app.example.com"))

	req := httptest.NewRequest(http.MethodOptions, "/decrypt", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/decrypt", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()

	rec, _ := do(t, newRouter(t), http.MethodPost, "/verify", `{"value":"garbage"}`, requestid.Header, "rails-123")
	assert.Equal(t, "rails-123", rec.Header().Get(requestid.Header))
}

func TestNewRouterFromConfig(t *testing.T) {
	t.Parallel()

	m, err := cookie.New(secretKeyBase)
	require.NoError(t, err)

	h := bridge.NewRouterFromConfig(m, bridge.Config{
		AuthSecret:   "s",
		MaxBodyBytes: 1024,
		Timeout:      time.Second,
	})

	rec, _ := do(t, h, http.MethodPost, "/decrypt", `{"value":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    any
		wantErr bool
	}{
		{"integer", `42`, int64(42), false},
		{"float", `1.5`, json.Number("1.5"), false},
		{"whole float", `1.0`, json.Number("1.0"), false},
		{"exponent", `1e3`, json.Number("1e3"), false},
		{"beyond int64", `9223372036854775808`, json.Number("9223372036854775808"), false},
		{"nested", `{"a":[1,2.5,"x"]}`, map[string]any{"a": []any{int64(1), json.Number("2.5"), "x"}}, false},
		{"null", `null`, nil, false},
		{"trailing", `1 2`, nil, true},
		{"invalid", `{`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := bridge.DecodeValue([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}
