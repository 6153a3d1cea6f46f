package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/railscookie/pkg/cookie"
	"github.com/dmitrymomot/railscookie/pkg/serializer"
)

// Error codes returned in the error envelope.
const (
	codeInvalidRequest    = "invalid_request"
	codeUnauthorized      = "unauthorized"
	codeRateLimited       = "rate_limited"
	codeInvalidSignature  = "invalid_signature"
	codeCookieNotFound    = "cookie_not_found"
	codeDecryptionFailed  = "decryption_failed"
	codeDeserializeFailed = "deserialize_failed"
	codeSerializeFailed   = "serialize_failed"
	codeInternal          = "internal_error"
)

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the body of a failed response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type valueResponse struct {
	Value string `json:"value"`
}

// writeJSON encodes body before touching w, so an encoding error leaves the
// response unwritten.
func writeJSON(w http.ResponseWriter, status int, body any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

func writeData(w http.ResponseWriter, v any) error {
	return writeJSON(w, http.StatusOK, dataResponse{Data: v})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	_ = writeJSON(w, status, errorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// classify maps a codec error to a response status and code. Messages are
// fixed strings so that no cookie content leaks into responses.
func classify(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, cookie.ErrCookieNotFound):
		return http.StatusUnprocessableEntity, codeCookieNotFound, "cookie not found"
	case errors.Is(err, cookie.ErrInvalidSignature):
		return http.StatusUnprocessableEntity, codeInvalidSignature, "invalid signature"
	case errors.Is(err, cookie.ErrDecryptionFailed):
		return http.StatusUnprocessableEntity, codeDecryptionFailed, "decryption failed"
	case errors.Is(err, serializer.ErrDeserialize):
		return http.StatusUnprocessableEntity, codeDeserializeFailed, "payload could not be deserialized"
	case errors.Is(err, serializer.ErrSerialize):
		return http.StatusUnprocessableEntity, codeSerializeFailed, "value could not be serialized"
	default:
		return http.StatusInternalServerError, codeInternal, "internal error"
	}
}
