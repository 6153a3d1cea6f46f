package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrymomot/railscookie/pkg/cookie"
	"github.com/dmitrymomot/railscookie/pkg/logger"
	"github.com/dmitrymomot/railscookie/pkg/serializer"
)

type writeRequest struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

// readRequest carries either a cookie value or a raw Cookie header together
// with the name of the cookie to read from it.
type readRequest struct {
	Value  string `json:"value" validate:"required_without=Cookie,excluded_with=Cookie"`
	Cookie string `json:"cookie" validate:"required_without=Value"`
	Key    string `json:"key" validate:"required_with=Cookie"`
}

type cookiesRequest struct {
	Cookie string `json:"cookie" validate:"required"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	_ = writeData(w, map[string]string{"status": "ok"})
}

func (h *handler) encrypt(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, "encrypt", h.codec.Encrypt)
}

func (h *handler) sign(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, "sign", h.codec.SerializeAndSign)
}

func (h *handler) decrypt(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, "decrypt", h.codec.Decrypt, h.codec.DecryptCookieKey)
}

func (h *handler) verify(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, "verify", h.codec.VerifyAndDeserialize, h.codec.SignedCookieKey)
}

func (h *handler) cookies(w http.ResponseWriter, r *http.Request) {
	var req cookiesRequest
	if !h.bind(w, r, &req) {
		return
	}
	h.respond(w, r, "cookies", cookie.Cookies(req.Cookie))
}

func (h *handler) write(w http.ResponseWriter, r *http.Request, op string, fn func(any) (string, error)) {
	var req writeRequest
	if !h.bind(w, r, &req) {
		return
	}

	v, err := DecodeValue(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "data is not valid JSON")
		return
	}

	value, err := fn(v)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	h.respond(w, r, op, valueResponse{Value: value})
}

func (h *handler) read(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	byValue func(string) (any, error),
	byHeader func(header, key string) (any, error),
) {
	var req readRequest
	if !h.bind(w, r, &req) {
		return
	}

	var (
		v   any
		err error
	)
	if req.Cookie != "" {
		v, err = byHeader(req.Cookie, req.Key)
	} else {
		v, err = byValue(req.Value)
	}
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	h.respond(w, r, op, v)
}

// respond writes v as the data envelope. Values JSON cannot represent,
// such as Marshal infinities or cyclic structures, fail as undecodable
// payloads.
func (h *handler) respond(w http.ResponseWriter, r *http.Request, op string, v any) {
	if err := writeData(w, v); err != nil {
		h.fail(w, r, op, fmt.Errorf("%w: %w", serializer.ErrDeserialize, err))
	}
}

// bind decodes and validates the request body into dst, answering 400 on
// failure.
func (h *handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeInvalidRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "request body is not valid JSON")
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "request body has trailing data")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return false
	}
	return true
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code, message := classify(err)
	level := h.log.DebugContext
	if status >= http.StatusInternalServerError {
		level = h.log.ErrorContext
	}
	level(r.Context(), "cookie operation failed",
		logger.Operation(op), logger.Status(status), logger.Error(err))
	writeError(w, status, code, message)
}

// DecodeValue decodes a single JSON value. Whole numbers that fit become
// int64, so the Marshal codec writes them as Ruby Integers. Other numbers
// stay json.Number and keep their literal text, so 1.0 is still a Float
// when it reaches Ruby.
func DecodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data")
	}
	return normalize(v), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		return t
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	default:
		return v
	}
}
