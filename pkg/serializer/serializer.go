package serializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/railscookie/pkg/rubymarshal"
)

// Serializer converts application values to cookie payload bytes and back.
type Serializer interface {
	Dump(v any) ([]byte, error)
	Load(data []byte) (any, error)
}

// Names accepted by ByName.
const (
	NameJSON    = "json"
	NameMarshal = "marshal"
	NameHybrid  = "hybrid"
)

// ByName returns the serializer matching a Rails cookies_serializer setting.
func ByName(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameJSON, "":
		return JSON{}, nil
	case NameMarshal:
		return Marshal{}, nil
	case NameHybrid:
		return Hybrid{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSerializer, name)
	}
}

// JSON matches Ruby's JSON.dump/JSON.load for plain values.
type JSON struct{}

func (JSON) Dump(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Ruby does not escape <, > and &
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Join(ErrSerialize, err)
	}
	return rawLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// rawLineSeparators undoes encoding/json's \u2028 and \u2029 escapes, which
// JSON.dump writes as raw characters. Escapes are consumed in pairs so an
// escaped backslash followed by "u2028" is left alone.
func rawLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 == len(b) {
			out = append(out, b[i])
			continue
		}
		switch {
		case bytes.HasPrefix(b[i:], []byte(`\u2028`)):
			out = append(out, "\u2028"...)
			i += 5
		case bytes.HasPrefix(b[i:], []byte(`\u2029`)):
			out = append(out, "\u2029"...)
			i += 5
		default:
			out = append(out, b[i], b[i+1])
			i++
		}
	}
	return out
}

func (JSON) Load(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Join(ErrDeserialize, err)
	}
	return v, nil
}

// Marshal uses the Ruby Marshal format. It only interoperates with Ruby.
type Marshal struct{}

func (Marshal) Dump(v any) ([]byte, error) {
	data, err := rubymarshal.Dump(v)
	if err != nil {
		return nil, errors.Join(ErrSerialize, err)
	}
	return data, nil
}

func (Marshal) Load(data []byte) (any, error) {
	v, err := rubymarshal.Load(data)
	if err != nil {
		return nil, errors.Join(ErrDeserialize, err)
	}
	return v, nil
}

// marshalHeader is the version prefix of every Marshal 4.8 stream.
var marshalHeader = []byte{rubymarshal.MajorVersion, rubymarshal.MinorVersion}

// Hybrid reads Marshal or JSON payloads and always writes JSON, which is how
// Rails migrates an application from Marshal to JSON cookies.
type Hybrid struct{}

func (Hybrid) Dump(v any) ([]byte, error) {
	return JSON{}.Dump(v)
}

func (Hybrid) Load(data []byte) (any, error) {
	if bytes.HasPrefix(data, marshalHeader) {
		return Marshal{}.Load(data)
	}
	return JSON{}.Load(data)
}
