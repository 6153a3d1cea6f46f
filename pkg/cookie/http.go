package cookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/railscookie/pkg/logger"
)

// SetEncrypted encrypts v and writes it as cookie name.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name string, v any, opts ...CookieOption) error {
	value, err := m.Encrypt(v)
	if err != nil {
		return err
	}
	m.set(w, name, value, opts)
	return nil
}

// GetEncrypted decrypts cookie name from the request.
func (m *Manager) GetEncrypted(r *http.Request, name string) (any, error) {
	value, ok := CookieValue(requestHeader(r), name)
	if !ok {
		return nil, notFound(name)
	}
	v, err := m.Decrypt(value)
	if err != nil {
		m.logger.DebugContext(r.Context(), "encrypted cookie rejected",
			logger.Component("cookie"), logger.Error(err))
		return nil, err
	}
	return v, nil
}

// SetSigned signs v and writes it as cookie name.
func (m *Manager) SetSigned(w http.ResponseWriter, name string, v any, opts ...CookieOption) error {
	value, err := m.SerializeAndSign(v)
	if err != nil {
		return err
	}
	m.set(w, name, value, opts)
	return nil
}

// GetSigned verifies cookie name from the request.
func (m *Manager) GetSigned(r *http.Request, name string) (any, error) {
	value, ok := CookieValue(requestHeader(r), name)
	if !ok {
		return nil, notFound(name)
	}
	v, err := m.VerifyAndDeserialize(value)
	if err != nil {
		m.logger.DebugContext(r.Context(), "signed cookie rejected",
			logger.Component("cookie"), logger.Error(err))
		return nil, err
	}
	return v, nil
}

// Delete expires cookie name using the default path and domain.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
		Secure:   m.defaults.Secure,
	})
}

func (m *Manager) set(w http.ResponseWriter, name, value string, opts []CookieOption) {
	o := applyCookieOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    escape(value),
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	})
}

// requestHeader joins every Cookie header line of r.
func requestHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}
