package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"go-user-auth/internal/model"
)

// CookieCodec reads and writes the HttpOnly refresh cookie. The cookie value
// is sealed with an HMAC over its own signing secret, separate from the token
// secrets, so a tampered cookie is rejected before the token is even parsed.
type CookieCodec struct {
	name   string
	secret []byte
	maxAge time.Duration
}

func NewCookieCodec(name string, secret string, maxAge time.Duration) *CookieCodec {
	return &CookieCodec{name: name, secret: []byte(secret), maxAge: maxAge}
}

func (c *CookieCodec) Name() string {
	return c.name
}

func (c *CookieCodec) MaxAge() time.Duration {
	return c.maxAge
}

func (c *CookieCodec) Set(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    c.seal(value),
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear expires the cookie regardless of its current state.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Get returns the unsealed cookie value. A missing cookie and a bad seal are
// the same failure; callers get one channel.
func (c *CookieCodec) Get(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", model.ErrTokenInvalid
	}
	return c.open(cookie.Value)
}

func (c *CookieCodec) seal(value string) string {
	return value + "." + base64.RawURLEncoding.EncodeToString(c.mac(value))
}

func (c *CookieCodec) open(sealed string) (string, error) {
	// The signature is the last dot-separated segment; the value itself may
	// contain dots (it is a compact JWT).
	idx := strings.LastIndex(sealed, ".")
	if idx <= 0 {
		return "", model.ErrTokenInvalid
	}

	value, encodedSig := sealed[:idx], sealed[idx+1:]
	sig, err := base64.RawURLEncoding.DecodeString(encodedSig)
	if err != nil {
		return "", model.ErrTokenInvalid
	}

	if !hmac.Equal(sig, c.mac(value)) {
		return "", model.ErrTokenInvalid
	}

	return value, nil
}

func (c *CookieCodec) mac(value string) []byte {
	m := hmac.New(sha256.New, c.secret)
	m.Write([]byte(value))
	return m.Sum(nil)
}
