package session

import (
	"net/http"
	"strings"

	"go-user-auth/internal/model"
	"go-user-auth/internal/token"
)

// Source selects where the extractor looks for a credential.
type Source int

const (
	// FromCookie reads the signed refresh cookie.
	FromCookie Source = iota
	// FromHeader reads the Authorization bearer header.
	FromHeader
)

// Extractor pulls a token out of an inbound request, verifies it with the
// codec matching its source and projects the claims to a SessionUser. Absent
// and invalid credentials share one failure channel (ErrTokenInvalid).
type Extractor struct {
	access  *token.Codec
	refresh *token.Codec
	cookies *CookieCodec
}

func NewExtractor(access *token.Codec, refresh *token.Codec, cookies *CookieCodec) *Extractor {
	return &Extractor{access: access, refresh: refresh, cookies: cookies}
}

func (e *Extractor) Session(r *http.Request, source Source) (model.SessionUser, error) {
	switch source {
	case FromCookie:
		session, _, err := e.RefreshCredential(r)
		return session, err
	case FromHeader:
		raw, err := e.bearerToken(r)
		if err != nil {
			return model.SessionUser{}, err
		}
		return e.access.Verify(raw)
	default:
		return model.SessionUser{}, model.ErrTokenInvalid
	}
}

// RefreshCredential returns the verified session together with the raw
// presented token; the orchestrator needs the raw value to compare against
// the revocation store.
func (e *Extractor) RefreshCredential(r *http.Request) (model.SessionUser, string, error) {
	raw, err := e.cookies.Get(r)
	if err != nil {
		return model.SessionUser{}, "", model.ErrTokenInvalid
	}

	session, err := e.refresh.Verify(raw)
	if err != nil {
		return model.SessionUser{}, "", err
	}

	return session, raw, nil
}

func (e *Extractor) bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", model.ErrTokenInvalid
	}
	return strings.TrimSpace(header[7:]), nil
}
