package token

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-user-auth/internal/model"
)

// Codec signs and verifies the compact session tokens. A codec is bound to a
// single secret; access and refresh tokens use two independent codecs so a
// token minted by one never verifies against the other.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Sign encodes the session as an HS256 JWT expiring after the codec TTL.
func (c *Codec) Sign(session model.SessionUser) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"id":    session.ID,
		"email": session.Email,
		"name":  session.Name,
		"role":  int(session.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(c.ttl).Unix(),
	}
	if session.Salt != 0 {
		claims["salt"] = session.Salt
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrSigning, err)
	}

	return signed, nil
}

// Verify checks signature and expiry and projects the claims back to a
// SessionUser. Malformed, forged and expired tokens all collapse to
// ErrTokenInvalid; callers must not distinguish them.
func (c *Codec) Verify(tokenString string) (model.SessionUser, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrTokenInvalid
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.SessionUser{}, model.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return model.SessionUser{}, model.ErrTokenInvalid
	}

	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return model.SessionUser{}, model.ErrTokenInvalid
	}

	// Salt is deliberately not projected on read.
	session := model.SessionUser{ID: int64(id)}
	session.Email, _ = claims["email"].(string)
	session.Name, _ = claims["name"].(string)
	if role, roleOK := claims["role"].(float64); roleOK {
		session.Role = model.Role(int(role))
	}
	if !session.Role.Valid() {
		return model.SessionUser{}, model.ErrTokenInvalid
	}

	return session, nil
}

// NewSalt returns a random per-issuance value so repeated signing of the same
// claims yields distinct signatures even within one second of iat resolution.
func NewSalt() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt32))
	if err != nil {
		return time.Now().UnixNano()
	}
	return n.Int64() + 1
}
