package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-user-auth/internal/cache"
	"go-user-auth/internal/model"
	"go-user-auth/internal/session"
	"go-user-auth/internal/token"
)

// userGetter is the slice of the user repository the login flow needs.
type userGetter interface {
	GetOne(ctx context.Context, email string) (model.User, error)
}

// revocationStore tracks the live refresh token hash per user id.
type revocationStore interface {
	SetTokenByID(ctx context.Context, id int64, token string, ttl time.Duration) error
	GetTokenByID(ctx context.Context, id int64) (string, error)
	RevokeTokenByID(ctx context.Context, id int64) (int64, error)
}

// AuthService orchestrates the login / refresh / logout lifecycle.
type AuthService struct {
	users     userGetter
	store     revocationStore
	access    *token.Codec
	refresh   *token.Codec
	extractor *session.Extractor
	cookies   *session.CookieCodec
	failDelay time.Duration
}

func NewAuthService(
	users userGetter,
	store revocationStore,
	access *token.Codec,
	refresh *token.Codec,
	extractor *session.Extractor,
	cookies *session.CookieCodec,
	failDelay time.Duration,
) *AuthService {
	return &AuthService{
		users:     users,
		store:     store,
		access:    access,
		refresh:   refresh,
		extractor: extractor,
		cookies:   cookies,
		failDelay: failDelay,
	}
}

// Login checks the credentials and returns the session projection of the
// user. Unknown email and wrong password are indistinguishable to the caller:
// both return ErrUnauthorized after the same fixed delay, so response latency
// does not leak account existence.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.SessionUser, error) {
	user, err := s.users.GetOne(ctx, email)
	if err != nil {
		s.failSleep(ctx)
		return model.SessionUser{}, model.ErrUnauthorized
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PwdHash), []byte(password)) != nil {
		s.failSleep(ctx)
		return model.SessionUser{}, model.ErrUnauthorized
	}

	return user.Session(), nil
}

// IssueAccessToken stamps a fresh salt and signs a short-lived access token.
// Two calls with the same session always produce distinct signatures.
func (s *AuthService) IssueAccessToken(sess model.SessionUser) (string, error) {
	sess.Salt = token.NewSalt()
	return s.access.Sign(sess)
}

// IssueRefreshToken signs a long-lived refresh token, registers it in the
// revocation store under the user id with a TTL matching the cookie max-age,
// and sets the signed HttpOnly cookie on the response.
func (s *AuthService) IssueRefreshToken(ctx context.Context, w http.ResponseWriter, sess model.SessionUser) (string, error) {
	sess.Salt = token.NewSalt()
	signed, err := s.refresh.Sign(sess)
	if err != nil {
		return "", err
	}

	if err := s.store.SetTokenByID(ctx, sess.ID, signed, s.cookies.MaxAge()); err != nil {
		return "", err
	}

	s.cookies.Set(w, signed)
	return signed, nil
}

// Refresh exchanges a valid refresh cookie for a new access token. The cookie
// token must pass signature and expiry checks AND match the live entry in the
// revocation store; a logged-out or superseded token fails even though its
// signature still verifies. An unreachable store fails closed.
func (s *AuthService) Refresh(ctx context.Context, r *http.Request) (string, error) {
	sess, presented, err := s.extractor.RefreshCredential(r)
	if err != nil {
		return "", model.ErrRefreshNotLive
	}

	stored, err := s.store.GetTokenByID(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, model.ErrStoreUnavailable) {
			slog.Warn("revocation store unreachable; refusing refresh", "user_id", sess.ID, "error", err)
		}
		return "", model.ErrRefreshNotLive
	}

	if !cache.TokenMatches(stored, presented) {
		// A newer login replaced this token; only the latest one is live.
		return "", model.ErrRefreshNotLive
	}

	return s.IssueAccessToken(sess)
}

// Logout revokes the refresh session, if any, and clears the cookie. It is
// idempotent: a missing, expired or garbage cookie is not an error, and the
// cookie is cleared unconditionally.
func (s *AuthService) Logout(ctx context.Context, r *http.Request, w http.ResponseWriter) {
	if sess, err := s.extractor.Session(r, session.FromCookie); err == nil {
		if _, err := s.store.RevokeTokenByID(ctx, sess.ID); err != nil {
			slog.Warn("refresh token revocation failed", "user_id", sess.ID, "error", err)
		}
	}

	s.cookies.Clear(w)
}

// failSleep imposes the fixed login-failure delay. The sleep respects request
// cancellation but the error path never short-circuits below the floor
// otherwise.
func (s *AuthService) failSleep(ctx context.Context) {
	if s.failDelay <= 0 {
		return
	}

	timer := time.NewTimer(s.failDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
