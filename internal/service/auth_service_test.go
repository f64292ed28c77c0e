package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-user-auth/internal/cache"
	"go-user-auth/internal/model"
	"go-user-auth/internal/session"
	"go-user-auth/internal/token"
)

const testFailDelay = 60 * time.Millisecond

type fakeUserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]model.User{}}
	for _, u := range users {
		repo.users[u.Email] = u
	}
	return repo
}

func (r *fakeUserRepo) GetOne(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[email]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func adminUser(t *testing.T) model.User {
	t.Helper()
	return model.User{
		ID:      1,
		Email:   "a@x.com",
		Name:    "Alice",
		PwdHash: mustHash(t, "pw1"),
		Role:    model.RoleAdmin,
	}
}

func newTestAuthService(t *testing.T, users ...model.User) (*AuthService, *miniredis.Miniredis, *session.CookieCodec) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	access := token.NewCodec("access-secret", time.Minute)
	refresh := token.NewCodec("refresh-secret", time.Hour)
	cookies := session.NewCookieCodec("refreshToken", "cookie-secret", time.Hour)
	extractor := session.NewExtractor(access, refresh, cookies)
	store := cache.NewRevocationStore(client)

	svc := NewAuthService(newFakeUserRepo(users...), store, access, refresh, extractor, cookies, testFailDelay)
	return svc, mr, cookies
}

// loginAndIssue runs the full login flow and returns the session, the access
// token and a request primed with the refresh cookie.
func loginAndIssue(t *testing.T, svc *AuthService) (model.SessionUser, string, *http.Request) {
	t.Helper()
	ctx := context.Background()

	sess, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	_, err = svc.IssueRefreshToken(ctx, rec, sess)
	require.NoError(t, err)

	accessToken, err := svc.IssueAccessToken(sess)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/token", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	return sess, accessToken, req
}

func TestLoginSuccess(t *testing.T) {
	svc, _, _ := newTestAuthService(t, adminUser(t))

	sess, err := svc.Login(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, sess.ID)
	assert.Equal(t, "a@x.com", sess.Email)
	assert.Equal(t, model.RoleAdmin, sess.Role)
	assert.Zero(t, sess.Salt)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t, adminUser(t))

	_, err := svc.Login(context.Background(), "nobody@x.com", "pw1")
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestLoginWrongPasswordDelays(t *testing.T) {
	svc, _, _ := newTestAuthService(t, adminUser(t))

	started := time.Now()
	_, err := svc.Login(context.Background(), "a@x.com", "wrong")
	elapsed := time.Since(started)

	require.ErrorIs(t, err, model.ErrUnauthorized)
	assert.GreaterOrEqual(t, elapsed, testFailDelay)
}

func TestLoginFailureLatencyIndistinguishable(t *testing.T) {
	// Unknown email takes the same delay as a wrong password.
	svc, _, _ := newTestAuthService(t, adminUser(t))

	started := time.Now()
	_, err := svc.Login(context.Background(), "nobody@x.com", "pw1")
	elapsed := time.Since(started)

	require.ErrorIs(t, err, model.ErrUnauthorized)
	assert.GreaterOrEqual(t, elapsed, testFailDelay)
}

func TestIssueAccessTokenSaltsEveryCall(t *testing.T) {
	svc, _, _ := newTestAuthService(t, adminUser(t))
	sess := adminUser(t).Session()

	first, err := svc.IssueAccessToken(sess)
	require.NoError(t, err)
	second, err := svc.IssueAccessToken(sess)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestIssueRefreshTokenSetsCookieAndStoreEntry(t *testing.T) {
	svc, mr, cookies := newTestAuthService(t, adminUser(t))
	ctx := context.Background()

	rec := httptest.NewRecorder()
	signed, err := svc.IssueRefreshToken(ctx, rec, adminUser(t).Session())
	require.NoError(t, err)

	result := rec.Result().Cookies()
	require.Len(t, result, 1)
	assert.Equal(t, cookies.Name(), result[0].Name)
	assert.True(t, result[0].HttpOnly)

	require.True(t, mr.Exists("refresh:1"))
	assert.True(t, cache.TokenMatches(mustGet(t, mr, "refresh:1"), signed))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	value, err := mr.Get(key)
	require.NoError(t, err)
	return value
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t, adminUser(t))

	_, loginAccess, req := loginAndIssue(t, svc)

	refreshed, err := svc.Refresh(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed)
	assert.NotEqual(t, loginAccess, refreshed)
}

func TestRefreshWithoutCookie(t *testing.T) {
	svc, _, _ := newTestAuthService(t, adminUser(t))

	req := httptest.NewRequest(http.MethodGet, "/auth/token", nil)
	_, err := svc.Refresh(context.Background(), req)
	require.ErrorIs(t, err, model.ErrRefreshNotLive)
}

func TestRefreshAfterLogoutFails(t *testing.T) {
	svc, _, _ := newTestAuthService(t, adminUser(t))
	ctx := context.Background()

	_, _, req := loginAndIssue(t, svc)

	rec := httptest.NewRecorder()
	svc.Logout(ctx, req, rec)

	// The cookie still carries a cryptographically valid token, but the
	// revocation entry is gone.
	_, err := svc.Refresh(ctx, req)
	require.ErrorIs(t, err, model.ErrRefreshNotLive)
}

func TestRefreshAfterStoreExpiry(t *testing.T) {
	svc, mr, _ := newTestAuthService(t, adminUser(t))

	_, _, req := loginAndIssue(t, svc)
	mr.FastForward(2 * time.Hour)

	_, err := svc.Refresh(context.Background(), req)
	require.ErrorIs(t, err, model.ErrRefreshNotLive)
}

func TestRefreshFailsClosedWhenStoreDown(t *testing.T) {
	svc, mr, _ := newTestAuthService(t, adminUser(t))

	_, _, req := loginAndIssue(t, svc)
	mr.Close()

	_, err := svc.Refresh(context.Background(), req)
	require.ErrorIs(t, err, model.ErrRefreshNotLive)
}

func TestSecondLoginSupersedesFirst(t *testing.T) {
	// Last write wins: after two logins only the newest refresh token is
	// live; the older one fails on first use.
	svc, _, _ := newTestAuthService(t, adminUser(t))
	ctx := context.Background()

	_, _, firstReq := loginAndIssue(t, svc)
	_, _, secondReq := loginAndIssue(t, svc)

	_, err := svc.Refresh(ctx, firstReq)
	require.ErrorIs(t, err, model.ErrRefreshNotLive)

	refreshed, err := svc.Refresh(ctx, secondReq)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed)
}

func TestConcurrentLoginsExactlyOneLiveToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t, adminUser(t))
	ctx := context.Background()

	sess, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	requests := make([]*http.Request, 2)
	var wg sync.WaitGroup
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			_, issueErr := svc.IssueRefreshToken(ctx, rec, sess)
			require.NoError(t, issueErr)

			req := httptest.NewRequest(http.MethodGet, "/auth/token", nil)
			for _, c := range rec.Result().Cookies() {
				req.AddCookie(c)
			}
			requests[i] = req
		}(i)
	}
	wg.Wait()

	live := 0
	for _, req := range requests {
		if _, err := svc.Refresh(ctx, req); err == nil {
			live++
		}
	}
	assert.Equal(t, 1, live)
}

func TestLogoutIdempotent(t *testing.T) {
	svc, _, cookies := newTestAuthService(t, adminUser(t))
	ctx := context.Background()

	_, _, req := loginAndIssue(t, svc)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		svc.Logout(ctx, req, rec)

		result := rec.Result().Cookies()
		require.Len(t, result, 1)
		assert.Equal(t, cookies.Name(), result[0].Name)
		assert.Negative(t, result[0].MaxAge)
	}
}

func TestLogoutWithGarbageCookie(t *testing.T) {
	svc, _, cookies := newTestAuthService(t, adminUser(t))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookies.Name(), Value: "garbage"})

	rec := httptest.NewRecorder()
	svc.Logout(context.Background(), req, rec)

	result := rec.Result().Cookies()
	require.Len(t, result, 1)
	assert.Negative(t, result[0].MaxAge)
}
