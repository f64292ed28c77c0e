//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-user-auth/internal/cache"
	"go-user-auth/internal/config"
	"go-user-auth/internal/handler"
	"go-user-auth/internal/middleware"
	"go-user-auth/internal/model"
	"go-user-auth/internal/router"
	"go-user-auth/internal/service"
	"go-user-auth/internal/session"
	"go-user-auth/internal/token"
)

const (
	cookieName    = "refreshToken"
	loginDelay    = 50 * time.Millisecond
	adminPassword = "pw1"
	userPassword  = "pw2"
)

// memoryUserRepo satisfies the repository contract consumed by the services.
type memoryUserRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]model.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{nextID: 1, byID: map[int64]model.User{}}
}

func (r *memoryUserRepo) GetOne(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) Persists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byID[id]
	return ok, nil
}

func (r *memoryUserRepo) Add(_ context.Context, u model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return 0, model.ErrUserAlreadyExists
		}
	}

	u.ID = r.nextID
	r.nextID++
	r.byID[u.ID] = u
	return u.ID, nil
}

func (r *memoryUserRepo) Update(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryUserRepo) GetAll(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	return users, nil
}

func (r *memoryUserRepo) seed(t *testing.T, email, name, password string, role model.Role) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	id, err := r.Add(context.Background(), model.User{
		Email:     email,
		Name:      name,
		PwdHash:   string(hash),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	user, err := r.GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

type fixture struct {
	server *httptest.Server
	mr     *miniredis.Miniredis
	repo   *memoryUserRepo
}

// newServer wires the full stack against miniredis and an in-memory user
// repository, seeded with one admin (a@x.com/pw1) and one plain user
// (b@x.com/pw2).
func newServer(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryUserRepo()
	repo.seed(t, "a@x.com", "Alice", adminPassword, model.RoleAdmin)
	repo.seed(t, "b@x.com", "Bob", userPassword, model.RoleUser)

	accessCodec := token.NewCodec("access-secret", time.Minute)
	refreshCodec := token.NewCodec("refresh-secret", time.Hour)
	cookies := session.NewCookieCodec(cookieName, "cookie-secret", time.Hour)
	extractor := session.NewExtractor(accessCodec, refreshCodec, cookies)
	revocations := cache.NewRevocationStore(client)

	authService := service.NewAuthService(repo, revocations, accessCodec, refreshCodec, extractor, cookies, loginDelay)
	userService := service.NewUserService(repo)

	cfg := &config.Config{
		ServerPort:     "8080",
		RequestTimeout: 30 * time.Second,
		CORSOrigins:    []string{"*"},
	}

	appRouter := router.New(cfg, middleware.NewAdminGate(extractor), router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService),
		Health: handler.NewHealthHandler(nil, revocations),
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	return &fixture{server: server, mr: mr, repo: repo}
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
