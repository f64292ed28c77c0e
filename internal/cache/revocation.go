package cache

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"go-user-auth/internal/model"
)

const keyPrefix = "refresh:"

// RevocationStore maps a user id to the hash of their currently valid refresh
// token. Exactly one refresh session per user id is representable: a new
// login overwrites the previous entry, and logout deletes it. A refresh token
// whose entry is gone is dead no matter how long its signature stays valid.
//
// The raw token is never stored; see HashToken.
type RevocationStore struct {
	client *redis.Client
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// SetTokenByID registers token as the live refresh token for id, replacing
// any previous entry. The entry expires with the token itself.
func (s *RevocationStore) SetTokenByID(ctx context.Context, id int64, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key(id), HashToken(token), ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetTokenByID returns the stored token hash, or ErrTokenNotLive when no
// entry exists (revoked or expired).
func (s *RevocationStore) GetTokenByID(ctx context.Context, id int64) (string, error) {
	stored, err := s.client.Get(ctx, key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", model.ErrTokenNotLive
	}
	if err != nil {
		return "", unavailable(err)
	}
	return stored, nil
}

// RevokeTokenByID deletes the entry for id and reports how many entries were
// removed (0 or 1).
func (s *RevocationStore) RevokeTokenByID(ctx context.Context, id int64) (int64, error) {
	removed, err := s.client.Del(ctx, key(id)).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return removed, nil
}

// Health pings the backing cache.
func (s *RevocationStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

// HashToken digests a token for storage. SHA-256 rather than bcrypt: compact
// JWTs exceed bcrypt's 72-byte input limit, and the digest comparison below
// is constant-time.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenMatches compares a stored hash against a presented raw token.
func TokenMatches(storedHash string, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(HashToken(presented))) == 1
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
}
