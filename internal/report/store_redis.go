package report

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL matches the dialogue timeout: an idle report quietly expires.
const DefaultTTL = 120 * time.Second

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) key(room, owner string) string {
	return "report:" + strings.TrimSpace(room) + ":" + strings.TrimSpace(owner)
}

// Save writes the session and refreshes its TTL, so every answer extends the
// dialogue window.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(sess.Room, sess.Owner), raw, s.ttl).Err()
}

// Load returns nil when no session exists or it has expired.
func (s *Store) Load(ctx context.Context, room, owner string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, s.key(room, owner)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) Delete(ctx context.Context, room, owner string) error {
	return s.rdb.Del(ctx, s.key(room, owner)).Err()
}
