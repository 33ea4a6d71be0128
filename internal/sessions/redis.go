package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/tablemate/internal/conversation"
)

const (
	guestCookie = "tablemate_guest"
	keyPrefix   = "tablemate:session:"
	// the guest id outlives any single session
	guestTTL = 30 * 24 * time.Hour
)

// KV is the part of the redis client the store uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps sessions server-side under tablemate:session:<guest>:<restaurant>. The
// guest is identified by a random id cookie; keys expire after the idle timeout.
type RedisStore struct {
	kv   KV
	idle time.Duration
}

func NewRedisStore(kv KV, idle time.Duration) *RedisStore {
	return &RedisStore{kv: kv, idle: idle}
}

// Connect parses a redis:// URL and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func key(guest, restaurantID string) string { return keyPrefix + guest + ":" + restaurantID }

// guestID reads the guest cookie or issues one. A new cookie is also added to r so a Save
// later in the same request finds it.
func guestID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(guestCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	c := &http.Cookie{
		Name:     guestCookie,
		Value:    uuid.NewString(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(guestTTL.Seconds()),
	}
	http.SetCookie(w, c)
	r.AddCookie(c)
	return c.Value
}

func (*RedisStore) detached() {}

func (s *RedisStore) Load(w http.ResponseWriter, r *http.Request, restaurantID string) (conversation.Session, error) {
	raw, err := s.kv.Get(r.Context(), key(guestID(w, r), restaurantID)).Result()
	if errors.Is(err, redis.Nil) {
		return conversation.NewSession(restaurantID), nil
	}
	if err != nil {
		return conversation.Session{}, fmt.Errorf("load session: %w", err)
	}
	var sess conversation.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.RestaurantID != restaurantID {
		return conversation.NewSession(restaurantID), nil
	}
	return sess, nil
}

func (s *RedisStore) Save(w http.ResponseWriter, r *http.Request, sess conversation.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.kv.Set(r.Context(), key(guestID(w, r), sess.RestaurantID), b, s.idle).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
