package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// between instances. Each session is a JSON value with a native TTL; an
// auxiliary set per account indexes its tokens for DeleteByAccount.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "tutorcenter:",
	}
}

// Dial connects to Redis and verifies the connection with a PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *RedisStore) key(token string) string {
	return r.prefix + "session:" + token
}

func (r *RedisStore) accountKey(accountID string) string {
	return r.prefix + "account_sessions:" + accountID
}

// Create stores the session with a TTL matching its expiry and indexes it
// under its account. The index lives as long as its longest session; stale
// members left by naturally expired sessions are pruned here.
func (r *RedisStore) Create(ctx context.Context, s Session) error {
	if s.Token == "" || s.AccountID == "" {
		return fmt.Errorf("session: missing token or account id")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session: expires_at must be in the future")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	if err := r.prune(ctx, s.AccountID); err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(s.Token), data, ttl)
		p.SAdd(ctx, r.accountKey(s.AccountID), s.Token)
		r.extendIndex(ctx, p, s.AccountID, ttl)
		return nil
	})
	return err
}

// extendIndex queues an expiry on the account index that only ever moves
// forward.
func (r *RedisStore) extendIndex(ctx context.Context, p redis.Pipeliner, accountID string, ttl time.Duration) {
	p.ExpireNX(ctx, r.accountKey(accountID), ttl)
	p.ExpireGT(ctx, r.accountKey(accountID), ttl)
}

// prune drops index members whose session key no longer exists.
func (r *RedisStore) prune(ctx context.Context, accountID string) error {
	tokens, err := r.client.SMembers(ctx, r.accountKey(accountID)).Result()
	if err != nil || len(tokens) == 0 {
		return err
	}
	exists := make([]*redis.IntCmd, len(tokens))
	if _, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, t := range tokens {
			exists[i] = p.Exists(ctx, r.key(t))
		}
		return nil
	}); err != nil {
		return err
	}
	var stale []any
	for i, cmd := range exists {
		if cmd.Val() == 0 {
			stale = append(stale, tokens[i])
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return r.client.SRem(ctx, r.accountKey(accountID), stale...).Err()
}

// Get loads a session; a missing key maps to ErrNotFound.
func (r *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	val, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return Session{}, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	if s.Expired(time.Now()) {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Touch moves the expiry forward. The write only lands on a key that still
// exists, so a session deleted after the read stays deleted.
func (r *RedisStore) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	s, err := r.Get(ctx, token)
	if err != nil {
		return err
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, token)
	}
	s.ExpiresAt = expiresAt
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	ok, err := r.client.SetXX(ctx, r.key(token), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		r.extendIndex(ctx, p, s.AccountID, ttl)
		return nil
	})
	return err
}

// Delete removes a session and its index entry.
func (r *RedisStore) Delete(ctx context.Context, token string) error {
	s, err := r.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return r.client.Del(ctx, r.key(token)).Err()
	}
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key(token))
		p.SRem(ctx, r.accountKey(s.AccountID), token)
		return nil
	})
	return err
}

// DeleteByAccount removes every indexed session of accountID.
func (r *RedisStore) DeleteByAccount(ctx context.Context, accountID string) error {
	tokens, err := r.client.SMembers(ctx, r.accountKey(accountID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, r.key(t))
	}
	keys = append(keys, r.accountKey(accountID))
	return r.client.Del(ctx, keys...).Err()
}
