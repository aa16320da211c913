package session

import (
	"context"
	"errors"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/wricardo/courtqueue/game/engine"
)

const defaultRedisPrefix = "courtqueue:"

// sessions and the index live in separate namespaces under the prefix, so no
// area id can name the index key
const (
	areaNamespace = "area:"
	indexName     = "areas"
)

// RedisStore keeps one JSON value per area at <prefix>area:<id>, plus a set of
// known area ids at <prefix>areas.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix shared by sessions and the area index
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore connects a new client to address
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) key(areaID string) string {
	return s.prefix + areaNamespace + areaID
}

func (s *RedisStore) indexKey() string {
	return s.prefix + indexName
}

// Ping checks connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("failed to reach redis", err)
	}
	return nil
}

// Get returns the area's session
func (s *RedisStore) Get(ctx context.Context, areaID string) (*engine.Session, error) {
	val, err := s.client.Get(ctx, s.key(areaID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(areaID)
		}
		return nil, unavailable("failed to get from redis", err)
	}
	return decodeSession(areaID, val)
}

// Put writes the session and indexes the area in one pipeline
func (s *RedisStore) Put(ctx context.Context, areaID string, sess *engine.Session) error {
	if err := checkPut(areaID, sess); err != nil {
		return err
	}
	data, err := encodeSession(sess)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(areaID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), areaID)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("failed to save to redis", err)
	}
	return nil
}

// List returns the indexed area ids, sorted
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, unavailable("failed to list from redis", err)
	}
	slices.Sort(ids)
	return ids, nil
}

// Clear deletes every indexed session and the index itself
func (s *RedisStore) Clear(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return unavailable("failed to list from redis", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, s.indexKey())

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("failed to clear redis", err)
	}
	return nil
}

// Close releases the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
