package identity

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9" // Redis client
)

const redisPrefix = "identity:" // Key prefix for stored credentials

// RedisStore keeps credentials as JSON values in Redis
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a store backed by rdb
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, label string) (Credential, error) {
	if err := checkLabel(label); err != nil {
		return Credential{}, err
	}
	var cred Credential
	found, err := getJSON(ctx, s.rdb, redisPrefix+label, &cred) // Fetch and decode
	if err != nil {
		return Credential{}, fmt.Errorf("read identity %q: %w", label, err)
	}
	if !found {
		return Credential{}, ErrNotFound // Key does not exist
	}
	cred.Label = label
	return cred, nil
}

func (s *RedisStore) Put(ctx context.Context, cred Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	return setJSON(ctx, s.rdb, redisPrefix+cred.Label, normalize(cred)) // Credentials never expire
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var labels []string
	iter := s.rdb.Scan(ctx, 0, redisPrefix+"*", 100).Iterator() // Walk all identity keys
	for iter.Next(ctx) {
		labels = append(labels, strings.TrimPrefix(iter.Val(), redisPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(labels)
	return labels, nil
}

// getJSON retrieves a value from Redis and unmarshals it into dest
func getJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// setJSON stores value in Redis as JSON without expiry
func setJSON(ctx context.Context, rdb *redis.Client, key string, value any) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, 0).Err() // Set value in Redis
}
