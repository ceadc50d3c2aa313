package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang/snappy"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const snapshotKeyPrefix = "profitlens:snapshot:"

// SnapshotStore mirrors computed snapshots to redis as snappy-compressed JSON.
// A nil store is a valid no-op.
type SnapshotStore struct {
	client *redis.Client
	log    *zap.Logger
}

func NewSnapshotStore(client *redis.Client, log *zap.Logger) *SnapshotStore {
	if client == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotStore{client: client, log: log.Named("cache.snapshot")}
}

// Load decodes the snapshot stored under key into dst. It reports false on a
// miss or any redis or decode failure.
func (s *SnapshotStore) Load(ctx context.Context, key string, dst any) bool {
	if s == nil {
		return false
	}
	raw, err := s.client.Get(ctx, snapshotKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("snapshot load failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	decoded, err := snappy.Decode(nil, raw)
	if err != nil {
		s.log.Warn("snapshot decompress failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(decoded, dst); err != nil {
		s.log.Warn("snapshot decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Store writes value under key with the given ttl. Failures are logged only.
func (s *SnapshotStore) Store(ctx context.Context, key string, value any, ttl time.Duration) {
	if s == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("snapshot encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, snapshotKeyPrefix+key, snappy.Encode(nil, payload), ttl).Err(); err != nil {
		s.log.Warn("snapshot store failed", zap.String("key", key), zap.Error(err))
	}
}
