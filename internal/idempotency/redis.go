package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "idempotency:"

type redisRecord struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response,omitempty"`
}

// RedisStore is the cross-instance backend. SetNX gives the atomic
// check-and-set the processing lock requires; TTL handling is native.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Acquisition, error) {
	processing, err := json.Marshal(redisRecord{Status: StatusProcessing})
	if err != nil {
		return nil, err
	}

	// A record can expire between a failed SetNX and the Get that follows,
	// so loop once more on a missing read.
	for attempt := 0; attempt < 2; attempt++ {
		acquired, err := s.client.SetNX(ctx, redisKeyPrefix+key, processing, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("idempotency acquire failed: %w", err)
		}
		if acquired {
			return &Acquisition{Acquired: true, Status: StatusProcessing}, nil
		}

		data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup failed: %w", err)
		}

		var record redisRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("idempotency record corrupted: %w", err)
		}
		return &Acquisition{Status: record.Status, Response: record.Response}, nil
	}

	return nil, errors.New("idempotency acquire raced record expiry twice")
}

func (s *RedisStore) Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	record, err := json.Marshal(redisRecord{Status: StatusCompleted, Response: response})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, record, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete failed: %w", err)
	}
	return nil
}
