package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

// SubjectCacheRepository keeps cached subject lists in one Redis hash per root.
type SubjectCacheRepository struct {
	client *redis.Client
}

// NewSubjectCacheRepository constructs the repository. A nil client misses on every read.
func NewSubjectCacheRepository(client *redis.Client) *SubjectCacheRepository {
	return &SubjectCacheRepository{client: client}
}

// Field decodes one hash field into dest.
func (r *SubjectCacheRepository) Field(ctx context.Context, bucket, field string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.HGet(ctx, bucket, field).Bytes()
	if err == redis.Nil {
		return appErrors.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis hget %s/%s: %w", bucket, field, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		r.client.HDel(ctx, bucket, field)
		return fmt.Errorf("decode %s/%s: %w", bucket, field, err)
	}
	return nil
}

// PutField writes one field and refreshes the hash expiry.
func (r *SubjectCacheRepository) PutField(ctx context.Context, bucket, field string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", bucket, field, err)
	}
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, bucket, field, payload)
	pipe.Expire(ctx, bucket, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s/%s: %w", bucket, field, err)
	}
	return nil
}

// Drop removes the whole bucket.
func (r *SubjectCacheRepository) Drop(ctx context.Context, bucket string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, bucket).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", bucket, err)
	}
	return nil
}
