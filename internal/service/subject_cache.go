package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

// YearSubjectStore persists cached subject lists grouped by root. Each root
// is one bucket and each year one field inside it.
type YearSubjectStore interface {
	Field(ctx context.Context, bucket, field string, dest interface{}) error
	PutField(ctx context.Context, bucket, field string, value interface{}, ttl time.Duration) error
	Drop(ctx context.Context, bucket string) error
}

// SubjectCache keeps the year to subjects cascade of the plan builder warm.
// A nil or disabled cache always misses.
type SubjectCache struct {
	store   YearSubjectStore
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewSubjectCache constructs a subject cache.
func NewSubjectCache(store YearSubjectStore, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *SubjectCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectCache{store: store, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether lookups can hit.
func (c *SubjectCache) Enabled() bool {
	return c != nil && c.enabled && c.store != nil
}

func subjectBucket(rootCode int64) string {
	return fmt.Sprintf("%s:%d", subjectsCachePrefix, rootCode)
}

// Lookup returns the cached subjects of a year and whether the entry existed.
// Store failures are logged and reported as misses.
func (c *SubjectCache) Lookup(ctx context.Context, rootCode, yearCode int64) ([]models.Subject, bool) {
	if !c.Enabled() {
		return nil, false
	}
	start := time.Now()
	var subjects []models.Subject
	err := c.store.Field(ctx, subjectBucket(rootCode), strconv.FormatInt(yearCode, 10), &subjects)
	hit := err == nil
	if c.metrics != nil {
		c.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		c.logger.Warn("subject cache lookup failed", zap.Int64("root_code", rootCode), zap.Int64("year_code", yearCode), zap.Error(err))
	}
	if !hit {
		return nil, false
	}
	return subjects, true
}

// Remember stores the subjects of a year.
func (c *SubjectCache) Remember(ctx context.Context, rootCode, yearCode int64, subjects []models.Subject) {
	if !c.Enabled() {
		return
	}
	start := time.Now()
	err := c.store.PutField(ctx, subjectBucket(rootCode), strconv.FormatInt(yearCode, 10), subjects, c.ttl)
	if c.metrics != nil {
		c.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		c.logger.Warn("subject cache store failed", zap.Int64("root_code", rootCode), zap.Int64("year_code", yearCode), zap.Error(err))
	}
}

// Forget drops every cached year of a root. Subjects can move between years,
// so a single edit invalidates the whole root.
func (c *SubjectCache) Forget(ctx context.Context, rootCode int64) {
	if !c.Enabled() {
		return
	}
	if err := c.store.Drop(ctx, subjectBucket(rootCode)); err != nil {
		c.logger.Warn("subject cache invalidate failed", zap.Int64("root_code", rootCode), zap.Error(err))
	}
}
