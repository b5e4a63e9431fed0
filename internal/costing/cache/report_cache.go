package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkravets/erp-costing/internal/costing/domain"
	"github.com/mkravets/erp-costing/pkg/logger"
)

// ReportCache caches tenant valuation reports in Redis. Mutating commands
// invalidate the tenant's entry, so a cached report never outlives the
// ledger state it was computed from by more than the in-flight window.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new valuation report cache
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func reportKey(tenantID string) string {
	return "costing:report:" + tenantID
}

// Get returns the cached report for a tenant, or ok=false on a miss
func (c *ReportCache) Get(ctx context.Context, tenantID string) ([]domain.ValuationLine, bool) {
	data, err := c.client.Get(ctx, reportKey(tenantID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn(ctx).Err(err).Str("tenant_id", tenantID).Msg("Report cache read failed")
		}
		return nil, false
	}

	var lines []domain.ValuationLine
	if err := json.Unmarshal(data, &lines); err != nil {
		logger.Warn(ctx).Err(err).Str("tenant_id", tenantID).Msg("Report cache entry corrupt")
		return nil, false
	}

	return lines, true
}

// Set stores a tenant's report; failures are logged, never propagated
func (c *ReportCache) Set(ctx context.Context, tenantID string, lines []domain.ValuationLine) {
	data, err := json.Marshal(lines)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("tenant_id", tenantID).Msg("Report cache marshal failed")
		return
	}

	if err := c.client.Set(ctx, reportKey(tenantID), data, c.ttl).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("tenant_id", tenantID).Msg("Report cache write failed")
	}
}

// Invalidate drops a tenant's cached report after a ledger mutation
func (c *ReportCache) Invalidate(ctx context.Context, tenantID string) error {
	if err := c.client.Del(ctx, reportKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate report cache: %w", err)
	}
	return nil
}
