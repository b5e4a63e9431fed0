package query

import (
	"context"
	"fmt"

	"github.com/mkravets/erp-costing/internal/costing/cache"
	"github.com/mkravets/erp-costing/internal/costing/domain"
)

// GetValuationReportQuery represents the tenant-wide valuation report query
type GetValuationReportQuery struct {
	TenantID string
}

// GetValuationReportHandler handles the report query, consulting the Redis
// cache before hitting the ledger
type GetValuationReportHandler struct {
	repo        domain.LayerRepository
	reportCache *cache.ReportCache
}

// NewGetValuationReportHandler creates a new report query handler. The
// report cache is optional.
func NewGetValuationReportHandler(repo domain.LayerRepository, reportCache *cache.ReportCache) *GetValuationReportHandler {
	return &GetValuationReportHandler{repo: repo, reportCache: reportCache}
}

// Handle returns the tenant's inventory valuation grouped by (product,
// warehouse), sorted by product id
func (h *GetValuationReportHandler) Handle(ctx context.Context, q GetValuationReportQuery) ([]domain.ValuationLine, error) {
	if q.TenantID == "" {
		return nil, domain.ErrMissingTenant
	}

	if h.reportCache != nil {
		if lines, ok := h.reportCache.Get(ctx, q.TenantID); ok {
			return lines, nil
		}
	}

	lines, err := h.repo.ValuationReport(ctx, q.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to build valuation report: %w", err)
	}

	if h.reportCache != nil {
		h.reportCache.Set(ctx, q.TenantID, lines)
	}

	return lines, nil
}
