package query

import (
	"context"
	"fmt"

	"github.com/mkravets/erp-costing/internal/costing/domain"
)

// GetValuationQuery represents the query for a single-product valuation.
// An empty WarehouseID aggregates tenant-wide across all warehouses.
type GetValuationQuery struct {
	TenantID    string
	ProductID   string
	WarehouseID string
}

// GetValuationHandler handles the valuation query
type GetValuationHandler struct {
	repo domain.LayerRepository
}

// NewGetValuationHandler creates a new valuation query handler
func NewGetValuationHandler(repo domain.LayerRepository) *GetValuationHandler {
	return &GetValuationHandler{repo: repo}
}

// Handle returns the current valuation of the scope. A scope with zero
// layers is not an error; it yields an all-zero result.
func (h *GetValuationHandler) Handle(ctx context.Context, q GetValuationQuery) (domain.ValuationResult, error) {
	if q.TenantID == "" {
		return domain.ValuationResult{}, domain.ErrMissingTenant
	}
	if q.ProductID == "" {
		return domain.ValuationResult{}, domain.ErrMissingProduct
	}

	result, err := h.repo.Valuation(ctx, q.TenantID, q.ProductID, q.WarehouseID)
	if err != nil {
		return domain.ValuationResult{}, fmt.Errorf("failed to compute valuation: %w", err)
	}

	return result, nil
}
