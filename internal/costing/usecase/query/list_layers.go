package query

import (
	"context"
	"fmt"

	"github.com/mkravets/erp-costing/internal/costing/domain"
)

// ListLayersQuery represents the active-layer audit listing query
type ListLayersQuery struct {
	TenantID    string
	ProductID   string
	WarehouseID string
}

// ListLayersHandler handles the active-layer listing query
type ListLayersHandler struct {
	repo domain.LayerRepository
}

// NewListLayersHandler creates a new layer listing handler
func NewListLayersHandler(repo domain.LayerRepository) *ListLayersHandler {
	return &ListLayersHandler{repo: repo}
}

// Handle returns the scope's layers with remaining quantity in FIFO order
func (h *ListLayersHandler) Handle(ctx context.Context, q ListLayersQuery) ([]domain.CostLayer, error) {
	scope := domain.Scope{
		TenantID:    q.TenantID,
		ProductID:   q.ProductID,
		WarehouseID: q.WarehouseID,
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	layers, err := h.repo.ActiveLayers(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list active layers: %w", err)
	}

	return layers, nil
}
