package command

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mkravets/erp-costing/internal/costing/cache"
	"github.com/mkravets/erp-costing/internal/costing/domain"
	"github.com/mkravets/erp-costing/internal/costing/events"
	"github.com/mkravets/erp-costing/pkg/logger"
)

// ConsumeStockCommand represents an outward stock movement. The costing
// method is chosen by tenant configuration outside this engine; the handler
// only dispatches on it.
type ConsumeStockCommand struct {
	TenantID    string
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Method      domain.CostingMethod
}

// ConsumeStockHandler handles the consume stock command for both costing
// methods. The whole walk is atomic: on any failure, including insufficient
// stock, the ledger is left in its pre-call state.
type ConsumeStockHandler struct {
	repo        domain.LayerRepository
	publisher   events.Publisher
	reportCache *cache.ReportCache
}

// NewConsumeStockHandler creates a new consume stock handler. Publisher and
// report cache are optional.
func NewConsumeStockHandler(repo domain.LayerRepository, publisher events.Publisher, reportCache *cache.ReportCache) *ConsumeStockHandler {
	return &ConsumeStockHandler{repo: repo, publisher: publisher, reportCache: reportCache}
}

// Handle executes the consumption walk and returns the cost breakdown the
// Accounting collaborator turns into a journal entry
func (h *ConsumeStockHandler) Handle(ctx context.Context, cmd ConsumeStockCommand) (*domain.ConsumptionPlan, error) {
	scope := domain.Scope{
		TenantID:    cmd.TenantID,
		ProductID:   cmd.ProductID,
		WarehouseID: cmd.WarehouseID,
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	planner, err := domain.PlannerFor(cmd.Method)
	if err != nil {
		return nil, err
	}

	plan, err := h.repo.Consume(ctx, scope, func(layers []domain.CostLayer) (*domain.ConsumptionPlan, error) {
		return planner(layers, cmd.Quantity)
	})
	if err != nil {
		return nil, err
	}

	if h.publisher != nil {
		if err := h.publisher.PublishStockConsumed(ctx, events.StockConsumedEvent{
			TenantID:    cmd.TenantID,
			ProductID:   cmd.ProductID,
			WarehouseID: cmd.WarehouseID,
			Method:      plan.Method,
			Quantity:    plan.Quantity,
			TotalCost:   plan.TotalCost,
			AverageCost: plan.AverageCost,
			Layers:      plan.Layers,
		}); err != nil {
			logger.Warn(ctx).Err(err).Str("product_id", cmd.ProductID).Msg("Failed to publish stock consumed event")
		}
	}

	if h.reportCache != nil {
		if err := h.reportCache.Invalidate(ctx, cmd.TenantID); err != nil {
			logger.Warn(ctx).Err(err).Str("tenant_id", cmd.TenantID).Msg("Failed to invalidate report cache")
		}
	}

	return plan, nil
}
