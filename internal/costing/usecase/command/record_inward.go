package command

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkravets/erp-costing/internal/costing/cache"
	"github.com/mkravets/erp-costing/internal/costing/domain"
	"github.com/mkravets/erp-costing/internal/costing/events"
	"github.com/mkravets/erp-costing/pkg/logger"
)

// RecordInwardCommand represents an inward stock movement: a goods receipt,
// production receipt, customer return or manual adjustment. The engine
// performs no deduplication; idempotency of repeated calls with the same
// source reference is the caller's responsibility.
type RecordInwardCommand struct {
	TenantID    string
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	SourceType  domain.SourceType
	SourceID    string

	// LayerDate is the economic date used for FIFO ordering; zero means now
	LayerDate time.Time
}

// RecordInwardHandler handles the record inward command
type RecordInwardHandler struct {
	repo        domain.LayerRepository
	publisher   events.Publisher
	reportCache *cache.ReportCache
}

// NewRecordInwardHandler creates a new record inward handler. Publisher and
// report cache are optional.
func NewRecordInwardHandler(repo domain.LayerRepository, publisher events.Publisher, reportCache *cache.ReportCache) *RecordInwardHandler {
	return &RecordInwardHandler{repo: repo, publisher: publisher, reportCache: reportCache}
}

// Handle validates the movement and appends one new cost layer
func (h *RecordInwardHandler) Handle(ctx context.Context, cmd RecordInwardCommand) (*domain.CostLayer, error) {
	scope := domain.Scope{
		TenantID:    cmd.TenantID,
		ProductID:   cmd.ProductID,
		WarehouseID: cmd.WarehouseID,
	}

	layer, err := domain.NewCostLayer(scope, cmd.Quantity, cmd.UnitCost, cmd.SourceType, cmd.SourceID, cmd.LayerDate)
	if err != nil {
		return nil, err
	}

	if err := h.repo.CreateLayer(ctx, layer); err != nil {
		return nil, fmt.Errorf("failed to record inward movement: %w", err)
	}

	if h.publisher != nil {
		if err := h.publisher.PublishStockReceived(ctx, events.StockReceivedEvent{
			TenantID:    layer.TenantID,
			ProductID:   layer.ProductID,
			WarehouseID: layer.WarehouseID,
			LayerID:     layer.ID,
			Quantity:    layer.OriginalQuantity,
			UnitCost:    layer.UnitCost,
			SourceType:  layer.SourceType,
			SourceID:    layer.SourceID,
		}); err != nil {
			logger.Warn(ctx).Err(err).Uint("layer_id", layer.ID).Msg("Failed to publish stock received event")
		}
	}

	if h.reportCache != nil {
		if err := h.reportCache.Invalidate(ctx, cmd.TenantID); err != nil {
			logger.Warn(ctx).Err(err).Str("tenant_id", cmd.TenantID).Msg("Failed to invalidate report cache")
		}
	}

	return layer, nil
}
