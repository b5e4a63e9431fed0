package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkravets/erp-costing/internal/costing/domain"
)

// StockReceivedEvent is emitted after an inward movement commits
type StockReceivedEvent struct {
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	TenantID    string            `json:"tenant_id"`
	ProductID   string            `json:"product_id"`
	WarehouseID string            `json:"warehouse_id"`
	LayerID     uint              `json:"layer_id"`
	Quantity    decimal.Decimal   `json:"quantity"`
	UnitCost    decimal.Decimal   `json:"unit_cost"`
	SourceType  domain.SourceType `json:"source_type,omitempty"`
	SourceID    string            `json:"source_id,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// StockConsumedEvent is emitted after an outward movement commits; the
// Accounting collaborator builds the COGS journal entry from it
type StockConsumedEvent struct {
	EventID     string                    `json:"event_id"`
	EventType   string                    `json:"event_type"`
	TenantID    string                    `json:"tenant_id"`
	ProductID   string                    `json:"product_id"`
	WarehouseID string                    `json:"warehouse_id"`
	Method      domain.CostingMethod      `json:"method"`
	Quantity    decimal.Decimal           `json:"quantity"`
	TotalCost   decimal.Decimal           `json:"total_cost"`
	AverageCost decimal.Decimal           `json:"average_cost"`
	Layers      []domain.LayerConsumption `json:"layers_consumed"`
	Timestamp   time.Time                 `json:"timestamp"`
}

// Event types
const (
	EventTypeStockReceived = "costing.stock.received"
	EventTypeStockConsumed = "costing.stock.consumed"
)

// Kafka topics
const (
	TopicStockReceived = "costing-stock-received"
	TopicStockConsumed = "costing-stock-consumed"
)
