package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType identifies the provenance of an inbound cost layer
type SourceType string

const (
	SourcePurchaseReceipt SourceType = "purchase_receipt"
	SourceProductionOrder SourceType = "production_order"
	SourceReturn          SourceType = "return"
	SourceAdjustment      SourceType = "manual_adjustment"
)

// Scope is the (tenant, product, warehouse) triple that bounds ledger
// locking and aggregation
type Scope struct {
	TenantID    string
	ProductID   string
	WarehouseID string
}

// CostLayer represents one inbound batch of stock at a specific unit cost.
// A layer is created once on an inward movement and only ever decremented
// by the consumption engines; it is never deleted. A layer whose remaining
// quantity reaches zero is exhausted and excluded from active-layer queries
// but retained for audit.
type CostLayer struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	TenantID    string `json:"tenant_id" gorm:"not null;size:64;index:idx_cost_layers_scope,priority:1"`
	ProductID   string `json:"product_id" gorm:"not null;size:64;index:idx_cost_layers_scope,priority:2"`
	WarehouseID string `json:"warehouse_id" gorm:"not null;size:64;index:idx_cost_layers_scope,priority:3"`

	// OriginalQuantity is immutable after creation; Quantity is the mutable
	// remainder with 0 <= Quantity <= OriginalQuantity.
	OriginalQuantity decimal.Decimal `json:"original_quantity" gorm:"type:numeric(20,6);not null"`
	Quantity         decimal.Decimal `json:"quantity" gorm:"type:numeric(20,6);not null"`
	UnitCost         decimal.Decimal `json:"unit_cost" gorm:"type:numeric(20,6);not null"`

	SourceType SourceType `json:"source_type,omitempty" gorm:"size:32"`
	SourceID   string     `json:"source_id,omitempty" gorm:"size:64"`

	// LayerDate is the economic date used for FIFO ordering; it may differ
	// from CreatedAt. Ties are broken by creation order (the primary key).
	LayerDate time.Time `json:"layer_date" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (CostLayer) TableName() string {
	return "cost_layers"
}

// NewCostLayer creates a new cost layer for an inward stock movement
func NewCostLayer(scope Scope, quantity, unitCost decimal.Decimal, sourceType SourceType, sourceID string, layerDate time.Time) (*CostLayer, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	if unitCost.IsNegative() {
		return nil, ErrInvalidCost
	}

	if layerDate.IsZero() {
		layerDate = time.Now().UTC()
	}

	return &CostLayer{
		TenantID:         scope.TenantID,
		ProductID:        scope.ProductID,
		WarehouseID:      scope.WarehouseID,
		OriginalQuantity: quantity,
		Quantity:         quantity,
		UnitCost:         unitCost,
		SourceType:       sourceType,
		SourceID:         sourceID,
		LayerDate:        layerDate,
	}, nil
}

// Scope returns the locking/aggregation scope of the layer
func (l *CostLayer) Scope() Scope {
	return Scope{
		TenantID:    l.TenantID,
		ProductID:   l.ProductID,
		WarehouseID: l.WarehouseID,
	}
}

// IsExhausted reports whether the layer has no remaining quantity
func (l *CostLayer) IsExhausted() bool {
	return !l.Quantity.IsPositive()
}

// RemainingValue returns quantity * unit cost at full precision
func (l *CostLayer) RemainingValue() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// Validate checks that all scope components are present
func (s Scope) Validate() error {
	if s.TenantID == "" {
		return ErrMissingTenant
	}
	if s.ProductID == "" {
		return ErrMissingProduct
	}
	if s.WarehouseID == "" {
		return ErrMissingWarehouse
	}
	return nil
}
