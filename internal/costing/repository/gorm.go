package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkravets/erp-costing/internal/costing/domain"
)

// GormLayerRepository persists the cost-layer ledger in PostgreSQL.
//
// Consume serializes concurrent walks on the same scope with SELECT ... FOR
// UPDATE inside a transaction: the scope's active rows are locked first, the
// plan is computed against the locked snapshot, and every decrement commits
// with the transaction or not at all.
type GormLayerRepository struct {
	db *gorm.DB
}

// NewGormLayerRepository creates a new GORM-backed layer repository
func NewGormLayerRepository(db *gorm.DB) *GormLayerRepository {
	return &GormLayerRepository{db: db}
}

// AutoMigrate creates or updates the cost_layers table
func (r *GormLayerRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.CostLayer{})
}

// CreateLayer appends one new ledger row
func (r *GormLayerRepository) CreateLayer(ctx context.Context, layer *domain.CostLayer) error {
	if err := r.db.WithContext(ctx).Create(layer).Error; err != nil {
		return fmt.Errorf("failed to create cost layer: %w", err)
	}
	return nil
}

// ActiveLayers returns the scope's layers with remaining quantity, ordered
// by (layer date asc, creation order asc)
func (r *GormLayerRepository) ActiveLayers(ctx context.Context, scope domain.Scope) ([]domain.CostLayer, error) {
	var layers []domain.CostLayer

	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND warehouse_id = ? AND quantity > 0",
			scope.TenantID, scope.ProductID, scope.WarehouseID).
		Order("layer_date ASC, id ASC").
		Find(&layers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active layers: %w", err)
	}

	return layers, nil
}

// Consume locks the scope's active layers, computes the plan against the
// locked snapshot and applies all decrements within one transaction
func (r *GormLayerRepository) Consume(ctx context.Context, scope domain.Scope, plan domain.Planner) (*domain.ConsumptionPlan, error) {
	var result *domain.ConsumptionPlan

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var layers []domain.CostLayer

		// Row locks serialize concurrent consumption on this scope; other
		// scopes are untouched and proceed in parallel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND product_id = ? AND warehouse_id = ? AND quantity > 0",
				scope.TenantID, scope.ProductID, scope.WarehouseID).
			Order("layer_date ASC, id ASC").
			Find(&layers).Error; err != nil {
			return fmt.Errorf("failed to lock active layers: %w", err)
		}

		p, err := plan(layers)
		if err != nil {
			return err
		}

		for _, c := range p.Layers {
			res := tx.Model(&domain.CostLayer{}).
				Where("id = ? AND quantity >= ?", c.LayerID, c.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", c.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to decrement layer %d: %w", c.LayerID, res.Error)
			}
			if res.RowsAffected == 0 {
				// The guard "quantity >= ?" did not match: another writer
				// slipped past the lock, abort the whole transaction
				return domain.ErrScopeContention
			}
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Valuation aggregates active layers for (tenant, product); an empty
// warehouseID aggregates across all warehouses of the tenant
func (r *GormLayerRepository) Valuation(ctx context.Context, tenantID, productID, warehouseID string) (domain.ValuationResult, error) {
	var row struct {
		TotalQuantity decimal.Decimal
		TotalValue    decimal.Decimal
	}

	q := r.db.WithContext(ctx).Model(&domain.CostLayer{}).
		Select("COALESCE(SUM(quantity), 0) AS total_quantity, COALESCE(SUM(quantity * unit_cost), 0) AS total_value").
		Where("tenant_id = ? AND product_id = ? AND quantity > 0", tenantID, productID)

	if warehouseID != "" {
		q = q.Where("warehouse_id = ?", warehouseID)
	}

	if err := q.Scan(&row).Error; err != nil {
		return domain.ValuationResult{}, fmt.Errorf("failed to aggregate valuation: %w", err)
	}

	return domain.NewValuationResult(row.TotalQuantity, row.TotalValue), nil
}

// ValuationReport aggregates all active layers of a tenant grouped by
// (product, warehouse)
func (r *GormLayerRepository) ValuationReport(ctx context.Context, tenantID string) ([]domain.ValuationLine, error) {
	var rows []struct {
		ProductID     string
		WarehouseID   string
		TotalQuantity decimal.Decimal
		TotalValue    decimal.Decimal
		LayerCount    int
	}

	err := r.db.WithContext(ctx).Model(&domain.CostLayer{}).
		Select("product_id, warehouse_id, SUM(quantity) AS total_quantity, SUM(quantity * unit_cost) AS total_value, COUNT(*) AS layer_count").
		Where("tenant_id = ? AND quantity > 0", tenantID).
		Group("product_id, warehouse_id").
		Order("product_id ASC, warehouse_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate valuation report: %w", err)
	}

	lines := make([]domain.ValuationLine, 0, len(rows))
	for _, row := range rows {
		v := domain.NewValuationResult(row.TotalQuantity, row.TotalValue)
		lines = append(lines, domain.ValuationLine{
			ProductID:     row.ProductID,
			WarehouseID:   row.WarehouseID,
			TotalQuantity: v.TotalQuantity,
			TotalValue:    v.TotalValue,
			AverageCost:   v.AverageCost,
			LayerCount:    row.LayerCount,
		})
	}

	return lines, nil
}
