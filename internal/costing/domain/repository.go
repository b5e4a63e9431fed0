package domain

import "context"

// Planner computes a consumption plan from the active layers of a locked
// scope. The repository invokes it with layers ordered per FIFO rules and
// applies the returned decrements atomically; if the planner errors nothing
// is written.
type Planner func(layers []CostLayer) (*ConsumptionPlan, error)

// LayerRepository defines the contract for cost-layer ledger access.
// Implementations must serialize Consume per scope and apply all of a
// plan's decrements in one atomic unit.
type LayerRepository interface {
	// CreateLayer appends one new layer; no existing rows are touched
	CreateLayer(ctx context.Context, layer *CostLayer) error

	// ActiveLayers returns the layers with remaining quantity for a scope,
	// ordered by (layer date asc, creation order asc)
	ActiveLayers(ctx context.Context, scope Scope) ([]CostLayer, error)

	// Consume runs plan against the locked active layers of the scope and
	// applies the resulting decrements. All decrements commit together or
	// none do; concurrent Consume calls on the same scope are serialized.
	Consume(ctx context.Context, scope Scope, plan Planner) (*ConsumptionPlan, error)

	// Valuation aggregates active layers for (tenant, product), optionally
	// scoped to one warehouse. An empty warehouseID aggregates tenant-wide
	// across all warehouses. A scope with no layers yields a zero result.
	Valuation(ctx context.Context, tenantID, productID, warehouseID string) (ValuationResult, error)

	// ValuationReport aggregates all active layers of a tenant grouped by
	// (product, warehouse), sorted by product id for deterministic output
	ValuationReport(ctx context.Context, tenantID string) ([]ValuationLine, error)
}
