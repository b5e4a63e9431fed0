package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/mkravets/erp-costing/internal/costing/domain"
)

// MemoryLayerRepository is an in-process implementation of the ledger used
// by tests and embedded deployments. Consume holds a per-scope mutex for
// the whole read-plan-apply sequence, so concurrent walks on the same scope
// are serialized while different scopes proceed in parallel.
type MemoryLayerRepository struct {
	mu     sync.RWMutex
	layers map[domain.Scope][]*domain.CostLayer
	nextID uint

	lockMu     sync.Mutex
	scopeLocks map[domain.Scope]*sync.Mutex
}

// NewMemoryLayerRepository creates an empty in-memory layer repository
func NewMemoryLayerRepository() *MemoryLayerRepository {
	return &MemoryLayerRepository{
		layers:     make(map[domain.Scope][]*domain.CostLayer),
		scopeLocks: make(map[domain.Scope]*sync.Mutex),
	}
}

func (r *MemoryLayerRepository) scopeLock(scope domain.Scope) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()

	l, ok := r.scopeLocks[scope]
	if !ok {
		l = &sync.Mutex{}
		r.scopeLocks[scope] = l
	}
	return l
}

// CreateLayer appends one new layer and assigns its creation order
func (r *MemoryLayerRepository) CreateLayer(ctx context.Context, layer *domain.CostLayer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	layer.ID = r.nextID

	stored := *layer
	scope := stored.Scope()
	r.layers[scope] = append(r.layers[scope], &stored)
	return nil
}

// ActiveLayers returns copies of the scope's layers with remaining
// quantity, ordered by (layer date asc, creation order asc)
func (r *MemoryLayerRepository) ActiveLayers(ctx context.Context, scope domain.Scope) ([]domain.CostLayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.activeLayersLocked(scope), nil
}

func (r *MemoryLayerRepository) activeLayersLocked(scope domain.Scope) []domain.CostLayer {
	active := make([]domain.CostLayer, 0, len(r.layers[scope]))
	for _, l := range r.layers[scope] {
		if l.IsExhausted() {
			continue
		}
		active = append(active, *l)
	}

	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].LayerDate.Equal(active[j].LayerDate) {
			return active[i].LayerDate.Before(active[j].LayerDate)
		}
		return active[i].ID < active[j].ID
	})

	return active
}

// Consume serializes the read-plan-apply sequence behind the scope's mutex
// and applies the plan's decrements only after planning succeeds
func (r *MemoryLayerRepository) Consume(ctx context.Context, scope domain.Scope, plan domain.Planner) (*domain.ConsumptionPlan, error) {
	lock := r.scopeLock(scope)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	snapshot := r.activeLayersLocked(scope)
	r.mu.RUnlock()

	p, err := plan(snapshot)
	if err != nil {
		return nil, err
	}

	// A cancelled call must leave the ledger untouched
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[uint]*domain.CostLayer, len(r.layers[scope]))
	for _, l := range r.layers[scope] {
		byID[l.ID] = l
	}

	for _, c := range p.Layers {
		l, ok := byID[c.LayerID]
		if !ok || l.Quantity.LessThan(c.Quantity) {
			return nil, domain.ErrScopeContention
		}
	}

	for _, c := range p.Layers {
		l := byID[c.LayerID]
		l.Quantity = l.Quantity.Sub(c.Quantity)
	}

	return p, nil
}

// Valuation aggregates active layers for (tenant, product); an empty
// warehouseID aggregates across all warehouses of the tenant
func (r *MemoryLayerRepository) Valuation(ctx context.Context, tenantID, productID, warehouseID string) (domain.ValuationResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ValuationResult{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.CostLayer
	for scope, layers := range r.layers {
		if scope.TenantID != tenantID || scope.ProductID != productID {
			continue
		}
		if warehouseID != "" && scope.WarehouseID != warehouseID {
			continue
		}
		for _, l := range layers {
			matched = append(matched, *l)
		}
	}

	return domain.Valuate(matched), nil
}

// ValuationReport aggregates all active layers of a tenant grouped by
// (product, warehouse), sorted by product id then warehouse id
func (r *MemoryLayerRepository) ValuationReport(ctx context.Context, tenantID string) ([]domain.ValuationLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]domain.ValuationLine, 0)
	for scope, layers := range r.layers {
		if scope.TenantID != tenantID {
			continue
		}

		group := make([]domain.CostLayer, 0, len(layers))
		count := 0
		for _, l := range layers {
			if l.IsExhausted() {
				continue
			}
			group = append(group, *l)
			count++
		}
		if count == 0 {
			continue
		}

		v := domain.Valuate(group)
		lines = append(lines, domain.ValuationLine{
			ProductID:     scope.ProductID,
			WarehouseID:   scope.WarehouseID,
			TotalQuantity: v.TotalQuantity,
			TotalValue:    v.TotalValue,
			AverageCost:   v.AverageCost,
			LayerCount:    count,
		})
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].WarehouseID < lines[j].WarehouseID
	})

	return lines, nil
}
