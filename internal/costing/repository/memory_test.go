package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/erp-costing/internal/costing/domain"
)

var testScope = domain.Scope{TenantID: "tenant-001", ProductID: "WIDGET-001", WarehouseID: "wh-east"}

func seedLayer(t *testing.T, repo *MemoryLayerRepository, scope domain.Scope, day int, quantity, unitCost string) *domain.CostLayer {
	t.Helper()

	layer, err := domain.NewCostLayer(
		scope,
		decimal.RequireFromString(quantity),
		decimal.RequireFromString(unitCost),
		domain.SourcePurchaseReceipt,
		"po-seed",
		time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.NoError(t, repo.CreateLayer(context.Background(), layer))
	return layer
}

func fifoPlanner(quantity decimal.Decimal) domain.Planner {
	return func(layers []domain.CostLayer) (*domain.ConsumptionPlan, error) {
		return domain.PlanFIFO(layers, quantity)
	}
}

func TestMemoryRepositoryActiveLayersOrdering(t *testing.T) {
	repo := NewMemoryLayerRepository()

	// Inserted out of date order; the second and third share a date so
	// creation order breaks the tie
	seedLayer(t, repo, testScope, 20, "10", "3.00")
	older := seedLayer(t, repo, testScope, 5, "10", "1.00")
	sameDay := seedLayer(t, repo, testScope, 5, "10", "2.00")

	layers, err := repo.ActiveLayers(context.Background(), testScope)
	require.NoError(t, err)

	require.Len(t, layers, 3)
	assert.Equal(t, older.ID, layers[0].ID)
	assert.Equal(t, sameDay.ID, layers[1].ID)
	assert.True(t, layers[2].LayerDate.After(layers[1].LayerDate))
}

func TestMemoryRepositoryActiveLayersExcludesExhausted(t *testing.T) {
	repo := NewMemoryLayerRepository()
	seedLayer(t, repo, testScope, 1, "10", "1.00")
	seedLayer(t, repo, testScope, 2, "5", "2.00")

	_, err := repo.Consume(context.Background(), testScope, fifoPlanner(decimal.NewFromInt(10)))
	require.NoError(t, err)

	layers, err := repo.ActiveLayers(context.Background(), testScope)
	require.NoError(t, err)

	require.Len(t, layers, 1)
	assert.True(t, layers[0].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestMemoryRepositoryConsumeAppliesDecrements(t *testing.T) {
	repo := NewMemoryLayerRepository()
	seedLayer(t, repo, testScope, 1, "100", "10.00")

	plan, err := repo.Consume(context.Background(), testScope, fifoPlanner(decimal.NewFromInt(60)))
	require.NoError(t, err)
	assert.True(t, plan.TotalCost.Equal(decimal.RequireFromString("600.00")))

	valuation, err := repo.Valuation(context.Background(), testScope.TenantID, testScope.ProductID, testScope.WarehouseID)
	require.NoError(t, err)
	assert.True(t, valuation.TotalQuantity.Equal(decimal.NewFromInt(40)))
	assert.True(t, valuation.TotalValue.Equal(decimal.RequireFromString("400.00")))
}

func TestMemoryRepositoryConsumeFailureLeavesLedgerUntouched(t *testing.T) {
	repo := NewMemoryLayerRepository()
	seedLayer(t, repo, testScope, 1, "30", "10.00")
	seedLayer(t, repo, testScope, 2, "20", "12.00")

	_, err := repo.Consume(context.Background(), testScope, fifoPlanner(decimal.NewFromInt(80)))
	require.True(t, domain.IsInsufficientStock(err))

	valuation, err := repo.Valuation(context.Background(), testScope.TenantID, testScope.ProductID, testScope.WarehouseID)
	require.NoError(t, err)
	assert.True(t, valuation.TotalQuantity.Equal(decimal.NewFromInt(50)), "no layer may be drained on a failed walk")
}

func TestMemoryRepositoryConsumeCancelledContext(t *testing.T) {
	repo := NewMemoryLayerRepository()
	seedLayer(t, repo, testScope, 1, "10", "1.00")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Consume(ctx, testScope, fifoPlanner(decimal.NewFromInt(5)))
	require.ErrorIs(t, err, context.Canceled)

	valuation, err := repo.Valuation(context.Background(), testScope.TenantID, testScope.ProductID, testScope.WarehouseID)
	require.NoError(t, err)
	assert.True(t, valuation.TotalQuantity.Equal(decimal.NewFromInt(10)))
}

func TestMemoryRepositoryConcurrentConsumeNeverOversells(t *testing.T) {
	repo := NewMemoryLayerRepository()
	seedLayer(t, repo, testScope, 1, "100", "10.00")

	const workers = 10
	perWorker := decimal.NewFromInt(10)

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Consume(context.Background(), testScope, fifoPlanner(perWorker))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// Requests sum exactly to stock, so every one must succeed
	for err := range errs {
		require.NoError(t, err)
	}

	valuation, err := repo.Valuation(context.Background(), testScope.TenantID, testScope.ProductID, testScope.WarehouseID)
	require.NoError(t, err)
	assert.True(t, valuation.TotalQuantity.IsZero(), "got %s remaining", valuation.TotalQuantity)

	// The scope is now empty; one more unit must be refused
	_, err = repo.Consume(context.Background(), testScope, fifoPlanner(decimal.NewFromInt(1)))
	assert.True(t, domain.IsInsufficientStock(err))
}

func TestMemoryRepositoryScopesAreIndependent(t *testing.T) {
	repo := NewMemoryLayerRepository()
	westScope := domain.Scope{TenantID: "tenant-001", ProductID: "WIDGET-001", WarehouseID: "wh-west"}

	seedLayer(t, repo, testScope, 1, "10", "10.00")
	seedLayer(t, repo, westScope, 1, "5", "20.00")

	_, err := repo.Consume(context.Background(), testScope, fifoPlanner(decimal.NewFromInt(10)))
	require.NoError(t, err)

	valuation, err := repo.Valuation(context.Background(), westScope.TenantID, westScope.ProductID, westScope.WarehouseID)
	require.NoError(t, err)
	assert.True(t, valuation.TotalQuantity.Equal(decimal.NewFromInt(5)), "draining one warehouse must not touch another")
}

func TestMemoryRepositoryValuationTenantWide(t *testing.T) {
	repo := NewMemoryLayerRepository()
	westScope := domain.Scope{TenantID: "tenant-001", ProductID: "WIDGET-001", WarehouseID: "wh-west"}
	otherTenant := domain.Scope{TenantID: "tenant-002", ProductID: "WIDGET-001", WarehouseID: "wh-east"}

	seedLayer(t, repo, testScope, 1, "40", "10.00")
	seedLayer(t, repo, westScope, 1, "10", "20.00")
	seedLayer(t, repo, otherTenant, 1, "99", "1.00")

	valuation, err := repo.Valuation(context.Background(), "tenant-001", "WIDGET-001", "")
	require.NoError(t, err)

	assert.True(t, valuation.TotalQuantity.Equal(decimal.NewFromInt(50)))
	assert.True(t, valuation.TotalValue.Equal(decimal.RequireFromString("600.00")))
	assert.True(t, valuation.AverageCost.Equal(decimal.RequireFromString("12.00")))
}

func TestMemoryRepositoryValuationEmptyScope(t *testing.T) {
	repo := NewMemoryLayerRepository()

	valuation, err := repo.Valuation(context.Background(), "tenant-001", "NO-SUCH-PRODUCT", "wh-east")
	require.NoError(t, err)
	assert.True(t, valuation.TotalQuantity.IsZero())
	assert.True(t, valuation.TotalValue.IsZero())
	assert.True(t, valuation.AverageCost.IsZero())
}

func TestMemoryRepositoryValuationReport(t *testing.T) {
	repo := NewMemoryLayerRepository()
	westScope := domain.Scope{TenantID: "tenant-001", ProductID: "WIDGET-001", WarehouseID: "wh-west"}
	boltScope := domain.Scope{TenantID: "tenant-001", ProductID: "BOLT-002", WarehouseID: "wh-east"}
	emptyScope := domain.Scope{TenantID: "tenant-001", ProductID: "GONE-003", WarehouseID: "wh-east"}

	seedLayer(t, repo, westScope, 1, "10", "20.00")
	seedLayer(t, repo, testScope, 1, "40", "10.00")
	seedLayer(t, repo, testScope, 2, "10", "10.00")
	seedLayer(t, repo, boltScope, 1, "100", "0.50")
	seedLayer(t, repo, emptyScope, 1, "5", "1.00")

	_, err := repo.Consume(context.Background(), emptyScope, fifoPlanner(decimal.NewFromInt(5)))
	require.NoError(t, err)

	lines, err := repo.ValuationReport(context.Background(), "tenant-001")
	require.NoError(t, err)

	// Drained scopes drop out; remaining rows sort by product then warehouse
	require.Len(t, lines, 3)
	assert.Equal(t, "BOLT-002", lines[0].ProductID)
	assert.Equal(t, "WIDGET-001", lines[1].ProductID)
	assert.Equal(t, "wh-east", lines[1].WarehouseID)
	assert.Equal(t, 2, lines[1].LayerCount)
	assert.True(t, lines[1].TotalQuantity.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "wh-west", lines[2].WarehouseID)
}
