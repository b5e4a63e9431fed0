package domain

import "github.com/shopspring/decimal"

// CostingMethod selects how outward movements are costed
type CostingMethod string

const (
	// MethodFIFO - First-In-First-Out: oldest layer costs are consumed first
	MethodFIFO CostingMethod = "FIFO"

	// MethodWeightedAverage - outward movements are charged at the blended
	// average unit cost of all current stock
	MethodWeightedAverage CostingMethod = "WEIGHTED_AVERAGE"
)

// IsValid checks if the costing method is valid
func (m CostingMethod) IsValid() bool {
	switch m {
	case MethodFIFO, MethodWeightedAverage:
		return true
	default:
		return false
	}
}

// String returns the string representation of the costing method
func (m CostingMethod) String() string {
	return string(m)
}

// ValuationResult is the on-demand valuation of a scope. Monetary fields
// are rounded to 2 decimal places at this boundary; an empty scope yields
// an all-zero result, not an error.
type ValuationResult struct {
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AverageCost   decimal.Decimal `json:"average_cost"`
}

// ValuationLine is one (product, warehouse) row of a tenant-wide report
type ValuationLine struct {
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	LayerCount    int             `json:"layer_count"`
}

// NewValuationResult derives a boundary-rounded result from full-precision
// totals
func NewValuationResult(totalQuantity, totalValue decimal.Decimal) ValuationResult {
	avg := decimal.Zero
	if totalQuantity.IsPositive() {
		avg = totalValue.Div(totalQuantity)
	}

	return ValuationResult{
		TotalQuantity: totalQuantity,
		TotalValue:    totalValue.Round(2),
		AverageCost:   avg.Round(2),
	}
}

// Valuate aggregates active layers into a valuation result
func Valuate(layers []CostLayer) ValuationResult {
	quantity, value := aggregateLayers(layers)
	return NewValuationResult(quantity, value)
}

// aggregateLayers sums remaining quantity and value at full precision,
// skipping exhausted layers
func aggregateLayers(layers []CostLayer) (quantity, value decimal.Decimal) {
	quantity = decimal.Zero
	value = decimal.Zero
	for i := range layers {
		if layers[i].IsExhausted() {
			continue
		}
		quantity = quantity.Add(layers[i].Quantity)
		value = value.Add(layers[i].RemainingValue())
	}
	return quantity, value
}
