package domain

import "github.com/shopspring/decimal"

// LayerConsumption records how much was taken from a single layer. UnitCost
// is the layer's own cost, kept in the breakdown for audit regardless of
// which costing method priced the movement.
type LayerConsumption struct {
	LayerID  uint            `json:"layer_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// ConsumptionPlan is the outcome of a consumption walk: the per-layer
// decrements to apply and the cost to charge. TotalCost and AverageCost are
// rounded to 2 decimal places; the decrements are exact.
type ConsumptionPlan struct {
	Method      CostingMethod      `json:"method"`
	Quantity    decimal.Decimal    `json:"quantity"`
	TotalCost   decimal.Decimal    `json:"total_cost"`
	AverageCost decimal.Decimal    `json:"average_cost"`
	Layers      []LayerConsumption `json:"layers_consumed"`
}

// PlanFIFO builds the consumption plan for an outward movement costed
// oldest-layer-first. The input layers must be the active layers of one
// scope ordered by (layer date asc, creation order asc).
//
// Feasibility is decided before any decrement is planned: if the request
// exceeds the total active quantity the call fails with
// InsufficientStockError and no layer is touched.
func PlanFIFO(layers []CostLayer, quantity decimal.Decimal) (*ConsumptionPlan, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	available, _ := aggregateLayers(layers)
	if quantity.GreaterThan(available) {
		return nil, NewInsufficientStockError(quantity, available)
	}

	remaining := quantity
	totalCost := decimal.Zero
	consumed := make([]LayerConsumption, 0, len(layers))

	for i := range layers {
		if !remaining.IsPositive() {
			break
		}
		if layers[i].IsExhausted() {
			continue
		}

		take := decimal.Min(remaining, layers[i].Quantity)
		totalCost = totalCost.Add(take.Mul(layers[i].UnitCost))
		consumed = append(consumed, LayerConsumption{
			LayerID:  layers[i].ID,
			Quantity: take,
			UnitCost: layers[i].UnitCost,
		})
		remaining = remaining.Sub(take)
	}

	return &ConsumptionPlan{
		Method:      MethodFIFO,
		Quantity:    quantity,
		TotalCost:   totalCost.Round(2),
		AverageCost: totalCost.Div(quantity).Round(2),
		Layers:      consumed,
	}, nil
}

// PlanWeightedAverage builds the consumption plan for an outward movement
// charged at the blended average unit cost of the scope's active layers.
// Layers are still drained oldest-first so that per-layer remaining
// quantities stay structurally consistent with total on-hand stock; only
// the charged cost differs from FIFO.
func PlanWeightedAverage(layers []CostLayer, quantity decimal.Decimal) (*ConsumptionPlan, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	available, value := aggregateLayers(layers)
	if quantity.GreaterThan(available) {
		return nil, NewInsufficientStockError(quantity, available)
	}

	// Full-precision blended rate; rounding happens only on the result
	averageCost := value.Div(available)

	remaining := quantity
	consumed := make([]LayerConsumption, 0, len(layers))

	for i := range layers {
		if !remaining.IsPositive() {
			break
		}
		if layers[i].IsExhausted() {
			continue
		}

		take := decimal.Min(remaining, layers[i].Quantity)
		consumed = append(consumed, LayerConsumption{
			LayerID:  layers[i].ID,
			Quantity: take,
			UnitCost: layers[i].UnitCost,
		})
		remaining = remaining.Sub(take)
	}

	return &ConsumptionPlan{
		Method:      MethodWeightedAverage,
		Quantity:    quantity,
		TotalCost:   quantity.Mul(averageCost).Round(2),
		AverageCost: averageCost.Round(2),
		Layers:      consumed,
	}, nil
}

// PlannerFor returns the planning function for a costing method
func PlannerFor(method CostingMethod) (func([]CostLayer, decimal.Decimal) (*ConsumptionPlan, error), error) {
	switch method {
	case MethodFIFO:
		return PlanFIFO, nil
	case MethodWeightedAverage:
		return PlanWeightedAverage, nil
	default:
		return nil, ErrUnknownMethod
	}
}
