package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mkravets/erp-costing/internal/costing/domain"
)

var tracer = otel.Tracer("costing-repository")

// TracingLayerRepository wraps a LayerRepository with tracing
type TracingLayerRepository struct {
	inner domain.LayerRepository
}

// NewTracingLayerRepository creates a repository decorator that records one
// span per ledger operation
func NewTracingLayerRepository(inner domain.LayerRepository) *TracingLayerRepository {
	return &TracingLayerRepository{inner: inner}
}

func scopeAttributes(scope domain.Scope) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("costing.tenant_id", scope.TenantID),
		attribute.String("costing.product_id", scope.ProductID),
		attribute.String("costing.warehouse_id", scope.WarehouseID),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CreateLayer with tracing
func (r *TracingLayerRepository) CreateLayer(ctx context.Context, layer *domain.CostLayer) error {
	ctx, span := tracer.Start(ctx, "repository.CreateLayer",
		trace.WithAttributes(append(scopeAttributes(layer.Scope()),
			attribute.String("layer.quantity", layer.Quantity.String()),
			attribute.String("layer.unit_cost", layer.UnitCost.String()),
			attribute.String("layer.source_type", string(layer.SourceType)),
		)...),
	)

	err := r.inner.CreateLayer(ctx, layer)
	if err == nil {
		span.SetAttributes(attribute.Int("layer.id", int(layer.ID)))
	}
	endSpan(span, err)
	return err
}

// ActiveLayers with tracing
func (r *TracingLayerRepository) ActiveLayers(ctx context.Context, scope domain.Scope) ([]domain.CostLayer, error) {
	ctx, span := tracer.Start(ctx, "repository.ActiveLayers",
		trace.WithAttributes(scopeAttributes(scope)...),
	)

	layers, err := r.inner.ActiveLayers(ctx, scope)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(layers)))
	}
	endSpan(span, err)
	return layers, err
}

// Consume with tracing
func (r *TracingLayerRepository) Consume(ctx context.Context, scope domain.Scope, plan domain.Planner) (*domain.ConsumptionPlan, error) {
	ctx, span := tracer.Start(ctx, "repository.Consume",
		trace.WithAttributes(scopeAttributes(scope)...),
	)

	result, err := r.inner.Consume(ctx, scope, plan)
	if err == nil {
		span.SetAttributes(
			attribute.String("consumption.method", result.Method.String()),
			attribute.String("consumption.quantity", result.Quantity.String()),
			attribute.String("consumption.total_cost", result.TotalCost.String()),
			attribute.Int("consumption.layers", len(result.Layers)),
		)
	}
	endSpan(span, err)
	return result, err
}

// Valuation with tracing
func (r *TracingLayerRepository) Valuation(ctx context.Context, tenantID, productID, warehouseID string) (domain.ValuationResult, error) {
	ctx, span := tracer.Start(ctx, "repository.Valuation",
		trace.WithAttributes(
			attribute.String("costing.tenant_id", tenantID),
			attribute.String("costing.product_id", productID),
			attribute.String("costing.warehouse_id", warehouseID),
		),
	)

	result, err := r.inner.Valuation(ctx, tenantID, productID, warehouseID)
	if err == nil {
		span.SetAttributes(
			attribute.String("valuation.total_quantity", result.TotalQuantity.String()),
			attribute.String("valuation.total_value", result.TotalValue.String()),
		)
	}
	endSpan(span, err)
	return result, err
}

// ValuationReport with tracing
func (r *TracingLayerRepository) ValuationReport(ctx context.Context, tenantID string) ([]domain.ValuationLine, error) {
	ctx, span := tracer.Start(ctx, "repository.ValuationReport",
		trace.WithAttributes(attribute.String("costing.tenant_id", tenantID)),
	)

	lines, err := r.inner.ValuationReport(ctx, tenantID)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(lines)))
	}
	endSpan(span, err)
	return lines, err
}
