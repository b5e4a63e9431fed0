package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/erp-costing/internal/costing/domain"
	"github.com/mkravets/erp-costing/internal/costing/repository"
	"github.com/mkravets/erp-costing/internal/costing/usecase/command"
	"github.com/mkravets/erp-costing/internal/costing/usecase/query"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	repo := repository.NewMemoryLayerRepository()
	handler := NewCostingHandler(
		command.NewRecordInwardHandler(repo, nil, nil),
		command.NewConsumeStockHandler(repo, nil, nil),
		query.NewGetValuationHandler(repo),
		query.NewGetValuationReportHandler(repo, nil),
		query.NewListLayersHandler(repo),
	)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, nil)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func recordInward(t *testing.T, router *mux.Router, quantity, unitCost string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/costing/layers", map[string]interface{}{
		"tenant_id":    "tenant-001",
		"product_id":   "WIDGET-001",
		"warehouse_id": "wh-east",
		"quantity":     quantity,
		"unit_cost":    unitCost,
		"source_type":  "purchase_receipt",
		"source_id":    "po-1001",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()

	raw := struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return Response{Success: raw.Success, Message: raw.Message, Error: raw.Error}
}

func TestRecordInwardEndpoint(t *testing.T) {
	t.Run("creates a layer", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/api/costing/layers", map[string]interface{}{
			"tenant_id":    "tenant-001",
			"product_id":   "WIDGET-001",
			"warehouse_id": "wh-east",
			"quantity":     "100",
			"unit_cost":    "10.50",
			"source_type":  "purchase_receipt",
			"source_id":    "po-1001",
			"layer_date":   "2025-03-01T00:00:00Z",
		})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var layer domain.CostLayer
		resp := decodeResponse(t, rec, &layer)
		assert.True(t, resp.Success)
		assert.True(t, layer.Quantity.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, domain.SourcePurchaseReceipt, layer.SourceType)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/costing/layers", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/api/costing/layers", map[string]interface{}{
			"tenant_id":    "tenant-001",
			"product_id":   "WIDGET-001",
			"warehouse_id": "wh-east",
			"quantity":     "0",
			"unit_cost":    "10.00",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec, nil)
		assert.False(t, resp.Success)
	})

	t.Run("missing scope field", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/api/costing/layers", map[string]interface{}{
			"tenant_id":  "tenant-001",
			"product_id": "WIDGET-001",
			"quantity":   "10",
			"unit_cost":  "1.00",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestConsumeEndpoint(t *testing.T) {
	consumeBody := func(quantity, method string) map[string]interface{} {
		return map[string]interface{}{
			"tenant_id":    "tenant-001",
			"product_id":   "WIDGET-001",
			"warehouse_id": "wh-east",
			"quantity":     quantity,
			"method":       method,
		}
	}

	t.Run("FIFO consumption returns the cost breakdown", func(t *testing.T) {
		router := newTestRouter(t)
		recordInward(t, router, "100", "10.00")

		rec := doJSON(t, router, http.MethodPost, "/api/costing/consume", consumeBody("60", "FIFO"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var plan domain.ConsumptionPlan
		resp := decodeResponse(t, rec, &plan)
		assert.True(t, resp.Success)
		assert.Equal(t, domain.MethodFIFO, plan.Method)
		assert.True(t, plan.TotalCost.Equal(decimal.RequireFromString("600.00")))
		require.Len(t, plan.Layers, 1)
		assert.True(t, plan.Layers[0].Quantity.Equal(decimal.NewFromInt(60)))
	})

	t.Run("weighted average consumption", func(t *testing.T) {
		router := newTestRouter(t)
		recordInward(t, router, "10", "10.00")
		recordInward(t, router, "10", "20.00")

		rec := doJSON(t, router, http.MethodPost, "/api/costing/consume", consumeBody("5", "WEIGHTED_AVERAGE"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var plan domain.ConsumptionPlan
		decodeResponse(t, rec, &plan)
		assert.True(t, plan.TotalCost.Equal(decimal.RequireFromString("75.00")))
		assert.True(t, plan.AverageCost.Equal(decimal.RequireFromString("15.00")))
	})

	t.Run("insufficient stock returns conflict with shortfall", func(t *testing.T) {
		router := newTestRouter(t)
		recordInward(t, router, "50", "10.00")

		rec := doJSON(t, router, http.MethodPost, "/api/costing/consume", consumeBody("80", "FIFO"))
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		var data map[string]decimal.Decimal
		resp := decodeResponse(t, rec, &data)
		assert.False(t, resp.Success)
		assert.Equal(t, "cannot fulfill requested quantity", resp.Error)
		assert.True(t, data["requested"].Equal(decimal.NewFromInt(80)))
		assert.True(t, data["available"].Equal(decimal.NewFromInt(50)))
		assert.True(t, data["shortfall"].Equal(decimal.NewFromInt(30)))
	})

	t.Run("unknown method", func(t *testing.T) {
		router := newTestRouter(t)
		recordInward(t, router, "10", "1.00")

		rec := doJSON(t, router, http.MethodPost, "/api/costing/consume", consumeBody("5", "LIFO"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestValuationEndpoint(t *testing.T) {
	router := newTestRouter(t)
	recordInward(t, router, "40", "10.00")
	recordInward(t, router, "10", "20.00")

	t.Run("scoped valuation", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/costing/valuation?tenant_id=tenant-001&product_id=WIDGET-001&warehouse_id=wh-east", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result domain.ValuationResult
		decodeResponse(t, rec, &result)
		assert.True(t, result.TotalQuantity.Equal(decimal.NewFromInt(50)))
		assert.True(t, result.TotalValue.Equal(decimal.RequireFromString("600.00")))
		assert.True(t, result.AverageCost.Equal(decimal.RequireFromString("12.00")))
	})

	t.Run("unknown scope yields zeros", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/costing/valuation?tenant_id=tenant-001&product_id=NO-SUCH&warehouse_id=wh-east", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result domain.ValuationResult
		decodeResponse(t, rec, &result)
		assert.True(t, result.TotalQuantity.IsZero())
	})

	t.Run("missing product", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/costing/valuation?tenant_id=tenant-001", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestValuationReportEndpoint(t *testing.T) {
	router := newTestRouter(t)
	recordInward(t, router, "40", "10.00")

	rec := doJSON(t, router, http.MethodGet, "/api/costing/report?tenant_id=tenant-001", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var lines []domain.ValuationLine
	decodeResponse(t, rec, &lines)
	require.Len(t, lines, 1)
	assert.Equal(t, "WIDGET-001", lines[0].ProductID)
	assert.True(t, lines[0].TotalValue.Equal(decimal.RequireFromString("400.00")))
}

func TestListLayersEndpoint(t *testing.T) {
	router := newTestRouter(t)
	recordInward(t, router, "40", "10.00")
	recordInward(t, router, "10", "20.00")

	rec := doJSON(t, router, http.MethodGet, "/api/costing/layers?tenant_id=tenant-001&product_id=WIDGET-001&warehouse_id=wh-east", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var layers []domain.CostLayer
	decodeResponse(t, rec, &layers)
	require.Len(t, layers, 2)
	assert.True(t, layers[0].Quantity.Equal(decimal.NewFromInt(40)))
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
