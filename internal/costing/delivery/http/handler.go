package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mkravets/erp-costing/internal/costing/domain"
	"github.com/mkravets/erp-costing/internal/costing/usecase/command"
	"github.com/mkravets/erp-costing/internal/costing/usecase/query"
	"github.com/mkravets/erp-costing/pkg/logger"
)

// CostingHandler handles HTTP requests for the costing engine using the
// CQRS pattern
type CostingHandler struct {
	// Command handlers
	recordInwardHandler *command.RecordInwardHandler
	consumeHandler      *command.ConsumeStockHandler

	// Query handlers
	valuationHandler *query.GetValuationHandler
	reportHandler    *query.GetValuationReportHandler
	layersHandler    *query.ListLayersHandler

	requestCounter     *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	consumptionCounter *prometheus.CounterVec
}

// NewCostingHandler creates a new costing handler
func NewCostingHandler(
	recordInwardHandler *command.RecordInwardHandler,
	consumeHandler *command.ConsumeStockHandler,
	valuationHandler *query.GetValuationHandler,
	reportHandler *query.GetValuationReportHandler,
	layersHandler *query.ListLayersHandler,
) *CostingHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costing_service_requests_total",
			Help: "Total number of requests to the costing service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "costing_service_request_duration_seconds",
			Help:    "Request latency of the costing service",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	consumptionCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costing_service_consumptions_total",
			Help: "Total number of consumption walks by costing method and outcome",
		},
		[]string{"costing_method", "outcome"},
	)

	registerCollectors(requestCounter, requestLatency, consumptionCounter)

	return &CostingHandler{
		recordInwardHandler: recordInwardHandler,
		consumeHandler:      consumeHandler,
		valuationHandler:    valuationHandler,
		reportHandler:       reportHandler,
		layersHandler:       layersHandler,
		requestCounter:      requestCounter,
		requestLatency:      requestLatency,
		consumptionCounter:  consumptionCounter,
	}
}

// registerCollectors registers metrics, tolerating re-registration so the
// handler can be constructed more than once per process
func registerCollectors(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type recordInwardRequest struct {
	TenantID    string          `json:"tenant_id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	SourceType  string          `json:"source_type,omitempty"`
	SourceID    string          `json:"source_id,omitempty"`
	LayerDate   *time.Time      `json:"layer_date,omitempty"`
}

type consumeRequest struct {
	TenantID    string          `json:"tenant_id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Method      string          `json:"method"`
}

// RecordInward handles POST /api/costing/layers
func (h *CostingHandler) RecordInward(w http.ResponseWriter, r *http.Request) {
	var req recordInwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.RecordInwardCommand{
		TenantID:    req.TenantID,
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		SourceType:  domain.SourceType(req.SourceType),
		SourceID:    req.SourceID,
	}
	if req.LayerDate != nil {
		cmd.LayerDate = *req.LayerDate
	}

	layer, err := h.recordInwardHandler.Handle(r.Context(), cmd)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to record inward movement")
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Inward movement recorded",
		Data:    layer,
	})
}

// Consume handles POST /api/costing/consume
func (h *CostingHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.ConsumeStockCommand{
		TenantID:    req.TenantID,
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Method:      domain.CostingMethod(req.Method),
	}

	plan, err := h.consumeHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.consumptionCounter.WithLabelValues(req.Method, "error").Inc()
		logger.Error(r.Context()).Err(err).
			Str("product_id", req.ProductID).
			Str("costing_method", req.Method).
			Msg("Failed to consume stock")
		h.respondError(w, err)
		return
	}

	h.consumptionCounter.WithLabelValues(req.Method, "success").Inc()

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock consumed",
		Data:    plan,
	})
}

// GetValuation handles GET /api/costing/valuation
func (h *CostingHandler) GetValuation(w http.ResponseWriter, r *http.Request) {
	q := query.GetValuationQuery{
		TenantID:    r.URL.Query().Get("tenant_id"),
		ProductID:   r.URL.Query().Get("product_id"),
		WarehouseID: r.URL.Query().Get("warehouse_id"),
	}

	result, err := h.valuationHandler.Handle(r.Context(), q)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// GetValuationReport handles GET /api/costing/report
func (h *CostingHandler) GetValuationReport(w http.ResponseWriter, r *http.Request) {
	q := query.GetValuationReportQuery{
		TenantID: r.URL.Query().Get("tenant_id"),
	}

	lines, err := h.reportHandler.Handle(r.Context(), q)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to build valuation report")
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    lines,
	})
}

// ListLayers handles GET /api/costing/layers
func (h *CostingHandler) ListLayers(w http.ResponseWriter, r *http.Request) {
	q := query.ListLayersQuery{
		TenantID:    r.URL.Query().Get("tenant_id"),
		ProductID:   r.URL.Query().Get("product_id"),
		WarehouseID: r.URL.Query().Get("warehouse_id"),
	}

	layers, err := h.layersHandler.Handle(r.Context(), q)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    layers,
	})
}

// RegisterRoutes registers all costing routes
func (h *CostingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/costing/layers", h.instrument("record_inward", h.RecordInward)).Methods("POST")
	router.HandleFunc("/api/costing/layers", h.instrument("list_layers", h.ListLayers)).Methods("GET")
	router.HandleFunc("/api/costing/consume", h.instrument("consume", h.Consume)).Methods("POST")
	router.HandleFunc("/api/costing/valuation", h.instrument("valuation", h.GetValuation)).Methods("GET")
	router.HandleFunc("/api/costing/report", h.instrument("report", h.GetValuationReport)).Methods("GET")
}

// RegisterHealthCheck registers the health check endpoint
func (h *CostingHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, Response{
					Success: false,
					Error:   "Database unavailable",
				})
				return
			}
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Costing service is healthy",
		})
	}).Methods("GET")
}

// instrument wraps an endpoint with request counting and latency metrics
func (h *CostingHandler) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next(sw, r)

		h.requestCounter.WithLabelValues(r.Method, endpoint, http.StatusText(sw.status)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// respondError maps domain errors to HTTP status codes. An insufficient
// stock failure surfaces the shortfall so the caller can offer backorder or
// partial fulfillment.
func (h *CostingHandler) respondError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   "cannot fulfill requested quantity",
			Data: map[string]interface{}{
				"requested": insufficient.Requested,
				"available": insufficient.Available,
				"shortfall": insufficient.Shortfall,
			},
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrScopeContention):
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   err.Error(),
		})
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidCost),
		errors.Is(err, domain.ErrUnknownMethod),
		errors.Is(err, domain.ErrMissingTenant),
		errors.Is(err, domain.ErrMissingProduct),
		errors.Is(err, domain.ErrMissingWarehouse):
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
	default:
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Internal server error",
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
