package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// RecordInward godoc
// @Summary Record an inward stock movement
// @Description Append a new cost layer for a (tenant, product, warehouse) scope
// @Tags Costing
// @Accept json
// @Produce json
// @Param request body object{tenant_id=string,product_id=string,warehouse_id=string,quantity=string,unit_cost=string,source_type=string,source_id=string} true "Inward movement"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/costing/layers [post]
func (h *CostingHandler) RecordInwardDoc() {}

// Consume godoc
// @Summary Consume stock
// @Description Run a FIFO or weighted-average consumption walk and return the cost breakdown
// @Tags Costing
// @Accept json
// @Produce json
// @Param request body object{tenant_id=string,product_id=string,warehouse_id=string,quantity=string,method=string} true "Outward movement"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string,data=object{shortfall=string}}
// @Router /api/costing/consume [post]
func (h *CostingHandler) ConsumeDoc() {}

// GetValuation godoc
// @Summary Get scope valuation
// @Description Current quantity, value and average cost for a product scope
// @Tags Costing
// @Produce json
// @Param tenant_id query string true "Tenant ID"
// @Param product_id query string true "Product ID"
// @Param warehouse_id query string false "Warehouse ID (omit for tenant-wide)"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/costing/valuation [get]
func (h *CostingHandler) GetValuationDoc() {}

// GetValuationReport godoc
// @Summary Tenant-wide valuation report
// @Description Inventory valuation grouped by product and warehouse
// @Tags Costing
// @Produce json
// @Param tenant_id query string true "Tenant ID"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/costing/report [get]
func (h *CostingHandler) GetValuationReportDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *CostingHandler) HealthCheckDoc() {}
