//go:build wireinject
// +build wireinject

package costing

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/mkravets/erp-costing/internal/costing/cache"
	deliveryhttp "github.com/mkravets/erp-costing/internal/costing/delivery/http"
	"github.com/mkravets/erp-costing/internal/costing/events"
	"github.com/mkravets/erp-costing/internal/costing/usecase/command"
	"github.com/mkravets/erp-costing/internal/costing/usecase/query"
)

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideLayerRepository,
)

// InitializeHTTPHandler initializes the HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, publisher events.Publisher, reportCache *cache.ReportCache) (*deliveryhttp.CostingHandler, error) {
	wire.Build(
		RepositorySet,
		command.NewRecordInwardHandler,
		command.NewConsumeStockHandler,
		query.NewGetValuationHandler,
		query.NewGetValuationReportHandler,
		query.NewListLayersHandler,
		deliveryhttp.NewCostingHandler,
	)
	return nil, nil
}
