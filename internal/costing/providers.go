package costing

import (
	"gorm.io/gorm"

	"github.com/mkravets/erp-costing/internal/costing/domain"
	"github.com/mkravets/erp-costing/internal/costing/repository"
)

// ProvideLayerRepository provides the traced ledger repository
func ProvideLayerRepository(db *gorm.DB) domain.LayerRepository {
	return repository.NewTracingLayerRepository(repository.NewGormLayerRepository(db))
}
