package chat

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"relay/internal/presence"
)

func ProvideRepository(db *gorm.DB) Repository {
	return NewGormRepository(db)
}

func ProvideLocator(registry *presence.Registry) Locator {
	return registry
}

func ProvideDeliverer(c *Coordinator) Deliverer {
	return c
}

var Set = wire.NewSet(
	ProvideRepository,
	ProvideLocator,
	NewCoordinator,
	ProvideDeliverer,
	NewService,
	NewJSONHandler,
)
