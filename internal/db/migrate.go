package db

import (
	"fmt"
)

// Migrate creates/updates the registry schema.
func (h *Handle) Migrate() error {
	if err := h.DB.AutoMigrate(
		&Store{},
		&MSSQLConnection{},
		&ShopifyConnection{},
		&Setting{},
		&UPCExclusion{},
	); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}
	return nil
}
