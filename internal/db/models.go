// internal/db/models.go
package db

import "time"

const (
	StoreTypeMSSQL   = "mssql"
	StoreTypeShopify = "shopify"
)

// stores
type Store struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	StoreType string `gorm:"size:20;index;not null"` // mssql | shopify
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	MSSQLConnection   *MSSQLConnection   `gorm:"constraint:OnDelete:CASCADE"`
	ShopifyConnection *ShopifyConnection `gorm:"constraint:OnDelete:CASCADE"`
}

// mssql_connections
type MSSQLConnection struct {
	ID           uint   `gorm:"primaryKey"`
	StoreID      uint   `gorm:"uniqueIndex;not null"`
	Host         string `gorm:"size:255;not null"`
	Port         int    `gorm:"default:1433"`
	DatabaseName string `gorm:"size:255;not null"`
	Username     string `gorm:"size:255;not null"`
	Password     string `gorm:"size:255;not null"`
	TDSVersion   string `gorm:"size:10;default:7.4"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// shopify_connections
type ShopifyConnection struct {
	ID                   uint   `gorm:"primaryKey"`
	StoreID              uint   `gorm:"uniqueIndex;not null"`
	ShopDomain           string `gorm:"size:255;uniqueIndex;not null"`
	AdminAPIKey          string `gorm:"size:512;not null"`
	APIVersion           string `gorm:"size:50;default:2025-01"`
	UpdateSKUWithBarcode bool   `gorm:"default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// settings
type Setting struct {
	ID          uint   `gorm:"primaryKey"`
	Key         string `gorm:"size:255;uniqueIndex;not null"`
	Value       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// upc_exclusions — operator-maintained do-not-flag list applied after audits
type UPCExclusion struct {
	ID        uint   `gorm:"primaryKey"`
	UPC       string `gorm:"size:64;uniqueIndex;not null"`
	Reason    string `gorm:"type:text"`
	CreatedAt time.Time
}
