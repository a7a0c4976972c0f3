// Package mssql implements the POS database backend: connection handling,
// chunked orphan audits, reconciliation matching, batched UPC updates and
// cross-store catalog diffs.
package mssql

import (
	"context"
	"fmt"
	"net/url"

	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds one SQL Server connection. TDSVersion is kept for parity with
// stored connection profiles; the driver negotiates the protocol itself.
type Config struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Database   string `json:"database"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	TDSVersion string `json:"tds_version,omitempty"`
}

func (c Config) DSN() string {
	port := c.Port
	if port == 0 {
		port = 1433
	}
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, port),
	}
	q := url.Values{}
	q.Set("database", c.Database)
	u.RawQuery = q.Encode()
	return u.String()
}

func Open(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlserver.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open mssql %s/%s: %w", cfg.Host, cfg.Database, err)
	}
	return db, nil
}

// TestConnection verifies credentials and returns the server version banner.
func TestConnection(ctx context.Context, cfg Config) (string, error) {
	db, err := Open(cfg)
	if err != nil {
		return "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "", fmt.Errorf("unwrap connection: %w", err)
	}
	defer sqlDB.Close()

	var version string
	if err := db.WithContext(ctx).Raw("SELECT @@VERSION").Scan(&version).Error; err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return version, nil
}
