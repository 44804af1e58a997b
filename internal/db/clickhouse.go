package db

import (
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmehdipour/api-portal/internal/config"
	"github.com/jmoiron/sqlx"
)

// NewClickHouseConnection opens the usage analytics store,
// e.g. clickhouse://default:@localhost:9000/portal?dial_timeout=5s&compress=true
func NewClickHouseConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("empty ClickHouse DSN")
	}
	db, err := sqlx.Open("clickhouse", cfg.DSN)
	if err != nil {
		return nil, err
	}

	if err := setupPool(db, cfg, 3*time.Second); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return db, nil
}
