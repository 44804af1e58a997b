package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/api-portal/internal/config"
	"github.com/jmehdipour/api-portal/internal/db"
	"github.com/jmehdipour/api-portal/migrations"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations (dev: DROP & CREATE client tables)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer sqlDB.Close()

		if err := migrateMySQL(context.Background(), sqlDB, migrations.MySQL); err != nil {
			return err
		}

		chDB, err := db.NewClickHouseConnection(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("open clickhouse: %w", err)
		}
		defer chDB.Close()

		if _, err := chDB.ExecContext(context.Background(), migrations.ClickHouse); err != nil {
			return fmt.Errorf("exec clickhouse migration: %w", err)
		}

		fmt.Println(">> Migration complete")
		return nil
	},
}

// migrateMySQL runs the schema on a single pooled connection so the
// session-scoped FOREIGN_KEY_CHECKS toggles apply to it.
func migrateMySQL(ctx context.Context, dbx *sqlx.DB, schema string) error {
	conn, err := dbx.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
		return fmt.Errorf("disable fk checks: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_, _ = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
		return fmt.Errorf("exec mysql migration: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1"); err != nil {
		return fmt.Errorf("enable fk checks: %w", err)
	}
	return nil
}
