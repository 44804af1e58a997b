package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/jmehdipour/api-portal/internal/config"
	"github.com/jmehdipour/api-portal/internal/db"
	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmehdipour/api-portal/internal/security"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// demoPassword is shared by every seeded client.
const demoPassword = "portal-demo-password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// 2) connect MySQL
		sqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo clients...")

		if err := seedClients(sqlDB, demoClients()); err != nil {
			return err
		}

		log.Printf(">> Seed completed (password for every client: %q)", demoPassword)
		return nil
	},
}

func demoClients() []model.Client {
	return []model.Client{
		{
			ClientID:           "acme-prod",
			Name:               "Acme Corp",
			Email:              "dev@acme.test",
			Environment:        "production",
			RequestLimitPerDay: 10000,
			IsActive:           true,
			Plan:               "enterprise",
			AllowedAPIs:        []string{"auth", "payments", "statistics"},
		},
		{
			ClientID:           "foobar-sandbox",
			Name:               "Foobar LLC",
			Email:              "ops@foobar.test",
			Environment:        "sandbox",
			RequestLimitPerDay: 1000,
			IsActive:           true,
			Plan:               "free",
			AllowedAPIs:        []string{"auth"},
		},
		{
			ClientID:           "beta-testers",
			Name:               "Beta Testers",
			Email:              "beta@testers.test",
			Environment:        "sandbox",
			RequestLimitPerDay: 100,
			IsActive:           true,
			Plan:               "free",
		},
		{
			ClientID:           "suspended-inc",
			Name:               "Suspended Inc",
			Email:              "billing@suspended.test",
			Environment:        "production",
			RequestLimitPerDay: 0,
			IsActive:           false,
			Plan:               "pro",
			AllowedAPIs:        []string{"auth"},
		},
	}
}

// seedClients upserts the given clients and their API grants (idempotent).
func seedClients(dbx *sqlx.DB, clients []model.Client) error {
	hash, err := security.HashPassword(demoPassword, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	// idempotent upsert based on client_id (PK) / email (UNIQUE)
	const qClient = `
INSERT INTO clients
    (client_id, name, email, password, environment, request_limit_per_day, created_at, updated_at, is_active, plan)
VALUES
    (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)
ON DUPLICATE KEY UPDATE
    name                  = VALUES(name),
    password              = VALUES(password),
    environment           = VALUES(environment),
    request_limit_per_day = VALUES(request_limit_per_day),
    is_active             = VALUES(is_active),
    plan                  = VALUES(plan),
    updated_at            = ?
`
	const qGrant = `
INSERT INTO client_apis (client_id, api_id)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE api_id = VALUES(api_id)
`

	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, c := range clients {
		if _, err := tx.Exec(qClient,
			c.ClientID, c.Name, c.Email, hash, c.Environment, c.RequestLimitPerDay, now, c.IsActive, c.Plan,
			now,
		); err != nil {
			return fmt.Errorf("insert client %q: %w", c.ClientID, err)
		}
		for _, api := range c.AllowedAPIs {
			if _, err := tx.Exec(qGrant, c.ClientID, api); err != nil {
				return fmt.Errorf("insert grant %q/%q: %w", c.ClientID, api, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clients: %w", err)
	}
	return nil
}
