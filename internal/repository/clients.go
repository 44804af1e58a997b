package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

type ClientsRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Client, error)
	FindByID(ctx context.Context, clientID string) (*model.Client, error)
	List(ctx context.Context, limit, offset int) ([]model.Client, error)
}

type ClientsRepositoryImpl struct {
	db *sqlx.DB
}

func NewClientsRepository(db *sqlx.DB) *ClientsRepositoryImpl {
	return &ClientsRepositoryImpl{db: db}
}

var _ ClientsRepository = (*ClientsRepositoryImpl)(nil)

const selectClient = `
		SELECT client_id, name, email, password, environment, request_limit_per_day,
		       created_at, updated_at, is_active, plan
		  FROM clients
`

// FindByEmail returns the client with its allowed APIs, or nil when no row matches.
func (r *ClientsRepositoryImpl) FindByEmail(ctx context.Context, email string) (*model.Client, error) {
	return r.findOne(ctx, selectClient+` WHERE email = ? LIMIT 1`, email)
}

// FindByID returns the client with its allowed APIs, or nil when no row matches.
func (r *ClientsRepositoryImpl) FindByID(ctx context.Context, clientID string) (*model.Client, error) {
	return r.findOne(ctx, selectClient+` WHERE client_id = ? LIMIT 1`, clientID)
}

// findOne reads the client row and its grants inside one read-only
// transaction so both come from the same snapshot.
func (r *ClientsRepositoryImpl) findOne(ctx context.Context, query string, arg any) (*model.Client, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var c model.Client
	err = tx.GetContext(ctx, &c, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select client: %w", err)
	}

	apis := make([]string, 0)
	if err := tx.SelectContext(ctx, &apis, `
		SELECT api_id
		  FROM client_apis
		 WHERE client_id = ?
		 ORDER BY api_id
	`, c.ClientID); err != nil {
		return nil, fmt.Errorf("select client apis: %w", err)
	}
	if apis == nil {
		apis = []string{}
	}
	c.AllowedAPIs = apis

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit read tx: %w", err)
	}
	return &c, nil
}

// List returns one page of clients ordered by name. The password column is
// not selected and grants are not loaded.
func (r *ClientsRepositoryImpl) List(ctx context.Context, limit, offset int) ([]model.Client, error) {
	out := make([]model.Client, 0, limit)
	err := r.db.SelectContext(ctx, &out, `
		SELECT client_id, name, email, environment, request_limit_per_day,
		       created_at, updated_at, is_active, plan
		  FROM clients
		 ORDER BY name, client_id
		 LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}
