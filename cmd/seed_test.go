package cmd

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestSeedClients(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	dbx := sqlx.NewDb(raw, "mysql")
	defer dbx.Close()

	clients := []model.Client{
		{ClientID: "a", Name: "A", Email: "a@x.test", AllowedAPIs: []string{"auth", "payments"}},
		{ClientID: "b", Name: "B", Email: "b@x.test"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO clients")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO client_apis")).WithArgs("a", "auth").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO client_apis")).WithArgs("a", "payments").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO clients")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, seedClients(dbx, clients))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedClientsRollsBackOnError(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	dbx := sqlx.NewDb(raw, "mysql")
	defer dbx.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO clients")).WillReturnError(errors.New("duplicate entry"))
	mock.ExpectRollback()

	err = seedClients(dbx, demoClients())
	require.ErrorContains(t, err, "acme-prod")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoClientsUnique(t *testing.T) {
	ids := map[string]bool{}
	emails := map[string]bool{}
	for _, c := range demoClients() {
		require.False(t, ids[c.ClientID], c.ClientID)
		require.False(t, emails[c.Email], c.Email)
		ids[c.ClientID] = true
		emails[c.Email] = true
	}
}
