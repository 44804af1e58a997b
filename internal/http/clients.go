package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultClientsLimit = 100
	maxClientsLimit     = 1000
)

type clientDirectory interface {
	List(ctx context.Context, limit, offset int) ([]model.Client, error)
}

// clientSummary is what the directory exposes: enough to fill a client
// picker, nothing about credentials or grants.
type clientSummary struct {
	ClientID    string `json:"client_id"`
	Name        string `json:"name"`
	Environment string `json:"environment"`
	Plan        string `json:"plan"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// listClientsHandler : GET /clients?limit=&offset=
func listClientsHandler(dir clientDirectory, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := defaultClientsLimit
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxClientsLimit {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		clients, err := dir.List(c.Request().Context(), limit, offset)
		if err != nil {
			return internalError(c, log, "list clients failed", err)
		}

		out := make([]clientSummary, 0, len(clients))
		for _, cl := range clients {
			out = append(out, clientSummary{
				ClientID:    cl.ClientID,
				Name:        cl.Name,
				Environment: cl.Environment,
				Plan:        cl.Plan,
				IsActive:    cl.IsActive,
				CreatedAt:   formatTime(cl.CreatedAt),
			})
		}
		return c.JSON(http.StatusOK, out)
	}
}
