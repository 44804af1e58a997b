package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmehdipour/api-portal/internal/service/usage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type usageService interface {
	Record(ctx context.Context, clientID, apiID, method string) (string, error)
	MethodStats(ctx context.Context, from, to time.Time, clientID string) ([]model.MethodStat, error)
	DailyUsage(ctx context.Context, clientID string) (*model.DailyUsage, error)
}

type recordReq struct {
	ClientID string `json:"client_id" validate:"required"`
	APIID    string `json:"api_id"    validate:"required"`
	Method   string `json:"method"    validate:"required"`
}

// recordUsageHandler : POST /statistics/record
func recordUsageHandler(svc usageService, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req recordReq
		if err := c.Bind(&req); err != nil {
			return detail(c, http.StatusBadRequest, "client_id, api_id and method are required")
		}
		req.ClientID = strings.TrimSpace(req.ClientID)
		req.APIID = strings.TrimSpace(req.APIID)
		req.Method = strings.TrimSpace(req.Method)
		if err := c.Validate(&req); err != nil {
			return detail(c, http.StatusBadRequest, "client_id, api_id and method are required")
		}

		id, err := svc.Record(c.Request().Context(), req.ClientID, req.APIID, req.Method)
		if err != nil {
			return internalError(c, log, "record usage failed", err)
		}

		return c.JSON(http.StatusAccepted, map[string]any{
			"recorded": true,
			"id":       id,
		})
	}
}

// parseRangeBound accepts RFC 3339 or a bare date. A bare upper bound
// covers the whole day.
func parseRangeBound(raw string, upper bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// firstQueryParam returns the first non-blank value among the given names.
func firstQueryParam(c echo.Context, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(c.QueryParam(n)); v != "" {
			return v
		}
	}
	return ""
}

// methodStatsHandler : GET /statistics/method-stats?from=&to=[&client_id=]
// fromDate / toDate are accepted as aliases.
func methodStatsHandler(svc usageService, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		rawFrom := firstQueryParam(c, "from", "fromDate")
		rawTo := firstQueryParam(c, "to", "toDate")
		if rawFrom == "" || rawTo == "" {
			return detail(c, http.StatusBadRequest, "from and to dates are required")
		}

		from, err := parseRangeBound(rawFrom, false)
		if err != nil {
			return detail(c, http.StatusBadRequest, "invalid date format")
		}
		to, err := parseRangeBound(rawTo, true)
		if err != nil {
			return detail(c, http.StatusBadRequest, "invalid date format")
		}

		stats, err := svc.MethodStats(c.Request().Context(), from, to, strings.TrimSpace(c.QueryParam("client_id")))
		if err != nil {
			if errors.Is(err, usage.ErrInvalidRange) {
				return detail(c, http.StatusBadRequest, usage.ErrInvalidRange.Error())
			}
			return internalError(c, log, "method stats failed", err)
		}

		return c.JSON(http.StatusOK, stats)
	}
}

// dailyUsageHandler : GET /statistics/daily-usage?client_id=
func dailyUsageHandler(svc usageService, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		clientID := strings.TrimSpace(c.QueryParam("client_id"))
		if clientID == "" {
			return detail(c, http.StatusBadRequest, "client_id is required")
		}

		u, err := svc.DailyUsage(c.Request().Context(), clientID)
		if err != nil {
			if errors.Is(err, usage.ErrClientNotFound) {
				return detail(c, http.StatusNotFound, "client not found")
			}
			return internalError(c, log, "daily usage failed", err)
		}

		return c.JSON(http.StatusOK, u)
	}
}
