package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const msgInternal = "internal error"

// detail writes the {"detail": msg} error body every endpoint uses.
func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"detail": msg})
}

// internalError logs err with the request id and answers an opaque 500.
func internalError(c echo.Context, log *zap.Logger, msg string, err error) error {
	log.Error(msg,
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return detail(c, http.StatusInternalServerError, msgInternal)
}

// errorHandler renders framework errors (unknown routes, bad methods,
// recovered panics) with the same body shape as handler errors.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			_ = internalError(c, log, "unhandled error", err)
			return
		}

		msg := http.StatusText(he.Code)
		if he.Code >= http.StatusInternalServerError {
			log.Error("http error", zap.Int("status", he.Code), zap.Error(err))
			msg = msgInternal
		} else if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = detail(c, he.Code, msg)
	}
}
