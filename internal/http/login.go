package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmehdipour/api-portal/internal/service/auth"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const msgInvalidCredentials = "Invalid credentials"

type loginService interface {
	Login(ctx context.Context, email, password string) (*auth.Result, error)
}

// loginReq fields are pointers so that a missing field is told apart from an
// empty string. Empty credentials go on to the service and fail as 401.
type loginReq struct {
	Email    *string `json:"email"    validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type clientView struct {
	ClientID           string   `json:"client_id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Environment        string   `json:"environment"`
	RequestLimitPerDay int      `json:"request_limit_per_day"`
	AllowedAPIs        []string `json:"allowed_apis"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          *string  `json:"updated_at"`
	IsActive           bool     `json:"is_active"`
	Plan               string   `json:"plan"`
}

type loginResp struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	Client      clientView `json:"client"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func newClientView(c model.Client) clientView {
	apis := c.AllowedAPIs
	if apis == nil {
		apis = []string{}
	}
	v := clientView{
		ClientID:           c.ClientID,
		Name:               c.Name,
		Email:              c.Email,
		Environment:        c.Environment,
		RequestLimitPerDay: c.RequestLimitPerDay,
		AllowedAPIs:        apis,
		CreatedAt:          formatTime(c.CreatedAt),
		IsActive:           c.IsActive,
		Plan:               c.Plan,
	}
	if c.UpdatedAt != nil {
		s := formatTime(*c.UpdatedAt)
		v.UpdatedAt = &s
	}
	return v
}

// loginHandler : POST /login. Unknown email and wrong password share one
// 401 body; anything else is logged and answered with an opaque 500.
func loginHandler(svc loginService, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return detail(c, http.StatusBadRequest, "email and password are required")
		}
		if err := c.Validate(&req); err != nil || req.Email == nil || req.Password == nil {
			return detail(c, http.StatusBadRequest, "email and password are required")
		}

		res, err := svc.Login(c.Request().Context(), *req.Email, *req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return detail(c, http.StatusUnauthorized, msgInvalidCredentials)
			}
			return internalError(c, log, "login failed", err)
		}

		return c.JSON(http.StatusOK, loginResp{
			AccessToken: res.AccessToken,
			TokenType:   res.TokenType,
			Client:      newClientView(res.Client),
		})
	}
}
