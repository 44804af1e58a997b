package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/jmehdipour/api-portal/internal/config"
	"github.com/jmehdipour/api-portal/internal/http/middleware"
	"github.com/jmehdipour/api-portal/internal/kafka"
	"github.com/jmehdipour/api-portal/internal/metrics"
	"github.com/jmehdipour/api-portal/internal/repository"
	"github.com/jmehdipour/api-portal/internal/security"
	"github.com/jmehdipour/api-portal/internal/service/auth"
	"github.com/jmehdipour/api-portal/internal/service/usage"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	gommonLog "github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(
	cfg config.Config,
	mysqlDB, clickhouseDB *sqlx.DB,
	rds *redis.Client,
	producer *kafka.Producer,
	log *zap.Logger,
) (*Server, error) {
	// repos (MySQL)
	clientsRepo := repository.NewClientsRepository(mysqlDB)

	// repos (ClickHouse / Redis)
	usageRepo := repository.NewCHUsageRepository(clickhouseDB)
	countersRepo := repository.NewUsageCountersRepository(rds)

	issuer, err := security.NewHS256Issuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	// services
	authSvc := auth.New(clientsRepo, security.BcryptVerifier{}, issuer)
	usageSvc := usage.New(producer, usageRepo, countersRepo, clientsRepo)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e := NewRouter(authSvc, usageSvc, clientsRepo, log)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{e: e, log: log}, nil
}

// NewRouter wires middleware and the portal routes onto a fresh echo instance.
func NewRouter(authSvc loginService, usageSvc usageService, dir clientDirectory, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(gommonLog.WARN)
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = errorHandler(log)
	e.Use(
		echoMid.Recover(),
		echoMid.RequestID(),
		middleware.RequestLogger(log),
		echoMid.BodyLimit("64K"),
	)

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// routes
	e.POST("/login", loginHandler(authSvc, log))

	e.GET("/clients", listClientsHandler(dir, log))
	e.GET("/clients/all", listClientsHandler(dir, log))

	stats := e.Group("/statistics")
	stats.POST("/record", recordUsageHandler(usageSvc, log))
	stats.GET("/method-stats", methodStatsHandler(usageSvc, log))
	stats.GET("/daily-usage", dailyUsageHandler(usageSvc, log))

	return e
}

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
