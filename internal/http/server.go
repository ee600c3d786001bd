package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmehdipour/credit-registry/internal/config"
	"github.com/jmehdipour/credit-registry/internal/http/middleware"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmehdipour/credit-registry/internal/metrics"
	"github.com/jmehdipour/credit-registry/internal/repository"
	"github.com/jmehdipour/credit-registry/internal/service/credit"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct{ e *echo.Echo }

// NewServer wires the credit API. clickhouseDB and rds are optional: a nil
// ClickHouse connection disables /reportes, a nil redis client disables rate limiting.
func NewServer(cfg config.Config, sqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos
	creditsRepo := repository.NewCreditsRepository(sqlDB)
	outboxRepo := repository.NewOutboxRepository(sqlDB)

	// services
	creditSvc := credit.New(sqlDB, creditsRepo, outboxRepo)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.ERROR)
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(echoMid.Recover(), requestLogger())
	if cfg.HTTP.BodyLimit != "" {
		e.Use(echoMid.BodyLimit(cfg.HTTP.BodyLimit))
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// landing + bundled page
	e.GET("/", infoHandler)
	registerFrontend(e)

	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:ip:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	g := e.Group("/creditos", rlMW)
	g.POST("", createCreditHandler(creditSvc))
	g.GET("", listCreditsHandler(creditSvc))
	g.GET("/total", totalHandler(creditSvc))
	g.GET("/por_cliente", byClientHandler(creditSvc))
	g.GET("/por_rangos", rangesHandler(creditSvc))
	g.GET("/estadisticas", statsHandler(creditSvc))
	g.GET("/exportar", exportCreditsHandler(creditSvc))
	g.GET("/:id", getCreditHandler(creditSvc))
	g.PUT("/:id", updateCreditHandler(creditSvc))
	g.DELETE("/:id", deleteCreditHandler(creditSvc))

	if clickhouseDB != nil {
		chEventsRepo := repository.NewCHEventsRepository(clickhouseDB)
		e.Group("/reportes", rlMW).GET("/eventos", listEventsHandler(chEventsRepo))
	}

	return &Server{e: e}
}

func requestLogger() echo.MiddlewareFunc {
	return echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			logger.Log.Info("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.e.ServeHTTP(w, r) }

func (s *Server) Start(addr string) error {
	logger.Log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
