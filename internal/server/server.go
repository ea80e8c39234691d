package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/household-ledger/internal/auth"
	"example.com/household-ledger/internal/config"
	"example.com/household-ledger/internal/handlers"
	"example.com/household-ledger/internal/notifications"
	"example.com/household-ledger/internal/recurring"
	"example.com/household-ledger/internal/repository"
	"example.com/household-ledger/internal/settlement"
)

// Deps — зависимости, переиспользуемые за пределами HTTP-сервера
// (планировщик гоняет тот же материализатор, что и ручной эндпоинт).
type Deps struct {
	Materializer *recurring.Materializer
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, db *pgxpool.Pool) (*echo.Echo, Deps) {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	recurringRepo := repository.NewRecurringRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationHub := notifications.NewHub()

	settlementService := settlement.NewService(userRepo, expenseRepo, paymentRepo)
	materializer := recurring.NewMaterializer(recurringRepo, expenseRepo)

	authHandler := handlers.NewAuthHandler(userRepo, tokenManager)
	adminHandler := handlers.NewAdminHandler(userRepo)
	categoryHandler := handlers.NewCategoryHandler(categoryRepo)
	expenseHandler := handlers.NewExpenseHandler(expenseRepo, categoryRepo, notificationHub)
	recurringHandler := handlers.NewRecurringHandler(recurringRepo, categoryRepo, materializer, notificationHub)
	settlementHandler := handlers.NewSettlementHandler(settlementService, notificationHub)
	notificationHandler := handlers.NewNotificationHandler(notificationHub)

	registerRoutes(
		e,
		authHandler,
		adminHandler,
		categoryHandler,
		expenseHandler,
		recurringHandler,
		settlementHandler,
		notificationHandler,
		auth.Middleware(tokenManager),
		auth.AdminMiddleware(),
		authRateLimiter(cfg.Auth),
	)

	return e, Deps{Materializer: materializer}
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func authRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
