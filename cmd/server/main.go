package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/minibus-booking/internal/config"
	"github.com/iliyamo/minibus-booking/internal/database"
	"github.com/iliyamo/minibus-booking/internal/handler"
	"github.com/iliyamo/minibus-booking/internal/logger"
	"github.com/iliyamo/minibus-booking/internal/middleware"
	"github.com/iliyamo/minibus-booking/internal/queue"
	"github.com/iliyamo/minibus-booking/internal/repository"
	"github.com/iliyamo/minibus-booking/internal/router"
	"github.com/iliyamo/minibus-booking/internal/service"
	"github.com/iliyamo/minibus-booking/internal/session"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	rdb := config.NewRedisClient()
	var sessions session.Store
	var redisPing func(context.Context) error
	if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL, "session")
		redisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn("redis unreachable, using in-memory sessions without cache or rate limiting")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	bookings := repository.NewBookingRepo(db)
	trips := tripSource(cfg, db, bookings)
	publisher := service.NewPublisher(cfg.AMQPURL, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(cfg.AMQPURL, cfg.NotifyLogDir, log)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("notification consumer stopped", "error", err)
		}
	}()

	e := newServer(cfg, log, rdb)
	router.RegisterRoutes(e, db, redisPing)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db)), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewTripHandler(trips, cfg.Currency), middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterCustomer(e,
		handler.NewSessionHandler(trips, sessions, bookings, publisher, log, cfg.MaxSeatsPerBooking, cfg.Currency),
		handler.NewCustomerHandler(bookings, cfg.Currency),
		cfg.JWTSecret,
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(trips, bookings, publisher, log, cfg.Currency, cfg.PaymentLinkBase), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "trip_source", cfg.TripSource)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

// newServer builds the echo instance with the request pipeline shared by
// every route.
func newServer(cfg config.Config, log *logger.Logger, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))
	return e
}

// tripSource picks the trip lookup named by TRIP_SOURCE.  The static
// timetable still reads persisted bookings so seats stay consistent.
func tripSource(cfg config.Config, db *sql.DB, bookings *repository.BookingRepo) repository.TripSource {
	if cfg.TripSource == "static" {
		return repository.NewStaticTripSource(bookings)
	}
	return repository.NewTripRepo(db)
}
