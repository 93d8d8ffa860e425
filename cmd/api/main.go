package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vetdesk/calendar-api/internal/calendar/state"
	"github.com/vetdesk/calendar-api/internal/calendar/sync"
	"github.com/vetdesk/calendar-api/internal/config"
	"github.com/vetdesk/calendar-api/internal/handler"
	appointmentHandler "github.com/vetdesk/calendar-api/internal/handler/appointment"
	calendarHandler "github.com/vetdesk/calendar-api/internal/handler/calendar"
	wsHandler "github.com/vetdesk/calendar-api/internal/handler/ws"
	"github.com/vetdesk/calendar-api/internal/middleware"
	"github.com/vetdesk/calendar-api/internal/realtime"
	"github.com/vetdesk/calendar-api/internal/realtime/hub"
	"github.com/vetdesk/calendar-api/internal/repository/postgres"
	"github.com/vetdesk/calendar-api/internal/router"
	"github.com/vetdesk/calendar-api/internal/service/booking"
	"github.com/vetdesk/calendar-api/internal/service/notification"
	"github.com/vetdesk/calendar-api/pkg/logger"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appointmentRepo := postgres.NewAppointmentRepository(db)
	staffRepo := postgres.NewStaffRepository(db)

	feed, err := realtime.NewRedisFeed(realtime.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer feed.Close()

	wsHub := hub.New(&log)

	tenantID, err := uuid.Parse(cfg.Calendar.TenantID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid calendar tenant ID")
	}

	store := state.NewStore()
	synchronizer := sync.New(store, appointmentRepo, staffRepo, feed, wsHub, sync.Config{
		TenantID:     tenantID,
		FetchTimeout: time.Duration(cfg.Calendar.FetchTimeoutSeconds) * time.Second,
	}, &log)

	var notifier notification.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notification.NewEmailNotifier(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, &log)
	} else {
		notifier = notification.NopNotifier{}
	}

	bookingSvc := booking.NewService(appointmentRepo, staffRepo, feed, notifier, &log)

	h := handler.NewHandler()
	calH := calendarHandler.NewHandler(appointmentRepo, staffRepo)
	aptH := appointmentHandler.NewHandler(bookingSvc)
	wsH := wsHandler.NewHandler(wsHub, &log)

	auth := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(auth, calH, aptH, wsH, h, router.Config{
		RateLimit:  rate.Limit(100),
		RateBurst:  200,
		CORSConfig: middleware.DefaultCORSConfig(),
	})
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := synchronizer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("synchronizer stopped")
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
