package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/campus-events/gatepass/internal/config"
	"github.com/campus-events/gatepass/internal/database"
	"github.com/campus-events/gatepass/internal/handler"
	"github.com/campus-events/gatepass/internal/queue"
	"github.com/campus-events/gatepass/internal/repository"
	"github.com/campus-events/gatepass/internal/router"
	"github.com/campus-events/gatepass/internal/service"
)

func main() {
	// Missing .env is fine in containerized deploys where the environment
	// is injected directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it rate limiting and response caching
	// degrade to pass-through while the booking path keeps working.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	userRepo := repository.NewUserRepo(db)
	eventRepo := repository.NewEventRepo(db)
	passRepo := repository.NewPassRepo(db)

	issuance := service.NewIssuanceService(userRepo, eventRepo, passRepo, cfg.MaxEntriesPerPass)
	redemption := service.NewRedemptionService(passRepo)
	access := service.NewAccessPolicy(eventRepo)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Events: handler.NewEventHandler(eventRepo, userRepo, access),
		Passes: handler.NewPassHandler(issuance),
		Scan:   handler.NewScanHandler(redemption, access, userRepo),
	}, &cfg, rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The audit consumer reconnects on its own; a down broker only costs
	// the audit trail, never a booking or a scan.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer: %v", err)
		}
	}()

	expiry := service.NewExpiryWorker(passRepo, cfg.ExpirySweepInterval, cfg.ExpiryGrace)
	go expiry.Run(ctx)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
}
