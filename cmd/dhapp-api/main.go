// README: Entry point; loads config, wires stores and the allocation engine, starts HTTP and the sweeper.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rachana28/DHAPP-BACKEND/internal/config"
	httptransport "github.com/rachana28/DHAPP-BACKEND/internal/http"
	"github.com/rachana28/DHAPP-BACKEND/internal/infra"
	"github.com/rachana28/DHAPP-BACKEND/internal/logging"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/allocation"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/device"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/trip"
	"github.com/rachana28/DHAPP-BACKEND/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.FirebaseProjectID == "" {
		logger.Fatal("DHAPP_FIREBASE_PROJECT_ID is required")
	}
	fbApp, err := infra.NewFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	if err != nil {
		logger.Fatal("firebase init", zap.Error(err))
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, fbApp)
	if err != nil {
		logger.Fatal("firebase auth", zap.Error(err))
	}

	dbPool, err := infra.NewDB(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	driverStore := driver.NewPGStore(dbPool, redisClient)
	tripStore := trip.NewPGStore(dbPool)
	deviceStore := device.NewPGStore(dbPool)

	var notifier notify.Notifier
	if messagingClient, err := infra.NewMessagingClient(ctx, fbApp); err != nil {
		logger.Warn("fcm unavailable, notifications go to the log", zap.Error(err))
		notifier = notify.NewLogNotifier(logger)
	} else {
		notifier = notify.NewFCM(messagingClient, deviceStore, logger)
	}

	engine := allocation.NewEngine(tripStore, driverStore, notifier, cfg.Allocation, logger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Engine:   engine,
		Drivers:  driver.NewService(driverStore),
		Trips:    trip.NewService(tripStore),
		Devices:  deviceStore,
		Verifier: verifier,
		Log:      logger,
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go engine.RunScheduler(ctx)

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
