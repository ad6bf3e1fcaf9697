package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/freelancedao/settlement/internal/app"
	"github.com/freelancedao/settlement/internal/config"
	"github.com/freelancedao/settlement/internal/events"
	httpHandlers "github.com/freelancedao/settlement/internal/http/handlers"
	httpRouter "github.com/freelancedao/settlement/internal/http/router"
	"github.com/freelancedao/settlement/internal/logger"
	"github.com/freelancedao/settlement/internal/pkg/clock"
	"github.com/freelancedao/settlement/internal/service"
	"github.com/freelancedao/settlement/internal/storage"
	"github.com/freelancedao/settlement/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}

	// Хранилище: память или postgres с миграциями.
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подготовки хранилища: %v", err)
	}
	defer safeClose(backend)

	// Вебсокеты. Хаб получает события вместе с журналом.
	hub := ws.NewHub(ctx)
	sink := events.Fanout{
		events.LogSink{},
		events.NewJournalSink(backend.Journal),
		hub,
	}

	settlement, err := app.NewSettlement(ctx, cfg, backend, sink, clock.System{})
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// HTTP хэндлеры.
	jobHandler := httpHandlers.NewJobHandler(settlement.Engine, backend.Journal)
	disputeHandler := httpHandlers.NewDisputeHandler(settlement.Arbitration)
	daoHandler := httpHandlers.NewDaoHandler(settlement.Arbitration)
	accountHandler := httpHandlers.NewAccountHandler(backend.Ledger)
	adminHandler := httpHandlers.NewAdminHandler(settlement.Engine)
	healthHandler := httpHandlers.NewHealthHandler(backend.DB, settlement.Engine)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins)

	engine := httpRouter.SetupRouter(cfg, jobHandler, disputeHandler, daoHandler, accountHandler, adminHandler, healthHandler, wsHandler, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"port":    cfg.HTTPPort,
			"storage": cfg.StorageDriver,
			"env":     cfg.Env,
		}).Info("main: HTTP сервер запущен")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// Завершаем сервер при получении сигнала.
	g.Go(func() error {
		<-gctx.Done()
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Errorf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(backend *storage.Backend) {
	if err := backend.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
