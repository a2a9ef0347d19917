package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moneta-erp/moneta/internal/app"
	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/ledger"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/mutation"
	"github.com/moneta-erp/moneta/internal/observability"
	"github.com/moneta-erp/moneta/internal/platform/cache"
	"github.com/moneta-erp/moneta/internal/platform/db"
	"github.com/moneta-erp/moneta/internal/regulatory"
	"github.com/moneta-erp/moneta/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	cal := calendar.New(cfg.AccountingOffset())
	auditLogger := shared.NewAuditLogger(pool)

	master := masterdata.NewRepository(pool)

	txStore := ledger.NewRepository(pool)
	numbers := ledger.NewNumberGenerator(txStore, master, cal, cfg.OrgCode)
	ledgerService := ledger.NewService(txStore, master, master, master, numbers, cal, auditLogger)

	mutationService := mutation.NewService(txStore, master, master, cal)
	snapshotRepo := mutation.NewSnapshotRepo(pool)
	materializer := mutation.NewMaterializer(mutationService, snapshotRepo, master)
	formatter := mutation.NewFormatter(cfg.ReportLocale)

	regulatoryRepo := regulatory.NewPgRepository(pool)
	snapshotCache := regulatory.NewSnapshotCache(redisClient)
	regulatoryService := regulatory.NewService(
		regulatoryRepo, txStore, master, master, cal,
		cfg.RegulatorOperatorID, snapshotCache, auditLogger,
	)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		LedgerHandler:     ledger.NewHandler(logger, ledgerService, cal),
		MutationHandler:   mutation.NewHandler(logger, mutationService, materializer, formatter),
		RegulatoryHandler: regulatory.NewHandler(logger, regulatoryService, metrics),
		MasterdataHandler: masterdata.NewHandler(logger, master),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
