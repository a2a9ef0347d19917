package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/moneta-erp/moneta/internal/app"
	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/ledger"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/mutation"
	"github.com/moneta-erp/moneta/internal/platform/db"
	"github.com/moneta-erp/moneta/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	cal := calendar.New(cfg.AccountingOffset())
	master := masterdata.NewRepository(pool)
	txStore := ledger.NewRepository(pool)

	mutationService := mutation.NewService(txStore, master, master, cal)
	snapshotRepo := mutation.NewSnapshotRepo(pool)
	materializer := mutation.NewMaterializer(mutationService, snapshotRepo, master)
	snapshotHandler := jobs.NewMutationSnapshotHandler(materializer, cal, logger)

	snapshotTask, err := jobs.NewMutationSnapshotTask(calendar.Date{})
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskMutationSnapshot, Handler: snapshotHandler},
		},
		Cron: []jobs.CronRegistration{
			// 16:30 UTC is 00:30 local on the default UTC+8 accounting day.
			{Spec: "30 16 * * *", Task: snapshotTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
