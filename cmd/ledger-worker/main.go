package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backup"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/format"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	appLog := cli.SetupLogger(log.ComponentWorker)
	logger := appLog.Logger
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	settings := cfg.Settings()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, appLog, cfg)
	defer cli.RunCleanup(logger, shutdownTimeout, res.Cleanup)

	var opts []services.LedgerOption
	if res.Broker != nil {
		opts = append(opts, services.WithPublisher(res.Broker))
	}
	ledger := services.NewLedgerService(res.Store, events.NewBus(), opts...)

	notifier := newNotifier(appLog.WithComponent(log.ComponentNotifier).Logger, settings, res.Broker)
	payments := services.NewPaymentProcessor(res.Store, ledger, notifier)
	budgets := services.NewBudgetService(res.Store, ledger, notifier)
	backups := backup.NewManager(cfg.BackupDir, ledger)

	scheduler := worker.NewScheduler(payments, budgets, backups, worker.SchedulerConfig{
		ProcessorSchedule: cfg.ProcessorSchedule,
		BackupSchedule:    cfg.BackupSchedule,
		ReminderDays:      settings.ReminderDays,
		RunOnStart:        true,
	})
	janitor := cache.NewJanitor(ledger.SummaryCache())

	logger.Info("Ledger worker configured",
		"backend", cfg.DataBackend,
		"amqp_enabled", res.Broker != nil,
		"notifications_enabled", settings.NotificationsEnabled,
		"currency", settings.Currency,
		"user", settings.UserName)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx, shutdownTimeout)
	})
	g.Go(func() error {
		janitor.Run(gctx, cfg.CacheSweepInterval)
		return nil
	})
	g.Go(func() error {
		return watchSummaries(gctx, appLog.WithComponent(log.ComponentLedger), ledger, settings.Currency)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Ledger worker stopped with error", "error", err)
		cli.RunCleanup(logger, shutdownTimeout, res.Cleanup)
		os.Exit(1)
	}
	logger.Info("Shutting down ledger-worker")
}

// newNotifier prefers the broker and falls back to the log. It returns nil
// when notifications are disabled.
func newNotifier(logger *slog.Logger, settings config.Settings, broker *amqp.Client) ports.Notifier {
	if !settings.NotificationsEnabled {
		return nil
	}
	if broker != nil {
		return broker
	}
	return services.NewLogNotifier(logger)
}

// watchSummaries logs the current month's summary whenever it changes and
// moves on to the next month at midnight on the 1st.
func watchSummaries(ctx context.Context, logger *log.Logger, ledger *services.LedgerService, currency string) error {
	for {
		now := time.Now()
		year, month := now.Year(), int(now.Month())
		_, next := core.MonthBounds(year, month)
		monthEnd := time.Date(next.Year(), time.Month(next.Month()), 1, 0, 0, 0, 0, time.Local)

		monthCtx, cancel := context.WithDeadline(ctx, monthEnd)
		summaries, err := ledger.Watch(monthCtx, year, month)
		if err != nil {
			cancel()
			return err
		}
		for s := range summaries {
			fields := log.NewFields().
				WithMonth(s.Year, s.Month).
				With("income", format.Amount(s.Income, currency)).
				With("expense", format.Amount(s.Expense, currency)).
				With("balance_cents", s.Balance).
				With("transactions", s.Count)
			logger.WithFields(fields).Info("Month summary")
		}
		cancel()

		if ctx.Err() != nil {
			return nil
		}
	}
}
