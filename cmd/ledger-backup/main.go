package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fintrack/internal/backup"
	"fintrack/internal/cli"
	"fintrack/internal/events"
	"fintrack/internal/format"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	list := flag.Bool("list", false, "list backups, newest first")
	create := flag.Bool("create", false, "write a new backup of every transaction")
	restore := flag.String("restore", "", "replace every transaction with the named backup")
	flag.Parse()

	cli.LoadEnvFile()
	appLog := cli.SetupLogger(log.ComponentBackup)
	logger := appLog.Logger
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res := cli.InitBackend(ctx, appLog, cfg)
	defer cli.RunCleanup(logger, 10*time.Second, res.Cleanup)

	ledger := services.NewLedgerService(res.Store, events.NewBus())
	manager := backup.NewManager(cfg.BackupDir, ledger)

	switch {
	case *list:
		infos, err := manager.List()
		if err != nil {
			logger.Error("Failed to list backups", "error", err)
			os.Exit(1)
		}
		if len(infos) == 0 {
			fmt.Println("No backups in", cfg.BackupDir)
		}
		for _, info := range infos {
			fmt.Printf("%s\t%s\t%d bytes\n", info.Name, info.DisplayName(), info.Size)
		}

	case *create:
		info, err := manager.Create(ctx)
		if err != nil {
			logger.Error("Failed to create backup", "error", err)
			os.Exit(1)
		}
		fmt.Println("Created", info.Name)

	case *restore != "":
		n, err := manager.Restore(ctx, *restore)
		if err != nil {
			logger.Error("Failed to restore backup", "error", err, log.FieldBackupName, *restore)
			os.Exit(1)
		}
		summary, err := ledger.CurrentSummary(ctx)
		if err != nil {
			logger.Error("Failed to summarize restored ledger", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Restored %d transactions from %s; this month: %s spent, %s earned\n",
			n, backup.DisplayName(*restore),
			format.Amount(summary.Expense, cfg.Currency),
			format.Amount(summary.Income, cfg.Currency))

	default:
		flag.Usage()
		os.Exit(2)
	}
}
