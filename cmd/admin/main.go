// Command admin runs maintenance tasks against the school calendar database.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/zapponejosh/pathshala-api/internal/attendance"
	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/config"
	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.Setup(cfg)

	// set up DB
	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	errAndDie(log, err)
	defer db.Close()
	errAndDie(log, db.Health(context.Background()))

	// start CLI
	classifier := calendar.NewClassifier(db, cfg.RestWeekday())
	cli := commandLine{
		db:     db,
		ledger: attendance.NewLedger(db, calendar.NewGate(classifier), log),
		out:    os.Stdout,
	}
	if err := cli.run(context.Background(), os.Args); err != nil {
		if err != errHelp {
			log.Error("command failed", slog.Any("error", err))
		}
		db.Close()
		os.Exit(1)
	}
}

func errAndDie(log *slog.Logger, err error) {
	if err != nil {
		log.Error("admin startup failed", slog.Any("error", err))
		os.Exit(1)
	}
}
