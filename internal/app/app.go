// Package app is the application layer between the CLI and the
// library packages. It constructs all dependencies from config and
// manages the database and log-file lifecycle on Close.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/config"
	"github.com/SGullin/arpa/internal/database"
	"github.com/SGullin/arpa/internal/database/migrations"
	"github.com/SGullin/arpa/internal/logging"
	"github.com/SGullin/arpa/internal/pipeline"
	"github.com/SGullin/arpa/internal/tools"
)

// App wires the store, the tool runners and the pipeline for one CLI
// run. The caller must call Close when done.
type App struct {
	Cfg      *config.Config
	Store    *archivist.Store
	PSRChive *tools.PSRChive
	Pipeline *pipeline.Pipeline
	Logger   logging.Logger

	logFile *os.File
}

// New creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Cook", "AddPulsar") and
// tags every log record. observer may be nil.
func New(cfg *config.Config, operation string, observer pipeline.Observer) (*App, error) {
	if url := os.Getenv("ARPA_DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	runID := fmt.Sprintf(
		"%s-%s", operation, time.Now().UTC().Format("20060102T150405Z"),
	)
	slogger, logFile, err := logging.NewFileLogger(cfg.Paths.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &logging.SlogAdapter{L: slogger}

	db, driver, err := database.Open(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrations.Check(db, driver); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	store := archivist.New(
		db, driver,
		time.Duration(cfg.Database.AcquireTimeoutMS)*time.Millisecond,
		logger,
	)

	psrchive := &tools.PSRChive{
		Dir:    cfg.Paths.PSRChive,
		Runner: &tools.ExecRunner{Logger: logger},
	}

	return &App{
		Cfg:      cfg,
		Store:    store,
		PSRChive: psrchive,
		Pipeline: pipeline.New(cfg, store, psrchive, logger, observer),
		Logger:   logger,
		logFile:  logFile,
	}, nil
}

// Close abandons any live transaction and releases the database and
// the log file.
func (a *App) Close() error {
	a.Store.Abandon()
	err := a.Store.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}
