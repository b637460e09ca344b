package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"vint/pkg/config"
	"vint/pkg/logging"
	"vint/pkg/store"
	"vint/process/sanitize"
)

func main() {
	var (
		dryRun = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes    = flag.Bool("yes", false, "Confirm destructive action (required to actually truncate)")
		prune  = flag.Bool("prune-tokens", false, "Only delete revoked or expired refresh tokens")
		tables = flag.String("tables", strings.Join(sanitize.DefaultTables, ","), "Comma-separated list of tables to truncate")
	)
	flag.Parse()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, "text")
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBLog)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	ctx := context.Background()

	if *prune {
		if _, err := sanitize.PruneTokens(ctx, os.Stdout, db, time.Now().UTC(), *dryRun); err != nil {
			log.Fatal(err)
		}
		return
	}

	wanted, rejected := sanitize.ParseTables(*tables)
	for _, t := range rejected {
		log.Warnf("skipping invalid table name '%s'", t)
	}
	wiped, err := sanitize.Truncate(ctx, os.Stdout, db, sanitize.Options{DryRun: *dryRun, Yes: *yes, Tables: wanted})
	if err != nil {
		log.Fatal(err)
	}
	if len(wiped) > 0 {
		log.WithField("tables", wiped).Info("tables truncated")
	}
}
