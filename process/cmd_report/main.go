package main

import (
	"context"
	"flag"
	"os"
	"time"

	"vint/pkg/config"
	"vint/pkg/ledger"
	"vint/pkg/logging"
	"vint/pkg/store"
	"vint/process/report"
)

func main() {
	email := flag.String("email", "", "email of the user to report for")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching transactions")
	flag.Parse()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, "text")
	if *email == "" {
		log.Fatal("-email is required")
	}

	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBLog)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	// reporting never contacts the ledger provider
	svc := ledger.NewService(db, nil, nil, ledger.Options{}, log)

	if err := report.Run(context.Background(), os.Stdout, db, svc, report.Options{Email: *email, Month: *month, List: *list}); err != nil {
		log.Fatalf("report failed: %v", err)
	}
}
