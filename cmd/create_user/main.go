package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"vint/pkg/apperr"
	"vint/pkg/config"
	"vint/pkg/logging"
	"vint/pkg/store"
	"vint/pkg/users"
)

func main() {
	phone := flag.String("phone", "", "optional phone number (must be unique)")
	budget := flag.String("budget", "0", "monthly budget")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/create_user [-phone +15550100] [-budget 1500] <email>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, "text")

	monthly, err := decimal.NewFromString(*budget)
	if err != nil {
		log.Fatalf("invalid budget %q: %v", *budget, err)
	}
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBLog)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	store.Migrate(db, log)

	in := users.NewUser{Email: flag.Arg(0), MonthlyBudget: monthly}
	if *phone != "" {
		in.Phone = phone
	}
	user, err := users.Register(context.Background(), db, in)
	if apperr.Is(err, apperr.KindConflict) {
		existing, lookupErr := users.ByEmail(context.Background(), db, in.Email)
		if lookupErr == nil {
			fmt.Printf("user %s already exists (id=%d)\n", existing.Email, existing.ID)
			return
		}
	}
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", user.Email, user.ID)
}
