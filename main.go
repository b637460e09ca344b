package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vint/pkg/config"
	"vint/pkg/identity"
	"vint/pkg/ledger"
	"vint/pkg/logging"
	"vint/pkg/provider"
	"vint/pkg/secretbox"
	"vint/pkg/session"
)

// App carries everything a request handler needs.
type App struct {
	cfg      *config.Config
	db       *gorm.DB
	ledger   *ledger.Service
	sessions *session.Manager
	auth     identity.Authenticator
	log      *logrus.Logger
	now      func() time.Time
}

func newApp(cfg *config.Config, db *gorm.DB, p provider.Provider, auth identity.Authenticator, box *secretbox.Box, log *logrus.Logger) *App {
	return &App{
		cfg:      cfg,
		db:       db,
		ledger:   ledger.NewService(db, p, box, ledger.Options{ProviderTimeout: cfg.ProviderTimeout}, log),
		sessions: session.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		auth:     auth,
		log:      log,
		now:      time.Now,
	}
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.UsesDevSecret() {
		log.Warn("JWT_SECRET is not set; using the insecure development secret")
	}

	// `vint migrate` runs the schema migrations and exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.DBAutoMigrate = true
		if _, err := initDB(cfg, log); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		fmt.Println("migration completed")
		return
	}

	db, err := initDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	box, err := secretbox.New(cfg.TokenEncryptionKey)
	if err != nil {
		log.WithError(err).Fatal("token encryption key")
	}
	if !box.Enabled() {
		log.Warn("TOKEN_ENCRYPTION_KEY is not set; ledger credentials are stored unencrypted")
	}
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		log.Warn("PLAID_CLIENT_ID or PLAID_SECRET is not set; ledger provider calls will fail")
	}
	if cfg.GoogleClientID == "" {
		log.Warn("GOOGLE_CLIENT_ID is not set; Google sign-in will reject every token")
	}

	plaid := provider.NewPlaid(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv, cfg.PlaidClientName)
	app := newApp(cfg, db, plaid, identity.NewGoogle(cfg.GoogleClientID), box, log)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	app.setupRoutes(r)

	log.WithFields(logrus.Fields{"port": cfg.Port, "db_driver": cfg.DBDriver, "plaid_env": cfg.PlaidEnv}).Info("vint listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
