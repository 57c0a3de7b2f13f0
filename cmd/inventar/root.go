package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/logfields"
	"github.com/erazemk/inventar/internal/store"
)

// app holds state shared by all subcommands once the root command has
// loaded configuration.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	logger     *slog.Logger
	configFile string
	envFile    string
	closeLog   func()
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
	}
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "inventar",
		Short:         "Household item lifecycle and usage tracking",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./inventar.yaml if present)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config file")
	flags.StringP("db", "d", "inventar.sqlite3", "SQLite database path")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-file", "", "also write logs to this file")

	// Flags take precedence over the config file and environment.
	mustBind(a.v, config.KeyDBPath, flags.Lookup("db"))
	mustBind(a.v, config.KeyLogLevel, flags.Lookup("log-level"))
	mustBind(a.v, config.KeyLogFile, flags.Lookup("log-file"))

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newAuditCmd(a),
		newSeedCmd(a),
		newTokenCmd(a),
	)

	return root, a
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

// load resolves configuration and sets up logging.
func (a *app) load() error {
	cfg, err := config.Load(a.v, a.configFile, a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(level, cfg.Log.File)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeLog = closeLog
	return nil
}

// openDatabase opens the configured database and makes sure the schema is
// current.
func (a *app) openDatabase() (*sql.DB, error) {
	database, err := db.Open(a.cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring database schema: %w", err)
	}
	a.logger.Debug("Database ready", slog.String("path", a.cfg.DB.Path))
	return database, nil
}

// jwtSecret returns the configured signing secret, falling back to the one
// stored in the database (generated on first use).
func (a *app) jwtSecret(ctx context.Context, database *sql.DB) (string, error) {
	if a.cfg.Auth.Secret != "" {
		return a.cfg.Auth.Secret, nil
	}
	secret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		a.logger.Error("Failed to load JWT secret", logfields.Error(err))
		return "", err
	}
	return secret, nil
}
