// Package cli provides the command-line interface for convostore.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/convostore-go/internal/config"
	"github.com/raphaelgruber/convostore-go/internal/db"
	"github.com/raphaelgruber/convostore-go/internal/identity"
	"github.com/raphaelgruber/convostore-go/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger, db client and stores
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	dbClient   *db.Client
	durable    *db.Store
	history    *service.History
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "convostore",
	Short: "Durable conversation history store",
	Long: `Convostore gives request/response pipelines durable, ordered chat
history: stable conversation identities, append-only turns, and full
reconstruction of past conversations.

Conversations, messages and content items are persisted in SurrealDB;
message order is preserved exactly as appended.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		mode := identity.Mode(cfg.IdentifierMode)
		if !mode.Valid() {
			return fmt.Errorf("unknown identifier mode %q", cfg.IdentifierMode)
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		durable = db.NewStore(dbClient, logger)
		history = service.New(durable, identity.NewPolicy(mode), logger, nil)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && history != nil {
			printOpMetrics(history.Metrics().Snapshot())
		}
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(wipeCmd)
}
