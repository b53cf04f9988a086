package cmd

import (
	"fmt"
	"strings"

	"github.com/killallgit/depthtrack-api/internal/database"
	"github.com/killallgit/depthtrack-api/pkg/config"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Manage the database schema for the DepthTrack API.

The schema is derived from the models and applied with GORM AutoMigrate,
which only adds tables, columns and indexes. There is no rollback.

Available subcommands:
  up      - Create or extend tables to match the models
  status  - Show which tables exist`,
}

// migrateUpCmd applies the schema
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the schema",
	Long: `Create or extend all tables so they match the current models.

Safe to run repeatedly; serve also runs it at startup.`,
	RunE: runMigrateUp,
}

// migrateStatusCmd shows migration status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Display whether each table the service needs exists.`,
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func openDatabase(cfg *config.Config) (*database.DB, error) {
	return database.Initialize(database.Options{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConnections,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
		BusyTimeout:     cfg.Database.BusyTimeout,
		EnableWAL:       cfg.Database.EnableWAL,
		Verbose:         cfg.Database.LogQueries,
	})
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s)\n", cfg.Database.Path)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Database Migration Status")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	migrator := db.Migrator()
	pending := 0
	for _, model := range database.Models() {
		name := fmt.Sprintf("%T", model)
		if tabler, ok := model.(interface{ TableName() string }); ok {
			name = tabler.TableName()
		}
		state := "applied"
		if !migrator.HasTable(model) {
			state = "pending"
			pending++
		}
		fmt.Fprintf(out, "  %-20s %s\n", name, state)
	}

	if pending > 0 {
		fmt.Fprintf(out, "\n%d table(s) pending, run `migrate up`\n", pending)
	}
	return nil
}
