package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"market-insight/config"
	"market-insight/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsDir string
	downSteps     int
)

// migrationDSN builds a postgres url; credentials are escaped so passwords
// with reserved characters survive.
func migrationDSN(dbConfig config.Database) string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(dbConfig.User, dbConfig.Password),
		Host:   fmt.Sprintf("%s:%d", dbConfig.Host, dbConfig.Port),
		Path:   "/" + dbConfig.DBName,
	}
	q := dsn.Query()
	q.Set("sslmode", dbConfig.SSLMode)
	if dbConfig.TimeZone != "" {
		q.Set("TimeZone", dbConfig.TimeZone)
	}
	dsn.RawQuery = q.Encode()
	return dsn.String()
}

// withMigrator loads the config, opens a migrator over migrationsDir and
// closes it after fn returns.
func withMigrator(fn func(m *migrate.Migrate, log *logger.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, err := migrate.New("file://"+migrationsDir, migrationDSN(cfg.DB))
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Warn("Migration source error on close", zap.Error(srcErr))
		}
		if dbErr != nil {
			log.Warn("Migration database error on close", zap.Error(dbErr))
		}
	}()

	return fn(m, log)
}

func logVersion(m *migrate.Migrate, log *logger.Logger) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info("Database has no migrations applied")
		return
	}
	if err != nil {
		log.Warn("Failed to read migration version", zap.Error(err))
		return
	}
	log.Info("Migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations (schema, views, seed jobs)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate, log *logger.Logger) error {
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration up failed: %w", err)
			}
			logVersion(m, log)
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the last migrations (one by default, see --steps)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps <= 0 {
			return fmt.Errorf("--steps must be positive")
		}
		return withMigrator(func(m *migrate.Migrate, log *logger.Logger) error {
			if err := m.Steps(-downSteps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration down failed: %w", err)
			}
			logVersion(m, log)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate, log *logger.Logger) error {
			logVersion(m, log)
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Mark VERSION as applied and clear the dirty flag after a failed migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return withMigrator(func(m *migrate.Migrate, log *logger.Logger) error {
			if err := m.Force(version); err != nil {
				return fmt.Errorf("migration force failed: %w", err)
			}
			logVersion(m, log)
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "path", "migrations", "directory holding the migration files")
	downCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to revert")

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd, forceCmd)
}
