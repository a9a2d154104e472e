package main

import (
	"errors"
	"fmt"
	"os"

	schedulerconfig "kabu-advisor/internal/scheduler/config"
	pkgconfig "kabu-advisor/pkg/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	migrationsPath string
)

func dsn(db pkgconfig.Database) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.DBName, db.SSLMode)
}

func open() (*migrate.Migrate, error) {
	cfg, err := schedulerconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return migrate.New("file://"+migrationsPath, dsn(cfg.Database))
}

func run(step func(*migrate.Migrate) error, done string) error {
	m, err := open()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No pending migrations.")
			return nil
		}
		return err
	}
	fmt.Println(done)
	return nil
}

func main() {
	rootCmd := &cobra.Command{Use: "migrate", Short: "Manage database schema migrations"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-scheduler.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&migrationsPath, "path", "p", "migrations", "Path to the migrations directory")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run((*migrate.Migrate).Up, "Applied migrations.")
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(func(m *migrate.Migrate) error { return m.Steps(-1) }, "Reverted last migration.")
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %s\n", err)
		os.Exit(1)
	}
}
