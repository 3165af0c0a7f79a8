package database

import (
	"errors"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/jimallen/TasksAgent-sub000/db/migrations"
)

// RunMigrations applies the embedded schema migrations when RUN_MIGRATIONS
// is set to true.
func RunMigrations(databaseURL string, log *zap.Logger) error {
	run := os.Getenv("RUN_MIGRATIONS")
	if !strings.EqualFold(run, "true") {
		log.Info("skipping migrations (RUN_MIGRATIONS is not 'true')", zap.String("component", "migrations"))
		return nil
	}

	log.Info("running database migrations", zap.String("component", "migrations"))

	src, err := iofs.New(migrations.SQLFiles, ".")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("migration failed", zap.Error(err))
		return err
	}

	log.Info("all database migrations applied successfully", zap.String("component", "migrations"))
	return nil
}
