package persistence

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

// RunMigrations applies every pending up migration from sourceURL, e.g.
// "file://migrations".
func RunMigrations(sourceURL, dsn string, log logger.Logger) error {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, dirty, _ := m.Version()
	if dirty {
		return fmt.Errorf("database is dirty at migration version %d", version)
	}
	log.Info("Database migrations applied", zap.Uint("version", version))
	return nil
}
