package postgres

import (
	"errors"
	"fmt"

	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // source
)

// Migrate applies all pending up migrations found under dir.
func Migrate(dir, url string, l logger.Interface) error {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return fmt.Errorf("Postgres - Migrate - migrate.New: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			l.Error(errors.Join(srcErr, dbErr), "Postgres - Migrate - m.Close")
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		l.Info("Postgres - Migrate - no change")

		return nil
	}
	if err != nil {
		return fmt.Errorf("Postgres - Migrate - m.Up: %w", err)
	}

	l.Info("Postgres - Migrate - up success")

	return nil
}
