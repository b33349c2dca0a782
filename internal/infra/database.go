package infra

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// NewDatabase establishes a GORM connection backed by pgx. Schema is managed
// exclusively by the SQL migrations embedded in this package; call
// RunMigrations before serving traffic.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	return db, nil
}

// migrationLogger routes golang-migrate output through zerolog.
type migrationLogger struct{}

func (migrationLogger) Printf(format string, v ...any) {
	log.Debug().Msgf("migrate: "+format, v...)
}

func (migrationLogger) Verbose() bool { return false }

func newMigrator(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations source: %w", err)
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return nil, fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, err
	}
	m.Log = migrationLogger{}
	return m, nil
}

// RunMigrations applies every pending up migration. A database already at the
// latest version is not an error.
func RunMigrations(db *gorm.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	started := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, dirty, _ := m.Version()
		return fmt.Errorf("migrate up (version %d, dirty=%t): %w", version, dirty, err)
	}
	version, _, _ := m.Version()
	log.Info().Uint("version", version).Dur("elapsed", time.Since(started)).Msg("database migrations applied")
	return nil
}

// RollbackMigrations reverts the given number of migrations.
func RollbackMigrations(db *gorm.DB, steps int) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down %d: %w", steps, err)
	}
	return nil
}

// MigrationVersion reports the applied schema version.
func MigrationVersion(db *gorm.DB) (uint, bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
