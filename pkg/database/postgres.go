package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/noah-isme/edu-center-api/pkg/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	pingAttempts = 5
	pingBackoff  = 500 * time.Millisecond
)

// NewPostgres returns a configured PostgreSQL client. The server is pinged a
// few times with growing pauses since the API often starts alongside it.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	var pingErr error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr = db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			return db, nil
		}
		if attempt < pingAttempts {
			time.Sleep(time.Duration(attempt) * pingBackoff)
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("ping postgres %s:%d: %w", cfg.Host, cfg.Port, pingErr)
}

// DSN renders the lib/pq connection string.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=edu-center-api",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// Migrate applies the embedded goose migrations. direction is "up", "down" or "status".
func Migrate(db *sqlx.DB, direction string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	switch direction {
	case "", "up":
		return goose.Up(db.DB, "migrations")
	case "down":
		return goose.Down(db.DB, "migrations")
	case "status":
		return goose.Status(db.DB, "migrations")
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
}
