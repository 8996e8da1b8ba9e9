// Package postgres implements the persistence ports on GORM over Postgres.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/blazechat/chat-api/internal/core/domain"
)

const pingTimeout = 5 * time.Second

// Connect opens a Postgres connection and validates it with a ping.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for every persisted aggregate and
// the pg_trgm extension backing role search.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		return fmt.Errorf("enable pg_trgm: %w", err)
	}

	return db.AutoMigrate(
		&domain.User{},
		&domain.RefreshToken{},
		&domain.Suspension{},
		&domain.PendingDeletion{},
		&domain.Server{},
		&domain.ServerRole{},
		&domain.ServerMember{},
		&domain.MemberRole{},
	)
}
