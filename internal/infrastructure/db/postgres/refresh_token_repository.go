package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

type refreshTokenRepository struct {
	db    *gorm.DB
	clock ports.Clock
}

func NewRefreshTokenRepository(db *gorm.DB, clock ports.Clock) ports.RefreshTokenRepository {
	return &refreshTokenRepository{db: db, clock: clock}
}

// Rotate invalidates every active token for the user and inserts the new
// one inside a single transaction. The FOR UPDATE lock on the user row
// serializes concurrent rotations for the same user, so two refresh calls
// can never leave two active tokens behind.
func (r *refreshTokenRepository) Rotate(ctx context.Context, userID, token string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner domain.User
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", userID).
			First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}

		now := r.clock.Now()
		if err := tx.
			Model(&domain.RefreshToken{}).
			Where("user_id = ? AND invalidated IS NULL", userID).
			Update("invalidated", now).Error; err != nil {
			return err
		}

		return tx.Create(&domain.RefreshToken{
			ID:     uuid.NewString(),
			UserID: userID,
			Token:  token,
			Issued: now,
		}).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) Resolve(ctx context.Context, token string) (string, error) {
	var row domain.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND invalidated IS NULL", token).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("resolve refresh token: %w", err)
	}
	return row.UserID, nil
}
