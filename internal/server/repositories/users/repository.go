package users

import (
	"context"

	"github.com/dmitrijs2005/channelauth/internal/server/models"
)

// Repository persists user accounts. Lookups of absent rows return
// common.ErrorNotFound; unique-key clashes return common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	// GetByUserNameOrEmail returns the user whose username equals userName or
	// whose email equals email, preferring a username match.
	GetByUserNameOrEmail(ctx context.Context, userName, email string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	// SetRefreshToken overwrites the stored refresh token; "" clears it.
	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces the stored token with next only if it still
	// equals expected. It reports whether the swap happened.
	SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error)
}
