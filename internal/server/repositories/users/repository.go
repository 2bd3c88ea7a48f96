// Package users provides storage for registered accounts.
package users

import (
	"context"

	"github.com/ymatrosov/linkstash/internal/server/models"
)

// Repository is the abstract account store consumed by the services layer.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
