// Package services contains server-side business logic. This file implements
// UserService: registration, credential verification, token issuance, and
// account maintenance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ymatrosov/linkstash/internal/common"
	"github.com/ymatrosov/linkstash/internal/dbx"
	"github.com/ymatrosov/linkstash/internal/server/auth"
	"github.com/ymatrosov/linkstash/internal/server/config"
	"github.com/ymatrosov/linkstash/internal/server/models"
	"github.com/ymatrosov/linkstash/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - Register: create accounts
// - ValidateCredentials: verify email/password pairs
// - Login: mint access tokens for a verified identity
// - GetMe / UpdateMe / DeleteMe: self-service account maintenance
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// UpdateMeInput carries the optional account changes. A nil field leaves the
// stored value untouched.
type UpdateMeInput struct {
	Email    *string
	Password *string
}

// normalizeEmail lowercases and trims the address. Email comparison is
// case-normalized end to end: the same normalization runs at registration
// and at lookup, so uniqueness and login agree on what "the same email" is.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account. The plaintext password is hashed
// immediately and never stored or logged. A colliding email yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrorValidation
	}

	digest, err := auth.HashPassword([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: digest}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	u.PasswordHash = ""
	return u, nil
}

// ValidateCredentials verifies an email/password pair. Unknown email and
// wrong password are indistinguishable: both yield common.ErrorUnauthorized.
// The returned user has its password hash stripped.
func (s *UserService) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !auth.CheckPassword([]byte(password), user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	user.PasswordHash = ""
	return user, nil
}

// Login mints an access token for an already-verified identity.
func (s *UserService) Login(ctx context.Context, id auth.Identity) (string, error) {
	token, err := auth.GenerateToken(id.UserID, id.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// GetMe returns the caller's account with the password hash stripped.
func (s *UserService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateMe applies a partial account change. Nil fields keep the stored
// values; supplied fields must be non-empty.
func (s *UserService) UpdateMe(ctx context.Context, userID string, input UpdateMeInput) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, common.ErrorValidation
		}
		user.Email = email
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, common.ErrorValidation
		}
		digest, err := auth.HashPassword([]byte(*input.Password))
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.PasswordHash = digest
	}

	if err := repo.Update(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// DeleteMe removes the account and all links it owns in one transaction.
func (s *UserService) DeleteMe(ctx context.Context, userID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Links(tx).DeleteAllForOwner(ctx, userID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, userID)
	})
}
