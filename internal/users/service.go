package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrIdentityNotFound indicates no identity matched the lookup.
	ErrIdentityNotFound = errors.New("users: identity not found")
	// ErrDuplicateIdentity indicates the username or email is already taken.
	ErrDuplicateIdentity = errors.New("users: username or email already registered")
	// ErrRefreshTokenStale indicates a conditional rotation found a different
	// stored token than the one presented, meaning another rotation or a
	// logout landed first.
	ErrRefreshTokenStale = errors.New("users: stored refresh token changed")
)

// NewIdentity carries the attributes required to create an account record.
// PasswordHash must already be hashed; the store never sees plaintext.
type NewIdentity struct {
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
}

// ServiceConfig describes the dependencies for the identity store.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider func() string
}

// Service persists and resolves account identities.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

// NewService constructs the identity store service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	idProvider := cfg.IDProvider
	if idProvider == nil {
		idProvider = func() string { return uuid.NewString() }
	}
	return &Service{
		db:    cfg.Database,
		now:   clock,
		newID: idProvider,
	}, nil
}

// Create inserts a new identity after checking username/email uniqueness.
// Username and email are stored lowercased and trimmed.
func (s *Service) Create(ctx context.Context, attrs NewIdentity) (Identity, error) {
	username := normalize(attrs.Username)
	email := normalize(attrs.Email)

	var existing Identity
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		First(&existing).
		Error
	if err == nil {
		return Identity{}, ErrDuplicateIdentity
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, err
	}

	identity := Identity{
		ID:            s.newID(),
		Username:      username,
		Email:         email,
		FullName:      strings.TrimSpace(attrs.FullName),
		PasswordHash:  attrs.PasswordHash,
		AvatarURL:     attrs.AvatarURL,
		CoverImageURL: attrs.CoverImageURL,
		CreatedAt:     s.now(),
		UpdatedAt:     s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&identity).Error; err != nil {
		// The unique indexes back up the lookup above under concurrent inserts.
		return Identity{}, err
	}
	return identity, nil
}

// FindByUsernameOrEmail resolves an identity by either handle. Both arguments
// are normalized before matching; empty strings never match.
func (s *Service) FindByUsernameOrEmail(ctx context.Context, username, email string) (Identity, error) {
	username = normalize(username)
	email = normalize(email)

	query := s.db.WithContext(ctx)
	switch {
	case username != "" && email != "":
		query = query.Where("username = ? OR email = ?", username, email)
	case username != "":
		query = query.Where("username = ?", username)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		return Identity{}, ErrIdentityNotFound
	}

	var identity Identity
	if err := query.First(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, err
	}
	return identity, nil
}

// FindByID resolves an identity by its opaque id.
func (s *Service) FindByID(ctx context.Context, id string) (Identity, error) {
	var identity Identity
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, ErrIdentityNotFound
	}
	if err != nil {
		return Identity{}, err
	}
	return identity, nil
}

// UpdateRefreshToken overwrites the stored refresh token unconditionally.
// Used on login, where the caller has just re-verified the password.
func (s *Service) UpdateRefreshToken(ctx context.Context, id, token string) error {
	result := s.db.WithContext(ctx).
		Model(&Identity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"refresh_token": token,
			"updated_at":    s.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// RotateRefreshToken replaces the stored refresh token only if it still equals
// previous. A zero-row update means a concurrent rotation or logout won, and
// the presented token must be treated as already used.
func (s *Service) RotateRefreshToken(ctx context.Context, id, previous, next string) error {
	result := s.db.WithContext(ctx).
		Model(&Identity{}).
		Where("id = ? AND refresh_token = ?", id, previous).
		Updates(map[string]interface{}{
			"refresh_token": next,
			"updated_at":    s.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRefreshTokenStale
	}
	return nil
}

// ClearRefreshToken removes the stored refresh token, revoking the session.
func (s *Service) ClearRefreshToken(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&Identity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"refresh_token": "",
			"updated_at":    s.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIdentityNotFound
	}
	return nil
}
