package users

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var serviceTestSequence int

func newTestService(t *testing.T) *Service {
	t.Helper()

	serviceTestSequence++
	dsn := fmt.Sprintf("file:users_service_%d?mode=memory&cache=shared", serviceTestSequence)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Identity{}); err != nil {
		t.Fatalf("failed to migrate identity schema: %v", err)
	}

	service, err := NewService(ServiceConfig{
		Database: db,
		Clock: func() time.Time {
			return time.Unix(1_700_000_000, 0).UTC()
		},
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func createTestIdentity(t *testing.T, service *Service) Identity {
	t.Helper()

	identity, err := service.Create(context.Background(), NewIdentity{
		Username:     "Alice",
		Email:        "A@X.com",
		FullName:     " Alice A ",
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		AvatarURL:    "https://cdn.example.com/avatar.png",
	})
	if err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}
	return identity
}

func TestCreateNormalizesUsernameAndEmail(t *testing.T) {
	service := newTestService(t)

	identity := createTestIdentity(t, service)
	if identity.Username != "alice" {
		t.Fatalf("expected lowercased username, got %q", identity.Username)
	}
	if identity.Email != "a@x.com" {
		t.Fatalf("expected lowercased email, got %q", identity.Email)
	}
	if identity.FullName != "Alice A" {
		t.Fatalf("expected trimmed full name, got %q", identity.FullName)
	}
	if identity.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestCreateRejectsDuplicateUsernameOrEmail(t *testing.T) {
	service := newTestService(t)
	createTestIdentity(t, service)

	_, err := service.Create(context.Background(), NewIdentity{
		Username:     "ALICE",
		Email:        "other@x.com",
		FullName:     "Other",
		PasswordHash: "hash",
		AvatarURL:    "https://cdn.example.com/other.png",
	})
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity for duplicate username, got %v", err)
	}

	_, err = service.Create(context.Background(), NewIdentity{
		Username:     "bob",
		Email:        "a@x.com",
		FullName:     "Bob B",
		PasswordHash: "hash",
		AvatarURL:    "https://cdn.example.com/bob.png",
	})
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity for duplicate email, got %v", err)
	}
}

func TestFindByUsernameOrEmailMatchesEitherHandle(t *testing.T) {
	service := newTestService(t)
	created := createTestIdentity(t, service)

	byUsername, err := service.FindByUsernameOrEmail(context.Background(), "ALICE", "")
	if err != nil {
		t.Fatalf("lookup by username failed: %v", err)
	}
	if byUsername.ID != created.ID {
		t.Fatalf("unexpected identity %q", byUsername.ID)
	}

	byEmail, err := service.FindByUsernameOrEmail(context.Background(), "", "a@x.com")
	if err != nil {
		t.Fatalf("lookup by email failed: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("unexpected identity %q", byEmail.ID)
	}

	if _, err := service.FindByUsernameOrEmail(context.Background(), "", ""); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound for empty handles, got %v", err)
	}
	if _, err := service.FindByUsernameOrEmail(context.Background(), "ghost", ""); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound for unknown username, got %v", err)
	}
}

func TestRotateRefreshTokenIsConditional(t *testing.T) {
	service := newTestService(t)
	created := createTestIdentity(t, service)

	if err := service.UpdateRefreshToken(context.Background(), created.ID, "token-1"); err != nil {
		t.Fatalf("failed to store refresh token: %v", err)
	}

	if err := service.RotateRefreshToken(context.Background(), created.ID, "token-1", "token-2"); err != nil {
		t.Fatalf("expected conditional rotation to succeed: %v", err)
	}

	// The first token was consumed; a second rotation keyed on it must fail.
	err := service.RotateRefreshToken(context.Background(), created.ID, "token-1", "token-3")
	if !errors.Is(err, ErrRefreshTokenStale) {
		t.Fatalf("expected ErrRefreshTokenStale, got %v", err)
	}

	identity, err := service.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if identity.RefreshToken != "token-2" {
		t.Fatalf("expected stored token-2, got %q", identity.RefreshToken)
	}
}

func TestClearRefreshTokenRemovesStoredValue(t *testing.T) {
	service := newTestService(t)
	created := createTestIdentity(t, service)

	if err := service.UpdateRefreshToken(context.Background(), created.ID, "token-1"); err != nil {
		t.Fatalf("failed to store refresh token: %v", err)
	}
	if err := service.ClearRefreshToken(context.Background(), created.ID); err != nil {
		t.Fatalf("failed to clear refresh token: %v", err)
	}

	identity, err := service.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if identity.RefreshToken != "" {
		t.Fatalf("expected cleared refresh token, got %q", identity.RefreshToken)
	}

	if err := service.ClearRefreshToken(context.Background(), "missing-id"); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound for unknown identity, got %v", err)
	}
}

func TestProfileExcludesSensitiveFields(t *testing.T) {
	service := newTestService(t)
	created := createTestIdentity(t, service)

	if err := service.UpdateRefreshToken(context.Background(), created.ID, "token-1"); err != nil {
		t.Fatalf("failed to store refresh token: %v", err)
	}
	identity, err := service.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	profile := identity.Profile()
	if profile.ID != identity.ID || profile.Username != identity.Username {
		t.Fatalf("unexpected projection %+v", profile)
	}
	// Profile has no hash or token fields; confirm the values themselves do
	// not ride along in any serialized form of the projection.
	if profile.AvatarURL != identity.AvatarURL || profile.CoverImageURL != identity.CoverImageURL {
		t.Fatalf("expected media references preserved in projection")
	}
}
