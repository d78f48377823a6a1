package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clipstack/backend/internal/users"
)

var (
	// ErrMissingCredentials indicates neither username nor email was supplied.
	ErrMissingCredentials = errors.New("auth: username or email required")
	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrMissingRefreshToken indicates no refresh token was presented.
	ErrMissingRefreshToken = errors.New("auth: refresh token required")
	// ErrInvalidRefreshToken indicates a malformed, expired, or unresolvable
	// refresh token.
	ErrInvalidRefreshToken = errors.New("auth: invalid refresh token")
	// ErrRefreshTokenUsed indicates a well-formed refresh token that no longer
	// matches the stored value: it was rotated away or revoked by logout.
	ErrRefreshTokenUsed = errors.New("auth: refresh token expired or used")
)

// IdentityStore is the credential-store surface the session manager needs.
// *users.Service satisfies it.
type IdentityStore interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (users.Identity, error)
	FindByID(ctx context.Context, id string) (users.Identity, error)
	UpdateRefreshToken(ctx context.Context, id, token string) error
	RotateRefreshToken(ctx context.Context, id, previous, next string) error
	ClearRefreshToken(ctx context.Context, id string) error
}

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresIn int64
}

// SessionManagerConfig wires the session manager's collaborators. Access and
// refresh tokens use independent issuer configurations so a compromised
// access secret cannot forge refresh tokens.
type SessionManagerConfig struct {
	Store           IdentityStore
	Hasher          *PasswordHasher
	AccessIssuer    *TokenIssuer
	RefreshIssuer   *TokenIssuer
	RefreshVerifier *TokenVerifier
}

// SessionManager orchestrates login, refresh, and logout over the credential
// store and the token issuer/verifier pair.
type SessionManager struct {
	store           IdentityStore
	hasher          *PasswordHasher
	accessIssuer    *TokenIssuer
	refreshIssuer   *TokenIssuer
	refreshVerifier *TokenVerifier
}

// NewSessionManager constructs a session manager; all collaborators are required.
func NewSessionManager(cfg SessionManagerConfig) (*SessionManager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("auth: identity store required")
	}
	if cfg.Hasher == nil {
		return nil, fmt.Errorf("auth: password hasher required")
	}
	if cfg.AccessIssuer == nil || cfg.RefreshIssuer == nil {
		return nil, fmt.Errorf("auth: access and refresh issuers required")
	}
	if cfg.RefreshVerifier == nil {
		return nil, fmt.Errorf("auth: refresh verifier required")
	}
	return &SessionManager{
		store:           cfg.Store,
		hasher:          cfg.Hasher,
		accessIssuer:    cfg.AccessIssuer,
		refreshIssuer:   cfg.RefreshIssuer,
		refreshVerifier: cfg.RefreshVerifier,
	}, nil
}

// Login verifies credentials and issues a fresh token pair. The new refresh
// token overwrites any previously stored one, revoking earlier sessions.
// Nothing is persisted unless every check passes.
func (m *SessionManager) Login(ctx context.Context, username, email, password string) (TokenPair, users.Profile, error) {
	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return TokenPair{}, users.Profile{}, ErrMissingCredentials
	}

	identity, err := m.store.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return TokenPair{}, users.Profile{}, err
	}

	if err := m.hasher.Verify(password, identity.PasswordHash); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return TokenPair{}, users.Profile{}, ErrInvalidCredentials
		}
		return TokenPair{}, users.Profile{}, err
	}

	pair, err := m.issuePair(identity)
	if err != nil {
		return TokenPair{}, users.Profile{}, err
	}
	if err := m.store.UpdateRefreshToken(ctx, identity.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, users.Profile{}, err
	}
	return pair, identity.Profile(), nil
}

// Refresh rotates the presented refresh token into a new pair. The presented
// token must verify against the refresh secret and match the stored value
// exactly; a stale token fails even when cryptographically valid. Rotation is
// a conditional update, so two concurrent refreshes with the same token
// cannot both succeed.
func (m *SessionManager) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return TokenPair{}, ErrMissingRefreshToken
	}

	claims, err := m.refreshVerifier.Verify(presented)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	identity, err := m.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrIdentityNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, err
	}

	if identity.RefreshToken == "" || identity.RefreshToken != presented {
		return TokenPair{}, ErrRefreshTokenUsed
	}

	pair, err := m.issuePair(identity)
	if err != nil {
		return TokenPair{}, err
	}
	if err := m.store.RotateRefreshToken(ctx, identity.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, users.ErrRefreshTokenStale) {
			return TokenPair{}, ErrRefreshTokenUsed
		}
		return TokenPair{}, err
	}
	return pair, nil
}

// Logout clears the stored refresh token so any outstanding refresh token
// fails permanently until the next login. Already-issued access tokens remain
// valid until their own expiry; only the refresh path consults stored state.
func (m *SessionManager) Logout(ctx context.Context, identityID string) error {
	return m.store.ClearRefreshToken(ctx, identityID)
}

func (m *SessionManager) issuePair(identity users.Identity) (TokenPair, error) {
	claims := TokenClaims{
		UserID:   identity.ID,
		Email:    identity.Email,
		Username: identity.Username,
		FullName: identity.FullName,
	}
	access, expiresIn, err := m.accessIssuer.Issue(claims)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := m.refreshIssuer.Issue(claims)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresIn: expiresIn,
	}, nil
}
