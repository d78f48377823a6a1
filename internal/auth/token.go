package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSigningSecret = errors.New("auth: signing secret required")
	ErrMissingSubject       = errors.New("auth: token subject required")
	ErrTokenExpired         = errors.New("auth: token expired")
	ErrTokenInvalid         = errors.New("auth: invalid token")
)

// TokenClaims carries the public identity attributes embedded in both access
// and refresh tokens. Access and refresh tokens share this shape and differ
// only in signing secret and expiry window.
type TokenClaims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// TokenIssuerConfig configures one signing context (access or refresh).
type TokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// TokenIssuer produces signed, time-bounded HS256 tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  func() time.Time
}

// NewTokenIssuer constructs an issuer; the signing secret and a positive TTL
// are required.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSigningSecret
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		secret: append([]byte(nil), cfg.SigningSecret...),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    cfg.TokenTTL,
		clock:  clock,
	}, nil
}

// Issue signs a token for the supplied claims and returns it with its
// remaining lifetime in seconds.
func (i *TokenIssuer) Issue(claims TokenClaims) (string, int64, error) {
	if strings.TrimSpace(claims.UserID) == "" {
		return "", 0, ErrMissingSubject
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.ttl)
	// The jti keeps tokens unique even when two are minted within the same
	// second for the same claims, which rotation depends on.
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		Issuer:    i.issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}

// TokenVerifierConfig configures one verification context (access or refresh).
type TokenVerifierConfig struct {
	SigningSecret []byte
	Clock         func() time.Time
}

// TokenVerifier validates HS256 tokens against a single secret. The caller
// picks the verifier matching the token's purpose; purpose is never inferred
// from the token itself.
type TokenVerifier struct {
	secret []byte
	clock  func() time.Time
}

// NewTokenVerifier constructs a verifier for the given secret.
func NewTokenVerifier(cfg TokenVerifierConfig) (*TokenVerifier, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSigningSecret
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenVerifier{
		secret: append([]byte(nil), cfg.SigningSecret...),
		clock:  clock,
	}, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// Expired tokens map to ErrTokenExpired; every other failure to ErrTokenInvalid.
func (v *TokenVerifier) Verify(tokenString string) (TokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return TokenClaims{}, ErrTokenInvalid
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrTokenInvalid, t.Method.Alg())
			}
			return v.secret, nil
		},
		jwt.WithTimeFunc(v.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if parsed == nil || !parsed.Valid {
		return TokenClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return TokenClaims{}, ErrTokenInvalid
	}
	return *claims, nil
}
