package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clipstack/backend/internal/auth"
	"github.com/clipstack/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	identityContextKey = "clipstack_identity"

	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

var (
	errMissingSessionManager = errors.New("session manager dependency required")
	errMissingTokenVerifier  = errors.New("access token verifier dependency required")
	errMissingIdentityStore  = errors.New("identity store dependency required")
	errMissingUploader       = errors.New("media uploader dependency required")
	errMissingHasher         = errors.New("password hasher dependency required")
)

// SessionService is the session-lifecycle surface exposed by auth.SessionManager.
type SessionService interface {
	Login(ctx context.Context, username, email, password string) (auth.TokenPair, users.Profile, error)
	Refresh(ctx context.Context, presented string) (auth.TokenPair, error)
	Logout(ctx context.Context, identityID string) error
}

// AccessTokenVerifier validates access tokens presented on requests.
type AccessTokenVerifier interface {
	Verify(token string) (auth.TokenClaims, error)
}

// IdentityStore is the credential-store surface the handlers need directly.
type IdentityStore interface {
	Create(ctx context.Context, attrs users.NewIdentity) (users.Identity, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (users.Identity, error)
	FindByID(ctx context.Context, id string) (users.Identity, error)
}

// ObjectUploader hosts uploaded media and returns a public URL.
type ObjectUploader interface {
	Upload(ctx context.Context, body io.Reader, contentType string) (string, error)
}

// CookieConfig controls the attributes of the auth cookies.
type CookieConfig struct {
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// Dependencies wires the HTTP layer to its collaborators.
type Dependencies struct {
	Sessions   SessionService
	Tokens     AccessTokenVerifier
	Identities IdentityStore
	Uploader   ObjectUploader
	Hasher     *auth.PasswordHasher
	Cookies    CookieConfig
	Logger     *zap.Logger
}

// NewHTTPHandler builds the gin router with all account routes registered.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessionManager
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenVerifier
	}
	if deps.Identities == nil {
		return nil, errMissingIdentityStore
	}
	if deps.Uploader == nil {
		return nil, errMissingUploader
	}
	if deps.Hasher == nil {
		return nil, errMissingHasher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions:   deps.Sessions,
		tokens:     deps.Tokens,
		identities: deps.Identities,
		uploader:   deps.Uploader,
		hasher:     deps.Hasher,
		cookies:    deps.Cookies,
		logger:     logger,
	}

	router.GET("/healthz", handler.handleHealth)

	api := router.Group("/api/v1/users")
	api.POST("/register", handler.handleRegister)
	api.POST("/login", handler.handleLogin)
	api.POST("/refresh-token", handler.handleRefresh)

	protected := api.Group("/")
	protected.Use(handler.authenticate)
	protected.POST("/logout", handler.handleLogout)
	protected.GET("/me", handler.handleCurrentUser)

	return router, nil
}

type httpHandler struct {
	sessions   SessionService
	tokens     AccessTokenVerifier
	identities IdentityStore
	uploader   ObjectUploader
	hasher     *auth.PasswordHasher
	cookies    CookieConfig
	logger     *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"status": "ok"}, "OK")
}

// authenticate extracts a bearer token from the access cookie or the
// Authorization header, verifies it, resolves the identity, and attaches its
// profile to the request context. Stored refresh-token state is not consulted:
// an unexpired access token stays valid until its own expiry even after logout.
func (h *httpHandler) authenticate(c *gin.Context) {
	token := ""
	if cookie, err := c.Cookie(accessTokenCookie); err == nil {
		token = strings.TrimSpace(cookie)
	}
	if token == "" {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	if token == "" {
		respondError(c, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			h.logger.Info("access token expired")
		} else {
			h.logger.Warn("access token validation failed", zap.Error(err))
		}
		respondError(c, http.StatusUnauthorized, "Invalid access token")
		return
	}

	identity, err := h.identities.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrIdentityNotFound) {
			respondError(c, http.StatusUnauthorized, "Invalid access token")
			return
		}
		h.logger.Error("identity lookup failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	c.Set(identityContextKey, identity.Profile())
	c.Next()
}

func currentProfile(c *gin.Context) (users.Profile, bool) {
	value, ok := c.Get(identityContextKey)
	if !ok {
		return users.Profile{}, false
	}
	profile, ok := value.(users.Profile)
	return profile, ok
}

func (h *httpHandler) setAuthCookies(c *gin.Context, pair auth.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, pair.AccessToken, int(h.cookies.AccessMaxAge.Seconds()), "/", "", h.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, pair.RefreshToken, int(h.cookies.RefreshMaxAge.Seconds()), "/", "", h.cookies.Secure, true)
}

func (h *httpHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
}
