package server

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/clipstack/backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerForm struct {
	FullName string `form:"fullName"`
	Email    string `form:"email"`
	Username string `form:"username"`
	Password string `form:"password"`
}

func (f registerForm) missingFields() []string {
	var missing []string
	if strings.TrimSpace(f.FullName) == "" {
		missing = append(missing, "fullName is required")
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, "email is required")
	}
	if strings.TrimSpace(f.Username) == "" {
		missing = append(missing, "username is required")
	}
	if strings.TrimSpace(f.Password) == "" {
		missing = append(missing, "password is required")
	}
	return missing
}

// handleRegister creates an account from a multipart form carrying the
// profile fields plus a required avatar file and an optional cover image.
func (h *httpHandler) handleRegister(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		respondError(c, http.StatusBadRequest, "All fields are required")
		return
	}
	if missing := form.missingFields(); len(missing) > 0 {
		respondError(c, http.StatusBadRequest, "All fields are required", missing...)
		return
	}

	// Reject duplicates before touching object storage.
	_, err := h.identities.FindByUsernameOrEmail(c.Request.Context(), form.Username, form.Email)
	if err == nil {
		respondError(c, http.StatusConflict, "User with email or username already exists")
		return
	}

	avatarHeader, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Avatar file is required")
		return
	}
	avatarURL, err := h.uploadFile(c, avatarHeader)
	if err != nil {
		h.logger.Warn("avatar upload failed", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Avatar file is required")
		return
	}

	coverURL := ""
	if coverHeader, err := c.FormFile("coverImage"); err == nil {
		url, err := h.uploadFile(c, coverHeader)
		if err != nil {
			// Cover image is optional; an upload failure leaves it empty.
			h.logger.Warn("cover image upload failed", zap.Error(err))
		} else {
			coverURL = url
		}
	}

	passwordHash, err := h.hasher.Hash(form.Password)
	if err != nil {
		h.logger.Error("password hashing failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	identity, err := h.identities.Create(c.Request.Context(), users.NewIdentity{
		Username:      form.Username,
		Email:         form.Email,
		FullName:      form.FullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, identity.Profile(), "User registered successfully")
}

func (h *httpHandler) uploadFile(c *gin.Context, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	return h.uploader.Upload(c.Request.Context(), file, header.Header.Get("Content-Type"))
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User users.Profile `json:"user"`
	tokenPairResponse
}

// handleLogin verifies credentials, persists the fresh refresh token, and
// delivers the pair both as HTTP-only cookies and in the response body for
// non-cookie clients.
func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "Username or email is required")
		return
	}

	pair, profile, err := h.sessions.Login(c.Request.Context(), request.Username, request.Email, request.Password)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	respondSuccess(c, http.StatusOK, loginResponse{
		User: profile,
		tokenPairResponse: tokenPairResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
	}, "User logged in successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// handleRefresh rotates the presented refresh token into a new pair. The
// token is read from the refresh cookie first, then the JSON body.
func (h *httpHandler) handleRefresh(c *gin.Context) {
	presented := ""
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
		presented = strings.TrimSpace(cookie)
	}
	if presented == "" {
		var request refreshRequest
		if err := c.ShouldBindJSON(&request); err == nil {
			presented = strings.TrimSpace(request.RefreshToken)
		}
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), presented)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	respondSuccess(c, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

// handleLogout revokes the stored refresh token and clears both cookies.
func (h *httpHandler) handleLogout(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), profile.ID); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		respondDomainError(c, err)
		return
	}

	h.clearAuthCookies(c)
	respondSuccess(c, http.StatusOK, nil, "User logged out successfully")
}

// handleCurrentUser returns the authenticated identity's profile.
func (h *httpHandler) handleCurrentUser(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized request")
		return
	}
	respondSuccess(c, http.StatusOK, profile, "Current user fetched successfully")
}
