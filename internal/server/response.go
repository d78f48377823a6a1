package server

import (
	"errors"
	"net/http"

	"github.com/clipstack/backend/internal/auth"
	"github.com/clipstack/backend/internal/users"
	"github.com/gin-gonic/gin"
)

// successBody is the envelope for successful responses.
type successBody struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// errorBody is the envelope for failed responses. Data is always null and
// Errors carries field-level detail when available.
type errorBody struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors"`
}

func respondSuccess(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, successBody{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func respondError(c *gin.Context, status int, message string, fieldErrors ...string) {
	if fieldErrors == nil {
		fieldErrors = []string{}
	}
	c.AbortWithStatusJSON(status, errorBody{
		StatusCode: status,
		Data:       nil,
		Message:    message,
		Success:    false,
		Errors:     fieldErrors,
	})
}

// respondDomainError maps typed domain errors onto request-level failures.
// Unknown errors become an opaque 500; internals never leak into the message.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		respondError(c, http.StatusBadRequest, "Username or email is required")
	case errors.Is(err, users.ErrIdentityNotFound):
		respondError(c, http.StatusNotFound, "User does not exist")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid user credentials")
	case errors.Is(err, auth.ErrMissingRefreshToken):
		respondError(c, http.StatusUnauthorized, "Unauthorized request")
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		respondError(c, http.StatusUnauthorized, "Invalid refresh token")
	case errors.Is(err, auth.ErrRefreshTokenUsed):
		respondError(c, http.StatusUnauthorized, "Refresh token is expired or used")
	case errors.Is(err, users.ErrDuplicateIdentity):
		respondError(c, http.StatusConflict, "User with email or username already exists")
	default:
		respondError(c, http.StatusInternalServerError, "Something went wrong")
	}
}
