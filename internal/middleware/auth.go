package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "auctus/internal/errors"
	"auctus/internal/token"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// AuthMiddleware verifies the bearer access token and sets the principal in
// the context. A missing or malformed Authorization header is 401; a token
// that fails verification (bad signature, expired, or a refresh token
// presented as an access token) is 403.
func AuthMiddleware(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithAppError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "No token provided"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortWithAppError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := tokens.VerifyAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithAppError(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
