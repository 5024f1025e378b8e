package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "auctus/internal/errors"
	"auctus/internal/middleware"
	"auctus/internal/models"
	"auctus/internal/services"
	"auctus/internal/token"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	users  services.UserServicer
	resets services.PasswordResetServicer
	audit  services.AuditServicer
	tokens *token.Manager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users services.UserServicer, resets services.PasswordResetServicer, audit services.AuditServicer, tokens *token.Manager) *AuthHandler {
	return &AuthHandler{users: users, resets: resets, audit: audit, tokens: tokens}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email,max=255"`
	Username        string `json:"username" binding:"required,username"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token presented for renewal.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ForgotPasswordRequest carries the address a reset link is requested for.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries a raw reset token and the replacement password.
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// userJSON shapes the user object returned by the auth endpoints.
func userJSON(user *models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"email":          user.Email,
		"username":       user.Username,
		"created_at":     user.CreatedAt,
		"is_active":      user.IsActive,
		"email_verified": user.EmailVerified,
		"last_login":     user.LastLogin,
	}
}

// issueTokenPair signs the access/refresh pair for a user.
func (h *AuthHandler) issueTokenPair(user *models.User) (access, refresh string, err error) {
	access, err = h.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refresh, err = h.tokens.IssueRefresh(user.ID)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return access, refresh, nil
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user with email, username and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} map[string]interface{} "User registered and token pair generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate email or username"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.users.CreateUser(req.Email, req.Username, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	access, refresh, err := h.issueTokenPair(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(user.ID, services.AuditRegistered, user.Email, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{
		"user":         userJSON(user),
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} map[string]interface{} "User authenticated and token pair generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Account inactive"
// @Failure     429 {object} ErrorResponse "Account locked"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.users.AttemptLogin(req.Email, req.Password)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case apperrors.ErrAccountLocked.Code:
				h.audit.Log("", services.AuditLoginLocked, req.Email, c.ClientIP(), nil)
			case apperrors.ErrInvalidCredentials.Code:
				h.audit.Log("", services.AuditLoginFailed, req.Email, c.ClientIP(), nil)
			}
		}
		respondWithError(c, err)
		return
	}

	access, refresh, err := h.issueTokenPair(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(user.ID, services.AuditLoginSuccess, user.Email, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{
		"user":         userJSON(user),
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

// Refresh exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated.
// @Summary     Refresh access token
// @Description Exchange a refresh token for a new access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} map[string]interface{} "New access token"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid refresh token"
// @Failure     403 {object} ErrorResponse "Account inactive"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Refresh token is required"))
		return
	}

	claims, err := h.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired refresh token"))
		return
	}

	// The token may outlive the account; re-check the user before issuing.
	user, err := h.users.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "User not found"))
		return
	}
	if !user.IsActive {
		respondWithError(c, apperrors.ErrAccountInactive)
		return
	}

	access, err := h.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

// Logout confirms a logout. Tokens are stateless, so there is nothing to
// revoke server-side; clients discard their pair.
// @Summary     Logout user
// @Description Confirm logout; the client discards its tokens
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Logged out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(userID, services.AuditLogout, c.GetString(middleware.ContextEmail), c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the authenticated user's profile.
// @Summary     Get current user
// @Description Get the authenticated user's profile information
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.users.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
}

// genericResetMessage is returned whether or not the email is registered,
// so the endpoint cannot be used to enumerate accounts.
const genericResetMessage = "If an account exists for that email, a reset link has been sent."

// ForgotPassword requests a password-reset email.
// @Summary     Request password reset
// @Description Send a password-reset link if the email is registered
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     200 {object} map[string]interface{} "Generic confirmation"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Delivery failure"
// @Router      /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Email is required"))
		return
	}

	if err := h.resets.RequestReset(req.Email); err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("", services.AuditResetRequested, req.Email, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": genericResetMessage})
}

// ResetPassword redeems a reset token and sets the new password.
// @Summary     Reset password
// @Description Redeem a reset token and set a new password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResetPasswordRequest true "Reset token and new password"
// @Success     200 {object} map[string]interface{} "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid, used, or expired token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.resets.ResetPassword(req.Token, req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log("", services.AuditResetCompleted, "", c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
}
