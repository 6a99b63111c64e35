package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/moneta/backend/internal/application/identity"
)

// AuthHandler handles authentication, email verification and password reset
type AuthHandler struct {
	BaseHandler
	authService     *identity.AuthService
	verification    *identity.VerificationService
	passwordReset   *identity.PasswordResetService
	authMiddlewares []gin.HandlerFunc
}

// NewAuthHandler creates a new auth handler. authMiddlewares (typically a
// stricter rate limit) are applied to the unauthenticated auth endpoints.
func NewAuthHandler(
	authService *identity.AuthService,
	verification *identity.VerificationService,
	passwordReset *identity.PasswordResetService,
	authMiddlewares ...gin.HandlerFunc,
) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		verification:    verification,
		passwordReset:   passwordReset,
		authMiddlewares: authMiddlewares,
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	if len(h.authMiddlewares) > 0 {
		auth.Use(h.authMiddlewares...)
	}
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
		auth.POST("/change-password", h.ChangePassword)

		auth.POST("/verify-email", h.RequestEmailVerification)
		auth.POST("/verify-email/confirm", h.ConfirmEmail)

		auth.POST("/password-reset", h.RequestPasswordReset)
		auth.POST("/password-reset/confirm", h.ConfirmPasswordReset)
	}
}

// Register creates a new user account and returns a token pair
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, authResponse(result))
}

// Login authenticates a user with email and password
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, authResponse(result))
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), identity.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, authResponse(result))
}

// Logout logs the user out
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	info, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, userResponse(*info))
}

// ChangePassword changes the authenticated user's password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RequestEmailVerification sends a fresh verification mail to the user
func (h *AuthHandler) RequestEmailVerification(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.verification.RequestEmailVerification(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, gin.H{"message": "Verification mail sent"})
}

// ConfirmEmail marks the user's email as verified using a mailed token
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	var req ConfirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.verification.ConfirmEmail(c.Request.Context(), req.Token); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Email verified"})
}

// RequestPasswordReset sends a reset mail. The response never reveals
// whether the address is registered.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.passwordReset.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, gin.H{"message": "If the address is registered, a reset mail has been sent"})
}

// ConfirmPasswordReset sets a new password using a mailed reset token
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.passwordReset.ResetPassword(c.Request.Context(), identity.ResetPasswordInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	}); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Password has been reset"})
}

func authResponse(result *identity.AuthResult) AuthResponse {
	return AuthResponse{
		Token: TokenResponse{
			AccessToken:           result.AccessToken,
			RefreshToken:          result.RefreshToken,
			AccessTokenExpiresAt:  result.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: result.RefreshTokenExpiresAt,
			TokenType:             result.TokenType,
		},
		User: userResponse(result.User),
	}
}

func userResponse(info identity.UserInfo) UserResponse {
	return UserResponse{
		ID:            info.ID,
		Email:         info.Email,
		FirstName:     info.FirstName,
		LastName:      info.LastName,
		EmailVerified: info.EmailVerified,
	}
}
