package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/moneta/backend/internal/infrastructure/auth"
)

// AuthService handles registration, login and token refresh
type AuthService struct {
	userRepo     identity.UserRepository
	jwtService   *auth.JWTService
	verification *VerificationService
	logger       *zap.Logger
}

// NewAuthService creates a new authentication service. verification may be
// nil, in which case registration does not send a verification mail.
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	verification *VerificationService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		jwtService:   jwtService,
		verification: verification,
		logger:       logger,
	}
}

// Register creates a new user and issues a token pair. A verification mail
// is sent best-effort; registration succeeds even when it cannot be sent.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to register user")
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
	}

	user, err := identity.NewUser(input.Email, input.Password, input.FirstName, input.LastName)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save new user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to register user")
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	if s.verification != nil {
		if err := s.verification.RequestEmailVerification(ctx, user.ID); err != nil {
			s.logger.Warn("Failed to send verification mail after registration",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
	}

	return s.issueTokens(user)
}

// Login authenticates a user and returns a token pair. Unverified users may
// log in; the result carries EmailVerified=false.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Warn("Login attempt for unknown email", zap.String("email", input.Email))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if !user.IsActive() {
		s.logger.Warn("Login attempt for locked account", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked")
	}

	if !user.CheckPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.issueTokens(user)
}

// RefreshToken exchanges a valid refresh token for a new token pair.
// Refresh tokens minted before the last password change are rejected.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return nil, shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
		default:
			return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
		}
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("User not found during token refresh", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}

	if claims.TokenVersion != user.TokenVersion {
		s.logger.Warn("Stale refresh token rejected",
			zap.String("user_id", userID.String()),
			zap.Int("token_version", claims.TokenVersion),
			zap.Int("current_version", user.TokenVersion))
		return nil, shared.NewDomainError("TOKEN_INVALID", "Session is no longer valid, please log in again")
	}

	if !user.IsActive() {
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked")
	}

	s.logger.Info("Token refreshed", zap.String("user_id", user.ID.String()))
	return s.issueTokens(user)
}

// Logout is a no-op for stateless access tokens; refresh tokens die on
// their own or when token_version is bumped.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	s.logger.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

// GetCurrentUser returns the authenticated user's profile
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	info := userInfo(user)
	return &info, nil
}

// ChangePassword changes a user's password after verifying the old one.
// Outstanding refresh tokens are invalidated.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if !user.CheckPassword(input.OldPassword) {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Current password is incorrect")
	}

	if err := user.ChangePassword(input.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save user after password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to change password")
	}

	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) issueTokens(user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  userInfo(user),
	}, nil
}

func userInfo(user *identity.User) UserInfo {
	return UserInfo{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		EmailVerified: user.IsEmailVerified(),
	}
}
