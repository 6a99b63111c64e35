package identity

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/moneta/backend/internal/infrastructure/config"
	"github.com/moneta/backend/internal/infrastructure/mail"
)

// PasswordResetService issues and consumes password-reset tokens
type PasswordResetService struct {
	userRepo    identity.UserRepository
	tokenStore  identity.TokenStore
	rateLimiter identity.RateLimiter
	mailer      mail.Mailer
	tokenCfg    config.TokenConfig
	baseURL     string
	logger      *zap.Logger
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(
	userRepo identity.UserRepository,
	tokenStore identity.TokenStore,
	rateLimiter identity.RateLimiter,
	mailer mail.Mailer,
	tokenCfg config.TokenConfig,
	baseURL string,
	logger *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		userRepo:    userRepo,
		tokenStore:  tokenStore,
		rateLimiter: rateLimiter,
		mailer:      mailer,
		tokenCfg:    tokenCfg,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// RequestPasswordReset issues a reset token for the account behind email.
// The outcome is identical whether or not the email exists, so callers
// cannot probe for registered addresses.
func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	allowed, err := s.rateLimiter.Allow(ctx, "reset:"+email,
		s.tokenCfg.ResetRateLimit, s.tokenCfg.RateLimitWindow)
	if err != nil {
		s.logger.Error("Rate limiter failure on reset request", zap.Error(err))
		return nil
	}
	if !allowed {
		s.logger.Warn("Password reset rate limited", zap.String("email", email))
		return shared.ErrRateLimited
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		// Unknown email gets the same response as a known one
		s.logger.Info("Password reset requested for unknown email")
		return nil
	}

	raw, err := newRawToken()
	if err != nil {
		s.logger.Error("Failed to generate reset token", zap.Error(err))
		return nil
	}

	if err := s.tokenStore.Put(ctx, identity.TokenPurposePasswordReset,
		digestToken(raw), user.ID, s.tokenCfg.ResetTTL); err != nil {
		s.logger.Error("Failed to store reset token", zap.Error(err))
		return nil
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, raw)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hi %s,\n\nA password reset was requested for your account. Open the link below to choose a new password:\n\n%s\n\nThe link expires in %s. If you did not request a reset, ignore this mail; your password is unchanged.\n",
			user.FirstName, link, s.tokenCfg.ResetTTL),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send reset mail", zap.Error(err))
	}

	s.logger.Info("Password reset mail sent", zap.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword consumes a reset token and sets the new password. All
// outstanding refresh tokens are invalidated via the token version bump.
func (s *PasswordResetService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.Token == "" {
		return shared.ErrTokenInvalid
	}

	userID, err := s.tokenStore.Consume(ctx, identity.TokenPurposePasswordReset, digestToken(input.Token))
	if err != nil {
		return shared.ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error("Reset token consumed for missing user", zap.String("user_id", userID.String()))
		return shared.ErrTokenInvalid
	}

	if err := user.ChangePassword(input.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save user after password reset", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to reset password")
	}

	s.logger.Info("Password reset completed", zap.String("user_id", user.ID.String()))
	return nil
}
