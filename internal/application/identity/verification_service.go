package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/moneta/backend/internal/infrastructure/config"
	"github.com/moneta/backend/internal/infrastructure/mail"
)

// VerificationService issues and consumes email-verification tokens
type VerificationService struct {
	userRepo    identity.UserRepository
	tokenStore  identity.TokenStore
	rateLimiter identity.RateLimiter
	mailer      mail.Mailer
	tokenCfg    config.TokenConfig
	baseURL     string
	logger      *zap.Logger
}

// NewVerificationService creates a new email verification service
func NewVerificationService(
	userRepo identity.UserRepository,
	tokenStore identity.TokenStore,
	rateLimiter identity.RateLimiter,
	mailer mail.Mailer,
	tokenCfg config.TokenConfig,
	baseURL string,
	logger *zap.Logger,
) *VerificationService {
	return &VerificationService{
		userRepo:    userRepo,
		tokenStore:  tokenStore,
		rateLimiter: rateLimiter,
		mailer:      mailer,
		tokenCfg:    tokenCfg,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// RequestEmailVerification issues a fresh verification token and mails it.
// Re-requesting replaces the previous token. Already-verified users get a
// no-op success.
func (s *VerificationService) RequestEmailVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if user.IsEmailVerified() {
		return nil
	}

	allowed, err := s.rateLimiter.Allow(ctx, "verify:"+userID.String(),
		s.tokenCfg.VerificationRateLimit, s.tokenCfg.RateLimitWindow)
	if err != nil {
		s.logger.Error("Rate limiter failure on verification request", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to issue verification token")
	}
	if !allowed {
		s.logger.Warn("Verification request rate limited", zap.String("user_id", userID.String()))
		return shared.ErrRateLimited
	}

	raw, err := newRawToken()
	if err != nil {
		s.logger.Error("Failed to generate verification token", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to issue verification token")
	}

	if err := s.tokenStore.Put(ctx, identity.TokenPurposeEmailVerification,
		digestToken(raw), userID, s.tokenCfg.VerificationTTL); err != nil {
		s.logger.Error("Failed to store verification token", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to issue verification token")
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, raw)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Verify your email address",
		Body: fmt.Sprintf("Hi %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nThe link expires in %s. If you did not create an account, ignore this mail.\n",
			user.FirstName, link, s.tokenCfg.VerificationTTL),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return shared.NewDomainError("MAIL_FAILED", "Failed to send verification mail")
	}

	s.logger.Info("Verification mail sent", zap.String("user_id", userID.String()))
	return nil
}

// ConfirmEmail consumes a verification token and marks the user's email as
// verified. Tokens are single use; a replay gets ErrTokenInvalid.
func (s *VerificationService) ConfirmEmail(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return shared.ErrTokenInvalid
	}

	userID, err := s.tokenStore.Consume(ctx, identity.TokenPurposeEmailVerification, digestToken(rawToken))
	if err != nil {
		return shared.ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error("Token consumed for missing user", zap.String("user_id", userID.String()))
		return shared.ErrTokenInvalid
	}

	user.MarkEmailVerified()
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save verified user", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to confirm email")
	}

	s.logger.Info("Email verified", zap.String("user_id", userID.String()))
	return nil
}
