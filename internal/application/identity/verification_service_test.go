package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/domain/shared"
	"github.com/moneta/backend/internal/infrastructure/config"
	"github.com/moneta/backend/internal/infrastructure/mail"
)

var testTokenConfig = config.TokenConfig{
	VerificationTTL:       24 * time.Hour,
	ResetTTL:              time.Hour,
	VerificationRateLimit: 3,
	ResetRateLimit:        3,
	RateLimitWindow:       time.Hour,
}

func newVerificationService(userRepo *MockUserRepository, store *MockTokenStore, limiter *MockRateLimiter, mailer *MockMailer) *VerificationService {
	return NewVerificationService(userRepo, store, limiter, mailer,
		testTokenConfig, "https://app.example.com", zap.NewNop())
}

func TestVerificationService_RequestEmailVerification(t *testing.T) {
	userRepo := new(MockUserRepository)
	store := new(MockTokenStore)
	limiter := new(MockRateLimiter)
	mailer := new(MockMailer)
	svc := newVerificationService(userRepo, store, limiter, mailer)
	user := newTestUser(t)

	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	limiter.On("Allow", mock.Anything, "verify:"+user.ID.String(), 3, time.Hour).Return(true, nil)
	store.On("Put", mock.Anything, identity.TokenPurposeEmailVerification,
		mock.AnythingOfType("string"), user.ID, 24*time.Hour).Return(nil)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == user.Email && strings.Contains(msg.Body, "verify-email?token=")
	})).Return(nil)

	require.NoError(t, svc.RequestEmailVerification(context.Background(), user.ID))

	// The stored digest is never the raw token from the mail
	storedDigest := store.Calls[0].Arguments.String(2)
	sentBody := mailer.Calls[0].Arguments.Get(1).(mail.Message).Body
	assert.NotContains(t, sentBody, storedDigest)
	store.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestVerificationService_RequestEmailVerification_AlreadyVerified(t *testing.T) {
	userRepo := new(MockUserRepository)
	store := new(MockTokenStore)
	limiter := new(MockRateLimiter)
	mailer := new(MockMailer)
	svc := newVerificationService(userRepo, store, limiter, mailer)
	user := newTestUser(t)
	user.MarkEmailVerified()

	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	require.NoError(t, svc.RequestEmailVerification(context.Background(), user.ID))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestVerificationService_RequestEmailVerification_RateLimited(t *testing.T) {
	userRepo := new(MockUserRepository)
	store := new(MockTokenStore)
	limiter := new(MockRateLimiter)
	mailer := new(MockMailer)
	svc := newVerificationService(userRepo, store, limiter, mailer)
	user := newTestUser(t)

	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	limiter.On("Allow", mock.Anything, mock.Anything, 3, time.Hour).Return(false, nil)

	err := svc.RequestEmailVerification(context.Background(), user.ID)
	assert.ErrorIs(t, err, shared.ErrRateLimited)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestVerificationService_ConfirmEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	store := new(MockTokenStore)
	svc := newVerificationService(userRepo, store, new(MockRateLimiter), new(MockMailer))
	user := newTestUser(t)

	raw := "aabbccdd"
	store.On("Consume", mock.Anything, identity.TokenPurposeEmailVerification, digestToken(raw)).
		Return(user.ID, nil)
	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	userRepo.On("Save", mock.Anything, user).Return(nil)

	require.NoError(t, svc.ConfirmEmail(context.Background(), raw))
	assert.True(t, user.IsEmailVerified())
}

func TestVerificationService_ConfirmEmail_InvalidToken(t *testing.T) {
	store := new(MockTokenStore)
	svc := newVerificationService(new(MockUserRepository), store, new(MockRateLimiter), new(MockMailer))

	store.On("Consume", mock.Anything, identity.TokenPurposeEmailVerification, mock.Anything).
		Return(uuid.Nil, shared.ErrTokenInvalid)

	err := svc.ConfirmEmail(context.Background(), "unknown-token")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestVerificationService_ConfirmEmail_EmptyToken(t *testing.T) {
	svc := newVerificationService(new(MockUserRepository), new(MockTokenStore), new(MockRateLimiter), new(MockMailer))
	assert.ErrorIs(t, svc.ConfirmEmail(context.Background(), ""), shared.ErrTokenInvalid)
}
