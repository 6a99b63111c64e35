package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appidentity "github.com/moneta/backend/internal/application/identity"
	"github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/infrastructure/auth"
	"github.com/moneta/backend/internal/infrastructure/config"
	"github.com/moneta/backend/internal/interfaces/http/dto"
	"github.com/moneta/backend/internal/interfaces/http/middleware"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testAuthJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long!!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "moneta-test",
	})
}

// setupAuthRouter wires a real AuthService over a mocked user repository
// behind the full middleware stack.
func setupAuthRouter(t *testing.T, userRepo *MockUserRepository) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := testAuthJWTService()
	authService := appidentity.NewAuthService(userRepo, jwtService, nil, zap.NewNop())
	handler := NewAuthHandler(authService, nil, nil)

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware(jwtService))
	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)
	return r, jwtService
}

func postJSON(r *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("creates user and returns token pair", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(false, nil)
		userRepo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)
		r, _ := setupAuthRouter(t, userRepo)

		w := postJSON(r, "/api/v1/auth/register", RegisterRequest{
			Email:     "jane@example.com",
			Password:  "correct-horse-battery",
			FirstName: "Jane",
			LastName:  "Doe",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			Success bool         `json:"success"`
			Data    AuthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Data.Token.AccessToken)
		assert.NotEmpty(t, resp.Data.Token.RefreshToken)
		assert.Equal(t, "jane@example.com", resp.Data.User.Email)
		assert.False(t, resp.Data.User.EmailVerified)
		userRepo.AssertExpectations(t)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(true, nil)
		r, _ := setupAuthRouter(t, userRepo)

		w := postJSON(r, "/api/v1/auth/register", RegisterRequest{
			Email:    "jane@example.com",
			Password: "correct-horse-battery",
		}, nil)

		require.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "EMAIL_TAKEN")
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		r, _ := setupAuthRouter(t, new(MockUserRepository))

		w := postJSON(r, "/api/v1/auth/register", gin.H{"email": "not-an-email"}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	newUser := func(t *testing.T) *identity.User {
		t.Helper()
		user, err := identity.NewUser("jane@example.com", "correct-horse-battery", "Jane", "Doe")
		require.NoError(t, err)
		return user
	}

	t.Run("valid credentials return tokens", func(t *testing.T) {
		user := newUser(t)
		userRepo := new(MockUserRepository)
		userRepo.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		r, _ := setupAuthRouter(t, userRepo)

		w := postJSON(r, "/api/v1/auth/login", LoginRequest{
			Email:    "jane@example.com",
			Password: "correct-horse-battery",
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")
	})

	t.Run("wrong password returns 401", func(t *testing.T) {
		user := newUser(t)
		userRepo := new(MockUserRepository)
		userRepo.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		r, _ := setupAuthRouter(t, userRepo)

		w := postJSON(r, "/api/v1/auth/login", LoginRequest{
			Email:    "jane@example.com",
			Password: "wrong-password-entirely",
		}, nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
	})

	t.Run("locked account returns 401", func(t *testing.T) {
		user := newUser(t)
		require.NoError(t, user.Lock())
		userRepo := new(MockUserRepository)
		userRepo.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		r, _ := setupAuthRouter(t, userRepo)

		w := postJSON(r, "/api/v1/auth/login", LoginRequest{
			Email:    "jane@example.com",
			Password: "correct-horse-battery",
		}, nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ACCOUNT_LOCKED")
	})
}

func TestAuthHandler_Me(t *testing.T) {
	user, err := identity.NewUser("jane@example.com", "correct-horse-battery", "Jane", "Doe")
	require.NoError(t, err)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	r, jwtService := setupAuthRouter(t, userRepo)

	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
	})
	require.NoError(t, err)

	t.Run("returns profile with valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data UserResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, user.ID, resp.Data.ID)
		assert.Equal(t, "Jane", resp.Data.FirstName)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	user, err := identity.NewUser("jane@example.com", "correct-horse-battery", "Jane", "Doe")
	require.NoError(t, err)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	r, jwtService := setupAuthRouter(t, userRepo)

	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
	})
	require.NoError(t, err)

	t.Run("valid refresh token rotates the pair", func(t *testing.T) {
		w := postJSON(r, "/api/v1/auth/refresh", RefreshTokenRequest{
			RefreshToken: pair.RefreshToken,
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")
	})

	t.Run("stale token version is rejected", func(t *testing.T) {
		user.TokenVersion++
		defer func() { user.TokenVersion-- }()

		w := postJSON(r, "/api/v1/auth/refresh", RefreshTokenRequest{
			RefreshToken: pair.RefreshToken,
		}, nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeTokenInvalid)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		w := postJSON(r, "/api/v1/auth/refresh", RefreshTokenRequest{
			RefreshToken: "not-a-jwt",
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
