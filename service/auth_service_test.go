// service/auth_service_test.go
package service

import (
	"database/sql"
	"errors"
	"go-auth-api/config"
	"go-auth-api/logger"
	"go-auth-api/model"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	// Initialize the logger for the test environment.
	logger.Init()

	// The services read TTLs and secrets from the global config.
	config.AppConfig.JWT.Access.SecretKey = "test-access-secret"
	config.AppConfig.JWT.Access.ExpireMinutes = 15
	config.AppConfig.JWT.Refresh.SecretKey = "test-refresh-secret"
	config.AppConfig.JWT.Refresh.ExpireDays = 1
	config.AppConfig.JWT.Refresh.CookieName = "jid"
	config.AppConfig.OneTimeToken.ExpireMinutes = 60
	config.AppConfig.Server.URL = "http://localhost:4040"

	exitCode := m.Run()
	os.Exit(exitCode)
}

// MockUserRepository is a mock for IUserRepository.
type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) CreateUser(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}
func (m *MockUserRepository) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserRepository) GetUserByID(id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserRepository) UpdatePassword(userID int, passwordHash string) error {
	args := m.Called(userID, passwordHash)
	return args.Error(0)
}
func (m *MockUserRepository) MarkEmailVerified(userID int, when time.Time) error {
	args := m.Called(userID, when)
	return args.Error(0)
}

// MockTokenRepository is a mock for ITokenRepository.
type MockTokenRepository struct{ mock.Mock }

func (m *MockTokenRepository) Create(token *model.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}
func (m *MockTokenRepository) GetByToken(token string) (*model.RefreshToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}
func (m *MockTokenRepository) DeleteByToken(token string) (bool, error) {
	args := m.Called(token)
	return args.Bool(0), args.Error(1)
}
func (m *MockTokenRepository) DeleteByUserID(userID int) error {
	args := m.Called(userID)
	return args.Error(0)
}

// fakeTokenRepo is an in-memory ITokenRepository for end-to-end protocol
// scenarios where the exact sequence of store states matters.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (f *fakeTokenRepo) Create(token *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.CreatedAt = time.Now()
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeTokenRepo) GetByToken(token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTokenRepo) DeleteByToken(token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tokens[token]
	delete(f.tokens, token)
	return ok, nil
}

func (f *fakeTokenRepo) DeleteByUserID(userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for value, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, value)
		}
	}
	return nil
}

func (f *fakeTokenRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

// TestAuthService_HashAndCheckPassword ensures that password hashing and verification work correctly.
func TestAuthService_HashAndCheckPassword(t *testing.T) {
	password := "mySecretPassword123"

	hashedPassword, err := HashPassword(password)
	assert.NoError(t, err)
	assert.NotEqual(t, password, hashedPassword)

	assert.True(t, CheckPasswordHash(password, hashedPassword))
	assert.False(t, CheckPasswordHash("notMyPassword", hashedPassword))
}

func TestAuthService_GenerateAndVerifyTokens(t *testing.T) {
	authService := NewAuthService(nil, nil)

	t.Run("access token round trip", func(t *testing.T) {
		token, err := authService.GenerateAccessToken(42)
		assert.NoError(t, err)

		claims, err := authService.VerifyAccessToken(token)
		assert.NoError(t, err)
		assert.Equal(t, 42, claims.UserID)
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		token, err := authService.GenerateRefreshToken(42)
		assert.NoError(t, err)

		claims, err := authService.VerifyRefreshToken(token)
		assert.NoError(t, err)
		assert.Equal(t, 42, claims.UserID)
	})

	t.Run("token kinds are not interchangeable", func(t *testing.T) {
		refreshToken, err := authService.GenerateRefreshToken(42)
		assert.NoError(t, err)

		_, err = authService.VerifyAccessToken(refreshToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := signToken(42, getAccessKey(), -time.Minute)
		assert.NoError(t, err)

		_, err = authService.VerifyAccessToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := authService.VerifyAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("tokens minted back to back are distinct", func(t *testing.T) {
		t1, err := authService.GenerateRefreshToken(42)
		assert.NoError(t, err)
		t2, err := authService.GenerateRefreshToken(42)
		assert.NoError(t, err)
		assert.NotEqual(t, t1, t2)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("no token presented", func(t *testing.T) {
		authService := NewAuthService(nil, new(MockTokenRepository))
		_, err := authService.Refresh("")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("garbage token triggers no wipe", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		mockRepo.On("GetByToken", "garbage").Return(nil, sql.ErrNoRows).Once()

		authService := NewAuthService(nil, mockRepo)
		_, err := authService.Refresh("garbage")

		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertNotCalled(t, "DeleteByUserID", mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("replayed token wipes the subject's sessions", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		authService := NewAuthService(nil, mockRepo)

		// A verifiable token that is no longer in the store: proof of replay.
		replayed, err := authService.GenerateRefreshToken(7)
		assert.NoError(t, err)

		mockRepo.On("GetByToken", replayed).Return(nil, sql.ErrNoRows).Once()
		mockRepo.On("DeleteByUserID", 7).Return(nil).Once()

		_, err = authService.Refresh(replayed)
		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertExpectations(t)
	})

	t.Run("failed wipe still denies access", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		authService := NewAuthService(nil, mockRepo)

		replayed, err := authService.GenerateRefreshToken(7)
		assert.NoError(t, err)

		mockRepo.On("GetByToken", replayed).Return(nil, sql.ErrNoRows).Once()
		mockRepo.On("DeleteByUserID", 7).Return(errors.New("database down")).Once()

		_, err = authService.Refresh(replayed)
		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertExpectations(t)
	})

	t.Run("successful rotation", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		authService := NewAuthService(nil, mockRepo)

		presented, err := authService.GenerateRefreshToken(7)
		assert.NoError(t, err)

		mockRepo.On("GetByToken", presented).Return(&model.RefreshToken{Token: presented, UserID: 7}, nil).Once()
		mockRepo.On("DeleteByToken", presented).Return(true, nil).Once()
		mockRepo.On("Create", mock.AnythingOfType("*model.RefreshToken")).Return(nil).Once()

		pair, err := authService.Refresh(presented)
		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotEqual(t, presented, pair.RefreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("losing the delete race counts as reuse", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		authService := NewAuthService(nil, mockRepo)

		presented, err := authService.GenerateRefreshToken(7)
		assert.NoError(t, err)

		mockRepo.On("GetByToken", presented).Return(&model.RefreshToken{Token: presented, UserID: 7}, nil).Once()
		mockRepo.On("DeleteByToken", presented).Return(false, nil).Once()
		mockRepo.On("DeleteByUserID", 7).Return(nil).Once()

		_, err = authService.Refresh(presented)
		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("owner mismatch between store and signature", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		authService := NewAuthService(nil, mockRepo)

		presented, err := authService.GenerateRefreshToken(7)
		assert.NoError(t, err)

		// The stored row claims a different owner than the signature.
		mockRepo.On("GetByToken", presented).Return(&model.RefreshToken{Token: presented, UserID: 8}, nil).Once()
		mockRepo.On("DeleteByToken", presented).Return(true, nil).Once()

		_, err = authService.Refresh(presented)
		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := HashPassword("password123")
	assert.NoError(t, err)

	verifiedAt := time.Now()
	verifiedUser := func() *model.User {
		return &model.User{ID: 7, Username: "tester", Email: "tester@example.com", Password: hashedPassword, EmailVerified: &verifiedAt}
	}

	t.Run("unknown email", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUserByEmail", "nobody@example.com").Return(nil, sql.ErrNoRows).Once()

		authService := NewAuthService(mockUsers, new(MockTokenRepository))
		_, err := authService.Login("nobody@example.com", "password123", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		mockUsers.AssertExpectations(t)
	})

	t.Run("unverified email", func(t *testing.T) {
		user := verifiedUser()
		user.EmailVerified = nil
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUserByEmail", user.Email).Return(user, nil).Once()

		authService := NewAuthService(mockUsers, new(MockTokenRepository))
		_, err := authService.Login(user.Email, "password123", "")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("wrong password", func(t *testing.T) {
		user := verifiedUser()
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUserByEmail", user.Email).Return(user, nil).Once()

		authService := NewAuthService(mockUsers, new(MockTokenRepository))
		_, err := authService.Login(user.Email, "wrongpassword", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("successful login", func(t *testing.T) {
		user := verifiedUser()
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUserByEmail", user.Email).Return(user, nil).Once()
		mockTokens := new(MockTokenRepository)
		mockTokens.On("Create", mock.AnythingOfType("*model.RefreshToken")).Return(nil).Once()

		authService := NewAuthService(mockUsers, mockTokens)
		pair, err := authService.Login(user.Email, "password123", "")
		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		mockTokens.AssertExpectations(t)
	})

	t.Run("own stale token is consumed", func(t *testing.T) {
		user := verifiedUser()
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUserByEmail", user.Email).Return(user, nil).Once()

		mockTokens := new(MockTokenRepository)
		mockTokens.On("GetByToken", "stale-token").Return(&model.RefreshToken{Token: "stale-token", UserID: user.ID}, nil).Once()
		mockTokens.On("DeleteByToken", "stale-token").Return(true, nil).Once()
		mockTokens.On("Create", mock.AnythingOfType("*model.RefreshToken")).Return(nil).Once()

		authService := NewAuthService(mockUsers, mockTokens)
		_, err := authService.Login(user.Email, "password123", "stale-token")
		assert.NoError(t, err)
		mockTokens.AssertNotCalled(t, "DeleteByUserID", mock.Anything)
		mockTokens.AssertExpectations(t)
	})

	t.Run("foreign token wipes the authenticating user's sessions", func(t *testing.T) {
		user := verifiedUser()
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUserByEmail", user.Email).Return(user, nil).Once()

		mockTokens := new(MockTokenRepository)
		mockTokens.On("GetByToken", "foreign-token").Return(&model.RefreshToken{Token: "foreign-token", UserID: 99}, nil).Once()
		mockTokens.On("DeleteByUserID", user.ID).Return(nil).Once()
		mockTokens.On("Create", mock.AnythingOfType("*model.RefreshToken")).Return(nil).Once()

		authService := NewAuthService(mockUsers, mockTokens)
		pair, err := authService.Login(user.Email, "password123", "foreign-token")
		assert.NoError(t, err, "login still succeeds after the hygiene wipe")
		assert.NotEmpty(t, pair.RefreshToken)
		mockTokens.AssertExpectations(t)
	})

	t.Run("unknown presented token wipes as well", func(t *testing.T) {
		user := verifiedUser()
		mockUsers := new(MockUserRepository)
		mockUsers.On("GetUserByEmail", user.Email).Return(user, nil).Once()

		mockTokens := new(MockTokenRepository)
		mockTokens.On("GetByToken", "unknown-token").Return(nil, sql.ErrNoRows).Once()
		mockTokens.On("DeleteByUserID", user.ID).Return(nil).Once()
		mockTokens.On("Create", mock.AnythingOfType("*model.RefreshToken")).Return(nil).Once()

		authService := NewAuthService(mockUsers, mockTokens)
		_, err := authService.Login(user.Email, "password123", "unknown-token")
		assert.NoError(t, err)
		mockTokens.AssertExpectations(t)
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("no token is a silent success", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		authService := NewAuthService(nil, mockRepo)
		assert.NoError(t, authService.Logout(""))
		mockRepo.AssertNotCalled(t, "DeleteByToken", mock.Anything)
	})

	t.Run("absent token is a silent success", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		mockRepo.On("DeleteByToken", "gone-token").Return(false, nil).Once()

		authService := NewAuthService(nil, mockRepo)
		assert.NoError(t, authService.Logout("gone-token"))
		mockRepo.AssertExpectations(t)
	})
}

// TestRefreshRotation_ReuseCascade walks the full protocol against an
// in-memory store: one legitimate rotation, then a replay of the consumed
// token, which must kill the whole lineage including the never-reused head.
func TestRefreshRotation_ReuseCascade(t *testing.T) {
	repo := newFakeTokenRepo()
	authService := NewAuthService(nil, repo)

	pair1, err := authService.issuePair(7)
	assert.NoError(t, err)

	pair2, err := authService.Refresh(pair1.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, pair1.RefreshToken, pair2.RefreshToken)
	assert.Equal(t, 1, repo.count(), "rotation replaces the consumed token with exactly one new row")

	// Replaying the consumed token is theft evidence.
	_, err = authService.Refresh(pair1.RefreshToken)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 0, repo.count(), "the wipe removes every session of the subject")

	// The cascade also killed the legitimate head of the lineage.
	_, err = authService.Refresh(pair2.RefreshToken)
	assert.ErrorIs(t, err, ErrForbidden)
}

// TestRefreshRotation_ConcurrentUse ensures two concurrent refresh calls with
// the same token yield exactly one success.
func TestRefreshRotation_ConcurrentUse(t *testing.T) {
	repo := newFakeTokenRepo()
	authService := NewAuthService(nil, repo)

	pair, err := authService.issuePair(7)
	assert.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = authService.Refresh(pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrForbidden)
		}
	}
	assert.Equal(t, 1, successes, "exactly one of two concurrent refresh calls may win")
}
