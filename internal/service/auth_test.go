package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByID(ctx context.Context, id string) (*domain.APIKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestAuthService_CreateUser(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator("user-123")

	mockUserRepo.On("Create", ctx, mock.MatchedBy(func(user *domain.User) bool {
		return user.Name == "alice" && user.ID == "user-123"
	})).Return(nil)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	user, err := service.CreateUser(ctx, "alice")

	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)
	assert.Equal(t, "alice", user.Name)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_CreateUser_EmptyName(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	_, err := service.CreateUser(ctx, "")

	assert.Error(t, err)
	mockUserRepo.AssertNotCalled(t, "Create")
}

func TestAuthService_CreateAPIKey_GeneratesPrefixedToken(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator("key-123")

	mockUserRepo.On("GetByID", ctx, "user-123").Return(&domain.User{
		ID:        "user-123",
		Name:      "alice",
		CreatedAt: time.Now().UTC(),
	}, nil)

	mockAPIKeyRepo.On("Create", ctx, mock.MatchedBy(func(key *domain.APIKey) bool {
		return key.ID == "key-123" && key.KeyHash != "" && len(key.KeyHash) == 64
	})).Return(nil)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	token, err := service.CreateAPIKey(ctx, "user-123", "test-key")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "cor_"), "token should start with cor_")
	assert.Equal(t, 68, len(token), "token should be cor_ + 64 hex chars")
	mockAPIKeyRepo.AssertExpectations(t)
}

func TestAuthService_CreateAPIKey_StoresSHA256Hash(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator("key-123")

	mockUserRepo.On("GetByID", ctx, "user-123").Return(&domain.User{
		ID:        "user-123",
		Name:      "alice",
		CreatedAt: time.Now().UTC(),
	}, nil)

	var capturedKey *domain.APIKey
	mockAPIKeyRepo.On("Create", ctx, mock.MatchedBy(func(key *domain.APIKey) bool {
		capturedKey = key
		return true
	})).Return(nil)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	token, err := service.CreateAPIKey(ctx, "user-123", "test-key")

	require.NoError(t, err)
	require.NotNil(t, capturedKey)
	assert.NotEqual(t, token, capturedKey.KeyHash)
	assert.Equal(t, 64, len(capturedKey.KeyHash), "SHA256 hash should be 64 hex chars")
}

func TestAuthService_ValidateAPIKey_ValidToken(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator("key-123")

	mockUserRepo.On("GetByID", ctx, "user-123").Return(&domain.User{
		ID:        "user-123",
		Name:      "alice",
		CreatedAt: time.Now().UTC(),
	}, nil)

	var storedHash string
	mockAPIKeyRepo.On("Create", ctx, mock.MatchedBy(func(key *domain.APIKey) bool {
		storedHash = key.KeyHash
		return true
	})).Return(nil)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	token, _ := service.CreateAPIKey(ctx, "user-123", "test-key")

	mockAPIKeyRepo.On("GetByHash", ctx, storedHash).Return(&domain.APIKey{
		ID:        "key-123",
		OwnerID:   "user-123",
		Name:      "test-key",
		KeyHash:   storedHash,
		CreatedAt: time.Now().UTC(),
		RevokedAt: nil,
	}, nil)

	ownerID, err := service.ValidateAPIKey(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", ownerID)
}

func TestAuthService_ValidateAPIKey_InvalidToken(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	_, err := service.ValidateAPIKey(ctx, "invalid-token")

	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}

func TestAuthService_ValidateAPIKey_NotFound(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	mockAPIKeyRepo.On("GetByHash", ctx, mock.Anything).Return(nil, domain.ErrAPIKeyNotFound)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	_, err := service.ValidateAPIKey(ctx, "cor_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}

func TestAuthService_ValidateAPIKey_RevokedKey(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	revokedAt := time.Now().UTC()
	mockAPIKeyRepo.On("GetByHash", ctx, mock.Anything).Return(&domain.APIKey{
		ID:        "key-123",
		OwnerID:   "user-123",
		Name:      "test-key",
		KeyHash:   "somehash",
		CreatedAt: time.Now().UTC(),
		RevokedAt: &revokedAt,
	}, nil)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	_, err := service.ValidateAPIKey(ctx, "cor_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	assert.ErrorIs(t, err, domain.ErrAPIKeyRevoked)
}

func TestAuthService_RevokeAPIKey(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	mockAPIKeyRepo.On("Revoke", ctx, "key-123").Return(nil)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	err := service.RevokeAPIKey(ctx, "key-123")

	require.NoError(t, err)
	mockAPIKeyRepo.AssertExpectations(t)
}

func TestAuthService_RevokeAPIKey_NotFound(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	mockAPIKeyRepo.On("Revoke", ctx, "key-123").Return(domain.ErrAPIKeyNotFound)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	err := service.RevokeAPIKey(ctx, "key-123")

	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAuthService_ListAPIKeys(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	keys := []*domain.APIKey{
		{ID: "key-1", OwnerID: "user-123", Name: "key1", KeyHash: "hash1", CreatedAt: time.Now().UTC()},
		{ID: "key-2", OwnerID: "user-123", Name: "key2", KeyHash: "hash2", CreatedAt: time.Now().UTC()},
	}

	mockAPIKeyRepo.On("GetByOwnerID", ctx, "user-123").Return(keys, nil)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	result, err := service.ListAPIKeys(ctx, "user-123")

	require.NoError(t, err)
	assert.Len(t, result, 2)
	mockAPIKeyRepo.AssertExpectations(t)
}

func TestAuthService_CreateAPIKey_EmptyOwnerID(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	_, err := service.CreateAPIKey(ctx, "", "test-key")

	assert.Error(t, err)
}

func TestAuthService_CreateAPIKey_EmptyName(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	_, err := service.CreateAPIKey(ctx, "user-123", "")

	assert.Error(t, err)
}

func TestAuthService_RevokeAPIKey_EmptyID(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	err := service.RevokeAPIKey(ctx, "")

	assert.Error(t, err)
}

func TestAuthService_ListAPIKeys_EmptyOwnerID(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	_, err := service.ListAPIKeys(ctx, "")

	assert.Error(t, err)
}

func TestIsValidAPIToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid token", "cor_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", true},
		{"valid uppercase", "cor_0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF", true},
		{"missing prefix", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", false},
		{"wrong prefix", "abc_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", false},
		{"too short", "cor_0123456789abcdef", false},
		{"too long", "cor_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef00", false},
		{"invalid chars", "cor_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdeg", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidAPIToken(tt.token)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthService_CreateAPIKeyWithToken(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator("key-123")

	mockUserRepo.On("GetByID", ctx, "user-123").Return(&domain.User{
		ID:        "user-123",
		Name:      "alice",
		CreatedAt: time.Now().UTC(),
	}, nil)

	mockAPIKeyRepo.On("Create", ctx, mock.MatchedBy(func(key *domain.APIKey) bool {
		return key.OwnerID == "user-123" && key.Name == "test-key"
	})).Return(nil)

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	err := service.CreateAPIKeyWithToken(ctx, "user-123", "test-key", "cor_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	require.NoError(t, err)
	mockAPIKeyRepo.AssertExpectations(t)
}

func TestAuthService_CreateAPIKeyWithToken_InvalidFormat(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(MockUserRepository)
	mockAPIKeyRepo := new(MockAPIKeyRepository)
	mockUUIDGen := NewMockUUIDGenerator()

	service := NewAuthService(mockUserRepo, mockAPIKeyRepo, mockUUIDGen)
	err := service.CreateAPIKeyWithToken(ctx, "user-123", "test-key", "invalid-token")

	assert.Error(t, err)
}
