package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eone-api/internal/models"
	appErrors "github.com/noah-isme/eone-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	lastLogin     map[string]time.Time
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         make(map[string]models.User),
		refreshTokens: make(map[string]models.RefreshToken),
		lastLogin:     make(map[string]time.Time),
	}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin[id] = ts
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = *token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for k, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
			m.refreshTokens[k] = t
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	for k, t := range m.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
			t.RevokedAt = &now
			m.refreshTokens[k] = t
		}
	}
	return nil
}

func authConfigForTest() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "eone-api",
	}
}

func seedUser(repo *mockAuthRepo, id, email, password string, role models.UserRole, status models.UserStatus) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	repo.users[id] = models.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         role,
		Status:       status,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "u-1", "teacher@example.com", "secret123", models.RoleTeacher, models.UserStatusApproved)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigForTest())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u-1", resp.User.ID)
	assert.Contains(t, repo.lastLogin, "u-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "u-1", "teacher@example.com", "secret123", models.RoleTeacher, models.UserStatusApproved)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigForTest())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginPendingAccount(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "u-1", "student@example.com", "secret123", models.RoleStudent, models.UserStatusPending)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigForTest())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "u-1", "teacher@example.com", "secret123", models.RoleTeacher, models.UserStatusApproved)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigForTest())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the used token is single-use
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "u-1", "teacher@example.com", "secret123", models.RoleTeacher, models.UserStatusApproved)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigForTest())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "u-1"))
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
}
