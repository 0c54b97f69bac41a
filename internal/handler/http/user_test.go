package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	"github.com/kennytong915/Japan-Ramen-Database/internal/ratelimit"
	"github.com/kennytong915/Japan-Ramen-Database/internal/service"
	apperrors "github.com/kennytong915/Japan-Ramen-Database/pkg/errors"
)

func TestRegister_Success(t *testing.T) {
	deps := newTestDeps(t)
	router := newTestRouter(t, deps)

	deps.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	b, _ := json.Marshal(service.RegisterInput{
		Username: "noodlefan",
		Email:    "noodlefan@example.com",
		Password: "correct-horse-battery",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.Nil(t, resp.Error)

	var auth AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &auth))
	assert.Equal(t, "noodlefan", auth.User.Username)
	assert.NotEmpty(t, auth.Token)
	assert.Empty(t, auth.User.PasswordHash)
	deps.users.AssertExpectations(t)
}

func TestRegister_InvalidEmail(t *testing.T) {
	deps := newTestDeps(t)
	router := newTestRouter(t, deps)

	b, _ := json.Marshal(service.RegisterInput{
		Username: "noodlefan",
		Email:    "not-an-email",
		Password: "correct-horse-battery",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	deps.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	deps := newTestDeps(t)
	router := newTestRouter(t, deps)

	deps.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "username", "noodlefan"))

	b, _ := json.Marshal(service.RegisterInput{
		Username: "noodlefan",
		Email:    "noodlefan@example.com",
		Password: "correct-horse-battery",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_RateLimited(t *testing.T) {
	deps := newTestDeps(t)
	limiter := ratelimit.New(1, time.Minute, handlerTestLogger())
	t.Cleanup(limiter.Close)
	deps.limiter = limiter
	router := newTestRouter(t, deps)

	// httptest requests all come from 192.0.2.1; drain its bucket.
	require.True(t, limiter.TryConsume("192.0.2.1"))

	b, _ := json.Marshal(service.RegisterInput{
		Username: "noodlefan",
		Email:    "noodlefan@example.com",
		Password: "correct-horse-battery",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)
	deps.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	deps := newTestDeps(t)
	router := newTestRouter(t, deps)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	require.NoError(t, err)
	user := sampleUser("user-1")
	user.PasswordHash = string(hash)

	deps.users.On("GetByUsername", mock.Anything, "tester").Return(user, nil)
	deps.users.On("UpdateLoginState", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	b, _ := json.Marshal(service.LoginInput{Username: "tester", Password: "correct-horse-battery"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	var auth AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &auth))
	assert.NotEmpty(t, auth.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	deps := newTestDeps(t)
	router := newTestRouter(t, deps)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	require.NoError(t, err)
	user := sampleUser("user-1")
	user.PasswordHash = string(hash)

	deps.users.On("GetByUsername", mock.Anything, "tester").Return(user, nil)
	deps.users.On("UpdateLoginState", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	b, _ := json.Marshal(service.LoginInput{Username: "tester", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestMe_ReturnsAuthenticatedUser(t *testing.T) {
	deps := newTestDeps(t)
	router := newTestRouter(t, deps)

	deps.users.On("GetByID", mock.Anything, "user-1").Return(sampleUser("user-1"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", bearerToken(t, deps, "user-1", domain.RoleUser))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	var user domain.User
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	assert.Equal(t, "user-1", user.ID)
}

func TestListMyComments(t *testing.T) {
	deps := newTestDeps(t)
	router := newTestRouter(t, deps)

	deps.comments.On("ListByUser", mock.Anything, "user-1").
		Return([]domain.Comment{*sampleComment()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/comments", nil)
	req.Header.Set("Authorization", bearerToken(t, deps, "user-1", domain.RoleUser))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	var comments []domain.Comment
	require.NoError(t, json.Unmarshal(resp.Data, &comments))
	assert.Len(t, comments, 1)
}
