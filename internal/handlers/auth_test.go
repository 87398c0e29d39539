package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskforge-dev/taskforge/db"
	"github.com/taskforge-dev/taskforge/internal/models"
	"gorm.io/gorm"
)

func TestRegister(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "alice@example.com",
		"password":  "testpass123",
		"full_name": "Alice",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "Alice", user["full_name"])
	assert.Equal(t, true, user["is_active"])
	assert.NotEmpty(t, user["id"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := setupRouter(t)
	registerUser(t, r, "alice@example.com")

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "alice@example.com",
		"password":  "testpass123",
		"full_name": "Alice Again",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decodeBody(t, w)["error"])
}

func TestRegister_ValidationFailures(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name    string
		payload gin.H
		field   string
	}{
		{"invalid email", gin.H{"email": "not-an-email", "password": "testpass123", "full_name": "A"}, "email"},
		{"short password", gin.H{"email": "a@example.com", "password": "short", "full_name": "A"}, "password"},
		{"missing full name", gin.H{"email": "a@example.com", "password": "testpass123"}, "fullname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", tt.payload)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

			body := decodeBody(t, w)
			assert.Equal(t, "Validation failed", body["error"])

			details := body["details"].([]interface{})
			require.NotEmpty(t, details)
			assert.Equal(t, tt.field, details[0].(map[string]interface{})["field"])
		})
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	r := setupRouter(t)
	registerUser(t, r, "alice@example.com")

	w := doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decodeBody(t, w)["error"])
}

func TestLogin_UnknownEmail(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "nobody@example.com",
		"password": "testpass123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	r := setupRouter(t)
	userID, token := registerUser(t, r, "alice@example.com")

	w := doRequest(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, userID, user["id"])
	assert.Equal(t, "alice@example.com", user["email"])
}

func TestMe_NoToken(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_MalformedAuthHeader(t *testing.T) {
	r := setupRouter(t)
	_, token := registerUser(t, r, "alice@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Token "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInactiveUserRejected(t *testing.T) {
	r := setupRouter(t)
	userID, token := registerUser(t, r, "alice@example.com")

	require.NoError(t, db.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("is_active", false).Error)

	w := doRequest(t, r, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Inactive user", decodeBody(t, w)["error"])

	// Login is refused as well.
	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "testpass123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEmailStoredCaseSensitive(t *testing.T) {
	r := setupRouter(t)
	registerUser(t, r, "Alice@Example.com")

	// A differently-cased address is a different account.
	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "alice@example.com",
		"password":  "testpass123",
		"full_name": "Other Alice",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRegister_DuplicateInsertTranslated(t *testing.T) {
	setupRouter(t)

	first := models.User{Email: "alice@example.com", PasswordHash: "x", FullName: "Alice", IsActive: true}
	require.NoError(t, db.DB.Create(&first).Error)

	// The unique index on email surfaces as gorm.ErrDuplicatedKey, which the
	// register handler maps to the same 400 as its pre-insert lookup. A
	// concurrent registration losing the race therefore never leaks a 500.
	second := models.User{Email: "alice@example.com", PasswordHash: "x", FullName: "Alice Again", IsActive: true}
	err := db.DB.Create(&second).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
