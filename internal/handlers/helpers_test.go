package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/taskforge-dev/taskforge/db"
	"github.com/taskforge-dev/taskforge/internal/auth"
	"github.com/taskforge-dev/taskforge/internal/config"
	"github.com/taskforge-dev/taskforge/internal/router"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	require.NoError(t, auth.Init("test-secret"))

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	db.DB = gdb
	require.NoError(t, db.MigrateDatabase())

	cfg := &config.Config{
		Port:           "3000",
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	return router.NewRouter(cfg)
}

func doRequest(t *testing.T, r *gin.Engine, method string, path string, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doRawRequest(t *testing.T, r *gin.Engine, method string, path string, token string, raw string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(raw)))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// registerUser creates an account through the API and returns its id and a
// valid bearer token.
func registerUser(t *testing.T, r *gin.Engine, email string) (string, string) {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     email,
		"password":  "testpass123",
		"full_name": "Test User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	user := body["user"].(map[string]interface{})
	userID := user["id"].(string)

	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": "testpass123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := decodeBody(t, w)["access_token"].(string)
	return userID, token
}

func createProject(t *testing.T, r *gin.Engine, token string, name string) string {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/projects", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decodeBody(t, w)["id"].(string)
}

func createTask(t *testing.T, r *gin.Engine, token string, projectID string, payload gin.H) map[string]interface{} {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/projects/"+projectID+"/tasks", token, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decodeBody(t, w)
}
