package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"taleboard/config"
	"taleboard/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app    *fiber.App
	server *Server
	redis  *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		JWTSecret:           "test-secret",
		AllowedEmailDomains: "gitam.edu,gitam.in",
		UploadDir:           t.TempDir(),
		MediaBaseURL:        "/media",
		Environment:         "test",
	}

	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)

	return &testEnv{app: app, server: s, redis: mr}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// signup creates an account and returns its token and user id.
func (e *testEnv) signup(t *testing.T, email, password string) (string, uint) {
	t.Helper()
	resp := e.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":            email,
		"password":         password,
		"confirm_password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token, body.User.ID
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	t.Run("accepts allowed domains", func(t *testing.T) {
		token, userID := env.signup(t, "asha@gitam.edu", "password123")
		assert.NotEmpty(t, token)
		assert.NotZero(t, userID)
	})

	t.Run("rejects outside domains", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email":            "someone@gmail.com",
			"password":         "password123",
			"confirm_password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects lookalike domains", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email":            "x@notgitam.edu",
			"password":         "password123",
			"confirm_password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects short password", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email":            "y@gitam.edu",
			"password":         "short",
			"confirm_password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects mismatched confirmation", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email":            "z@gitam.edu",
			"password":         "password123",
			"confirm_password": "password124",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email":            "asha@gitam.edu",
			"password":         "password123",
			"confirm_password": "password123",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestLoginAndSession(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "dev@gitam.in", "password123")

	resp := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "dev@gitam.in",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &login)
	require.NotEmpty(t, login.Token)

	resp = env.request(t, http.MethodGet, "/api/auth/session", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Profile struct {
			DisplayName string `json:"display_name"`
		} `json:"profile"`
	}
	decodeBody(t, resp, &session)
	assert.Equal(t, "dev@gitam.in", session.User.Email)
	// No profile saved yet: display name falls back to the email local part.
	assert.Equal(t, "dev", session.Profile.DisplayName)

	t.Run("wrong password", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "dev@gitam.in",
			"password": "wrongpassword",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/auth/session", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "out@gitam.edu", "password123")

	resp := env.request(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The same token is rejected afterwards; its jti is revoked.
	resp = env.request(t, http.MethodGet, "/api/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "forgot@gitam.edu", "password123")

	resp := env.request(t, http.MethodPost, "/api/auth/reset-request", "", map[string]string{
		"email": "forgot@gitam.edu",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown emails get the identical response.
	resp = env.request(t, http.MethodPost, "/api/auth/reset-request", "", map[string]string{
		"email": "nobody@gitam.edu",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Find the issued token in Redis to complete the flow.
	var resetToken string
	for _, key := range env.redis.Keys() {
		if len(key) > 8 && key[:8] == "pwreset:" {
			resetToken = key[8:]
		}
	}
	require.NotEmpty(t, resetToken, "reset token must be stored")

	resp = env.request(t, http.MethodPost, "/api/auth/reset-confirm", "", map[string]string{
		"token":            resetToken,
		"password":         "newpassword456",
		"confirm_password": "newpassword456",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password no longer works, new one does.
	resp = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "forgot@gitam.edu",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "forgot@gitam.edu",
		"password": "newpassword456",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Tokens are single-use.
	resp = env.request(t, http.MethodPost, "/api/auth/reset-confirm", "", map[string]string{
		"token":            resetToken,
		"password":         "anotherpass789",
		"confirm_password": "anotherpass789",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
