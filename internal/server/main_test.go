package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"showcase/internal/config"
	"showcase/internal/models"
	"showcase/internal/storage"
	"showcase/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "server-test-secret-0123456789abcdef0123"

type testApp struct {
	srv     *Server
	app     *fiber.App
	db      *gorm.DB
	gateway *storage.MemoryGateway
	redis   *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Env:            "test",
		Port:           "0",
		JWTSecret:      testJWTSecret,
		AllowedOrigins: "http://localhost:3000",
		StorageDriver:  "memory",
	}
}

// newTestApp builds the full middleware and route stack over SQLite, an
// in-memory gateway and miniredis.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gateway := storage.NewMemoryGateway("https://cdn.example.is")

	srv, err := NewServerWithDeps(testConfig(), db, rdb, gateway)
	require.NoError(t, err)

	app := NewApp()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	srv.app = app

	t.Cleanup(func() { _ = rdb.Close() })
	return &testApp{srv: srv, app: app, db: db, gateway: gateway, redis: mr}
}

func (a *testApp) user(t *testing.T, admin bool) *models.User {
	return testutil.CreateUser(t, a.db, admin)
}

func signedToken(t *testing.T, userID uint, jti string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(time.Hour).Unix(),
		"jti": jti,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func tokenFor(t *testing.T, u *models.User) string {
	return signedToken(t, u.ID, fmt.Sprintf("jti-%d", u.ID))
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (a *testApp) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}
