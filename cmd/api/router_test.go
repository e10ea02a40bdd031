package main

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoabuu/task-manager/internal/auth"
	"github.com/whoabuu/task-manager/internal/config"
	"github.com/whoabuu/task-manager/internal/store/sqlstore"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseURL:   sqlstore.Scheme + filepath.Join(t.TempDir(), "tasks.db"),
		MongoDatabase: "taskmanager",
		JWTSecret:     "router-test-secret",
		TokenTTL:      time.Hour,
		BcryptCost:    4,
		Port:          "0",
		GinMode:       gin.TestMode,
		ClientURL:     "http://localhost:5173",
		LogLevel:      "error",
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := newTestConfig(t)
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { closeStore(ctx, st) })
	require.NoError(t, st.Migrate(ctx))

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(closeLimiter)

	router, err := newRouter(cfg, st, limiter, zerolog.Nop())
	require.NoError(t, err)
	return router
}

// sessionCookie はレスポンスからトークンのクッキーを取り出します。
func sessionCookie(t *testing.T, res *http.Response) *apitest.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return apitest.NewCookie(c.Name).Value(c.Value)
		}
	}
	t.Fatal("session cookie not found")
	return nil
}

func registerUser(t *testing.T, h http.Handler, name, email string) (*apitest.Cookie, string) {
	t.Helper()
	result := apitest.New().
		Handler(h).
		Post("/api/auth/register").
		JSON(`{"name":"` + name + `","email":"` + email + `","password":"s3cret!"}`).
		Expect(t).
		Status(http.StatusCreated).
		End()

	var body struct {
		ID string `json:"id"`
	}
	result.JSON(&body)
	require.NotEmpty(t, body.ID)
	return sessionCookie(t, result.Response), body.ID
}

func createTask(t *testing.T, h http.Handler, cookie *apitest.Cookie, title string) string {
	t.Helper()
	result := apitest.New().
		Handler(h).
		Post("/api/tasks").
		Cookies(cookie).
		JSON(`{"title":"` + title + `"}`).
		Expect(t).
		Status(http.StatusCreated).
		End()

	var body struct {
		ID string `json:"id"`
	}
	result.JSON(&body)
	require.NotEmpty(t, body.ID)
	return body.ID
}

func TestHealth(t *testing.T) {
	apitest.New().
		Handler(newTestServer(t)).
		Get("/health").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "ok")).
		End()
}

func TestTaskLifecycle(t *testing.T) {
	h := newTestServer(t)
	cookie, userID := registerUser(t, h, "Alice", "alice@example.com")

	apitest.New().
		Handler(h).
		Get("/api/tasks").
		Cookies(cookie).
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()

	result := apitest.New().
		Handler(h).
		Post("/api/tasks").
		Cookies(cookie).
		JSON(`{"title":"Buy milk"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.title", "Buy milk")).
		Assert(jsonpath.Equal("$.status", "Pending")).
		Assert(jsonpath.Equal("$.description", "")).
		Assert(jsonpath.Equal("$.user", userID)).
		End()
	var created struct {
		ID string `json:"id"`
	}
	result.JSON(&created)

	apitest.New().
		Handler(h).
		Put("/api/tasks/" + created.ID).
		Cookies(cookie).
		JSON(`{"status":"Completed"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "Completed")).
		Assert(jsonpath.Equal("$.title", "Buy milk")).
		End()

	apitest.New().
		Handler(h).
		Delete("/api/tasks/" + created.ID).
		Cookies(cookie).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"id":"` + created.ID + `","message":"Task deleted successfully"}`).
		End()

	apitest.New().
		Handler(h).
		Get("/api/tasks").
		Cookies(cookie).
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()

	apitest.New().
		Handler(h).
		Delete("/api/tasks/" + created.ID).
		Cookies(cookie).
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Equal("$.error", "Task not found")).
		End()
}

func TestTasksRequireLogin(t *testing.T) {
	apitest.New().
		Handler(newTestServer(t)).
		Get("/api/tasks").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "Not authorized, no token provided")).
		End()
}

func TestOwnershipIsEnforced(t *testing.T) {
	h := newTestServer(t)
	alice, _ := registerUser(t, h, "Alice", "alice@example.com")
	bob, _ := registerUser(t, h, "Bob", "bob@example.com")
	taskID := createTask(t, h, alice, "Alice's task")

	apitest.New().
		Handler(h).
		Get("/api/tasks").
		Cookies(bob).
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()

	apitest.New().
		Handler(h).
		Put("/api/tasks/" + taskID).
		Cookies(bob).
		JSON(`{"title":"Bob was here"}`).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	apitest.New().
		Handler(h).
		Delete("/api/tasks/" + taskID).
		Cookies(bob).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	// 入力の検証より所有者チェックが先に行われる
	apitest.New().
		Handler(h).
		Put("/api/tasks/" + taskID).
		Cookies(bob).
		JSON(`{"title":"   "}`).
		Expect(t).
		Status(http.StatusForbidden).
		Assert(jsonpath.Equal("$.code", "FORBIDDEN")).
		End()

	apitest.New().
		Handler(h).
		Put("/api/tasks/00000000-0000-0000-0000-000000000000").
		Cookies(alice).
		JSON(`{"status":"Bogus"}`).
		Expect(t).
		Status(http.StatusNotFound).
		End()

	apitest.New().
		Handler(h).
		Get("/api/tasks").
		Cookies(alice).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$", 1)).
		Assert(jsonpath.Equal("$[0].title", "Alice's task")).
		End()
}

func TestLoginFailuresAndLockout(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "Alice", "alice@example.com")

	wrong := apitest.New().
		Handler(h).
		Post("/api/auth/login").
		JSON(`{"email":"alice@example.com","password":"wrong"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		CookieNotPresent(auth.CookieName).
		End()
	unknown := apitest.New().
		Handler(h).
		Post("/api/auth/login").
		JSON(`{"email":"nobody@example.com","password":"wrong"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		CookieNotPresent(auth.CookieName).
		End()

	var wrongBody, unknownBody map[string]any
	wrong.JSON(&wrongBody)
	unknown.JSON(&unknownBody)
	assert.Equal(t, wrongBody["error"], unknownBody["error"])
	assert.Equal(t, wrongBody["code"], unknownBody["code"])

	for i := 0; i < 3; i++ {
		apitest.New().
			Handler(h).
			Post("/api/auth/login").
			JSON(`{"email":"alice@example.com","password":"wrong"}`).
			Expect(t).
			Status(http.StatusUnauthorized).
			End()
	}

	apitest.New().
		Handler(h).
		Post("/api/auth/login").
		JSON(`{"email":"alice@example.com","password":"s3cret!"}`).
		Expect(t).
		Status(http.StatusTooManyRequests).
		HeaderPresent("Retry-After").
		End()
}

func TestLogoutThenMe(t *testing.T) {
	h := newTestServer(t)
	cookie, userID := registerUser(t, h, "Alice", "alice@example.com")

	apitest.New().
		Handler(h).
		Get("/api/auth/me").
		Cookies(cookie).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.id", userID)).
		End()

	apitest.New().
		Handler(h).
		Post("/api/auth/logout").
		Cookies(cookie).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.message", "Logged out successfully")).
		End()
}

func TestOpenStoreRejectsUnknownScheme(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.DatabaseURL = "postgres://localhost/tasks"
	_, err := openStore(context.Background(), cfg)
	assert.Error(t, err)
}
