package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/models"
)

func newRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client), mr
}

func TestRedisStorage(t *testing.T) {
	store, mr := newRedisStorage(t)

	val, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set("rl:login:1.2.3.4", []byte("3"), time.Minute))
	val, err = store.Get("rl:login:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
	assert.True(t, mr.Exists("nexus:limiter:rl:login:1.2.3.4"))

	mr.FastForward(2 * time.Minute)
	val, err = store.Get("rl:login:1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisStorageResetKeepsOtherKeys(t *testing.T) {
	store, mr := newRedisStorage(t)
	require.NoError(t, mr.Set("nexus:session:abc", "7"))
	require.NoError(t, store.Set("a", []byte("1"), 0))
	require.NoError(t, store.Set("b", []byte("2"), 0))

	require.NoError(t, store.Reset())

	assert.False(t, mr.Exists("nexus:limiter:a"))
	assert.False(t, mr.Exists("nexus:limiter:b"))
	assert.True(t, mr.Exists("nexus:session:abc"))
}

func TestLoginRateLimiterSharesRedisCounters(t *testing.T) {
	store, _ := newRedisStorage(t)

	app := fiber.New()
	app.Post("/login", LoginRateLimiter(2, store), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"wrong role", &models.User{Role: models.RoleLeader}, http.StatusForbidden},
		{"allowed", &models.User{Role: models.RoleManager}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				if tt.user != nil {
					c.Locals("user", tt.user)
				}
				return c.Next()
			}, RequireRole(models.RoleManager), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(token)
	})

	req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "from-cookie"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
