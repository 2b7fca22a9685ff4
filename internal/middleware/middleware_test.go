package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BillMorio/Video-Agent-sub002/internal/auth"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (*auth.Identity, error) {
	if id, ok := s[token]; ok {
		return &auth.Identity{UserID: id, Email: id + "@idp.test"}, nil
	}
	return nil, errors.New("unknown token")
}

func whoami(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"userId": GetUserID(c)})
}

func TestAuthenticate(t *testing.T) {
	am := NewAuthMiddleware("test-secret", time.Hour)
	app := fiber.New()
	app.Get("/me", am.Authenticate(), whoami)

	token, err := am.GenerateToken("user-1", "user@example.com")
	require.NoError(t, err)

	forged, err := NewAuthMiddleware("other-secret", 0).GenerateToken("user-1", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, fiber.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var out map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &out))
			if tt.status == fiber.StatusOK {
				assert.Equal(t, "user-1", out["userId"])
			} else {
				assert.Equal(t, "UNAUTHORIZED", out["code"])
				assert.NotEmpty(t, out["error"])
			}
		})
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	am := NewAuthMiddleware("test-secret", -time.Minute)
	token, err := am.GenerateToken("user-1", "")
	require.NoError(t, err)

	_, err = am.Parse(token)
	assert.Error(t, err)
}

func TestIdentifyFallsBackToVerifier(t *testing.T) {
	am := NewAuthMiddleware("test-secret", 0).WithVerifier(stubVerifier{"oidc-token": "idp-user"})

	local, err := am.GenerateToken("user-1", "")
	require.NoError(t, err)

	id, err := am.Identify(local)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)

	id, err = am.Identify("oidc-token")
	require.NoError(t, err)
	assert.Equal(t, "idp-user", id.UserID)

	_, err = am.Identify("nope")
	assert.Error(t, err)

	onlyIdP := NewAuthMiddleware("", 0).WithVerifier(stubVerifier{"oidc-token": "idp-user"})
	app := fiber.New()
	app.Get("/me", onlyIdP.Authenticate(), whoami)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer oidc-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestForwardAuth(t *testing.T) {
	am := NewAuthMiddleware("test-secret", time.Hour)
	app := fiber.New()
	app.Get("/auth/verify", am.ForwardAuth())

	token, err := am.GenerateToken("user-1", "user@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-1", resp.Header.Get("X-User-Id"))
	assert.Equal(t, "user@example.com", resp.Header.Get("X-User-Email"))

	req = httptest.NewRequest("GET", "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer forged")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGatewayAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/me", GatewayAuthMiddleware(), whoami)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("X-User-Id", "gw-user")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	app := fiber.New()
	app.Get("/limited", NewRateLimiter(rdb).StitchLimit(1), whoami)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/limited", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
