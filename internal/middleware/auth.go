package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BillMorio/Video-Agent-sub002/internal/auth"
	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

const tokenIssuer = "video-agent-api"

// AuthMiddleware validates HMAC-signed bearer tokens and, when a verifier
// is set, tokens from the OIDC provider
type AuthMiddleware struct {
	jwtSecret  string
	expiration time.Duration
	verifier   auth.TokenVerifier
}

type UserClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware creates the bearer auth middleware. expiration bounds
// tokens issued by GenerateToken; zero means they do not expire.
func NewAuthMiddleware(jwtSecret string, expiration time.Duration) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret, expiration: expiration}
}

// WithVerifier adds an external token verifier tried after the HMAC check
func (m *AuthMiddleware) WithVerifier(v auth.TokenVerifier) *AuthMiddleware {
	m.verifier = v
	return m
}

// Authenticate validates JWT token from Authorization header
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.jwtSecret == "" && m.verifier == nil {
			return response.Unauthorized(c, "Authentication not configured")
		}

		token, ok := bearerToken(c)
		if !ok {
			return response.Unauthorized(c, "Missing or malformed authorization header")
		}

		id, err := m.Identify(token)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userId", id.UserID)
		c.Locals("email", id.Email)

		return c.Next()
	}
}

// ForwardAuth answers gateway auth checks: 200 with X-User-* headers for a
// valid bearer token, 401 otherwise
func (m *AuthMiddleware) ForwardAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		id, err := m.Identify(token)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Set(headerUserID, id.UserID)
		c.Set(headerUserEmail, id.Email)
		return c.SendStatus(fiber.StatusOK)
	}
}

// Identify accepts a token signed with the shared secret or, failing that,
// one the external verifier accepts
func (m *AuthMiddleware) Identify(tokenString string) (*auth.Identity, error) {
	var hmacErr error
	if m.jwtSecret != "" {
		claims, err := m.Parse(tokenString)
		if err == nil {
			return &auth.Identity{UserID: claims.UserID, Email: claims.Email}, nil
		}
		hmacErr = err
	}
	if m.verifier != nil {
		return m.verifier.Verify(tokenString)
	}
	if hmacErr == nil {
		hmacErr = jwt.ErrTokenUnverifiable
	}
	return nil, hmacErr
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Parse validates a token string and returns its claims
func (m *AuthMiddleware) Parse(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// GenerateToken creates a signed token, used by studioctl and tests
func (m *AuthMiddleware) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tokenIssuer,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.expiration != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.expiration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.jwtSecret))
}
