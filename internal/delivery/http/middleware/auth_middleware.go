package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"skillswap/internal/pkg/jwt"
	"skillswap/internal/pkg/response"
)

const (
	CtxUserIDKey = "user_id"
	CtxHandleKey = "handle"
)

// AuthMiddleware is the AuthContext boundary: it turns a bearer token into
// the authenticated requester id. Credential issuance lives elsewhere.
type AuthMiddleware struct {
	jwt jwt.Service
}

func NewAuthMiddleware(jwtSvc jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, response.MessageUnauthorized,
				response.ErrorPayload{Code: response.CodeUnauthorized}, nil)
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired",
					response.ErrorPayload{Code: response.CodeUnauthorized}, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token",
				response.ErrorPayload{Code: response.CodeUnauthorized}, err)
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxHandleKey, claims.Handle)

		return c.Next()
	}
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
