package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/pkg/apperr"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"
	"github.com/Vansh1811/INBoxit-sub000/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// clockSkew is how far in the future an iat claim may lie.
const clockSkew = time.Minute

// JWTAuth validates HS256 bearer tokens and stores the "sub" claim as
// the user id in c.Locals("user_id").
func JWTAuth(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
	)

	return func(c *fiber.Ctx) error {
		// Skip auth for CORS preflight requests
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			return response.Unauthorized(c, "missing bearer token")
		}

		token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if secret == "" {
				return nil, fmt.Errorf("JWT secret not configured")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logger.WithError(err).Warn("JWT validation failed")
			return response.AppError(c, apperr.InvalidToken("invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return response.AppError(c, apperr.InvalidToken("invalid claims"))
		}

		// Reject tokens issued too far in the future
		if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
			if iat.After(time.Now().Add(clockSkew)) {
				return response.AppError(c, apperr.InvalidToken("token issued in the future"))
			}
		}

		userID, err := claims.GetSubject()
		if err != nil || strings.TrimSpace(userID) == "" {
			return response.AppError(c, apperr.InvalidToken("missing user id in token"))
		}

		email, _ := claims["email"].(string)

		c.Locals("user_id", userID)
		c.Locals("user_email", email)

		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
