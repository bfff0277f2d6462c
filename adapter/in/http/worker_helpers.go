package http

import (
	"context"
	"errors"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/pkg/apperr"
	"github.com/Vansh1811/INBoxit-sub000/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const mailProvider = "gmail"

var ErrUnauthorized = errors.New("unauthorized")

// GetUserID extracts the authenticated user id set by the auth middleware.
func GetUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// toAppError maps scan and store errors onto API error codes.
// Order matters: a token_expired provider error also matches ErrReauthRequired.
func toAppError(err error) *apperr.AppError {
	var appErr *apperr.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domain.ErrReauthRequired):
		return apperr.ReauthRequired(err)
	case errors.Is(err, domain.ErrTokenRefreshTransient):
		return apperr.TokenRefreshFailed(err)
	case errors.Is(err, domain.ErrUserNotFound):
		return apperr.NotFound("user")
	case errors.Is(err, domain.ErrInvalidUserID):
		return apperr.InvalidInput("user_id", "must not contain ':'")
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Timeout("scan")
	case out.IsRateLimited(err):
		return apperr.RateLimited(mailProvider, err)
	default:
		return apperr.ExternalError(mailProvider, err)
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return response.AppError(c, toAppError(err))
}
