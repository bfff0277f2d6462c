package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Vansh1811/INBoxit-sub000/core/port/out"

	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
)

// Gmail reasons that signal quota or per-user rate limiting on a 403.
var rateLimitReasons = map[string]out.ProviderErrorCode{
	"rateLimitExceeded":     out.ProviderErrRateLimit,
	"userRateLimitExceeded": out.ProviderErrRateLimit,
	"quotaExceeded":         out.ProviderErrQuotaExceeded,
	"dailyLimitExceeded":    out.ProviderErrQuotaExceeded,
}

func apiStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// wrapError classifies a Gmail failure into a ProviderError.
// Rate limits, quota and 5xx responses are retryable; a 401 means the
// access token was rejected.
func wrapError(err error, defaultMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return out.NewProviderError(providerName, out.ProviderErrServer, "Circuit open", err, true)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return out.NewProviderError(providerName, out.ProviderErrTokenExpired, "Token expired", err, false)
		case apiErr.Code == http.StatusForbidden:
			if code, ok := rateLimitCode(apiErr); ok {
				return out.NewProviderError(providerName, code, "Rate limit exceeded", err, true)
			}
			return out.NewProviderError(providerName, out.ProviderErrAuth, "Access denied", err, false)
		case apiErr.Code == http.StatusNotFound:
			return out.NewProviderError(providerName, out.ProviderErrNotFound, "Not found", err, false)
		case apiErr.Code == http.StatusBadRequest:
			return out.NewProviderError(providerName, out.ProviderErrInvalidInput, "Invalid request", err, false)
		case apiErr.Code == http.StatusTooManyRequests:
			return out.NewProviderError(providerName, out.ProviderErrRateLimit, "Too many requests", err, true)
		case apiErr.Code >= 500:
			return out.NewProviderError(providerName, out.ProviderErrServer, "Server error", err, true)
		}
		return out.NewProviderError(providerName, out.ProviderErrServer, defaultMsg, err, false)
	}

	return out.NewProviderError(providerName, out.ProviderErrNetwork, defaultMsg, err, true)
}

func rateLimitCode(apiErr *googleapi.Error) (out.ProviderErrorCode, bool) {
	for _, item := range apiErr.Errors {
		if code, ok := rateLimitReasons[item.Reason]; ok {
			return code, true
		}
	}
	msg := strings.ToLower(apiErr.Message)
	switch {
	case strings.Contains(msg, "rate limit"):
		return out.ProviderErrRateLimit, true
	case strings.Contains(msg, "quota"):
		return out.ProviderErrQuotaExceeded, true
	}
	return "", false
}
