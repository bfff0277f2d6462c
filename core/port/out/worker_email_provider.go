// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"
	"errors"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
)

// =============================================================================
// Mail Provider Port
// =============================================================================

// MailClient is a mailbox client bound to one user's credential.
type MailClient interface {
	// ListMessages returns one page of stubs. An empty cursor requests the first page.
	ListMessages(ctx context.Context, query string, maxResults int, cursor string) (*domain.MessagePage, error)

	// GetMessageDetail fetches the From/Subject/Date headers and snippet.
	GetMessageDetail(ctx context.Context, id string) (*domain.MessageDetail, error)

	// Probe makes one cheap authenticated call to confirm the credential works.
	Probe(ctx context.Context) error
}

// MailClientFactory builds clients bound to a credential.
type MailClientFactory interface {
	NewMailClient(ctx context.Context, cred *domain.Credential) (MailClient, error)
}

// =============================================================================
// Errors
// =============================================================================

// ProviderErrorCode represents error codes.
type ProviderErrorCode string

const (
	ProviderErrAuth          ProviderErrorCode = "auth_error"
	ProviderErrTokenExpired  ProviderErrorCode = "token_expired"
	ProviderErrRateLimit     ProviderErrorCode = "rate_limit"
	ProviderErrQuotaExceeded ProviderErrorCode = "quota_exceeded"
	ProviderErrNotFound      ProviderErrorCode = "not_found"
	ProviderErrNetwork       ProviderErrorCode = "network_error"
	ProviderErrServer        ProviderErrorCode = "server_error"
	ProviderErrInvalidInput  ProviderErrorCode = "invalid_input"
)

// ProviderError represents a provider error.
type ProviderError struct {
	Provider  string
	Code      ProviderErrorCode
	Message   string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, domain.ErrReauthRequired) see through a rejected token.
func (e *ProviderError) Is(target error) bool {
	return target == domain.ErrReauthRequired && e.Code == ProviderErrTokenExpired
}

// NewProviderError creates a new provider error.
func NewProviderError(provider string, code ProviderErrorCode, message string, err error, retryable bool) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// IsRetryable reports whether err is a rate-limit, quota or transient server signal.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// IsRateLimited reports whether err is a rate-limit or quota signal.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code == ProviderErrRateLimit || pe.Code == ProviderErrQuotaExceeded
	}
	return false
}
