// Package auth keeps per-user mailbox credentials valid.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"
	"github.com/Vansh1811/INBoxit-sub000/pkg/metrics"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRefreshThreshold = 10 * time.Minute
	refreshTimeout          = 30 * time.Second
)

// RefreshResult is the credential a caller should use from now on.
type RefreshResult struct {
	Credential   domain.Credential
	WasRefreshed bool
}

// TokenManagerConfig configures the token manager.
type TokenManagerConfig struct {
	// RefreshThreshold is how close to expiry a credential gets refreshed.
	RefreshThreshold time.Duration
	Now              func() time.Time
	Latency          *metrics.LatencyRegistry
	Logger           *logger.Logger
}

// TokenManager refreshes credentials ahead of expiry and persists them
// through the user store. It holds no durable state of its own.
// Concurrent refreshes for the same user collapse into one grant.
type TokenManager struct {
	users     out.UserStore
	refresher out.TokenRefresher
	clients   out.MailClientFactory

	threshold time.Duration
	now       func() time.Time
	latency   *metrics.LatencyRegistry
	log       *logger.Logger

	flight singleflight.Group
}

func NewTokenManager(users out.UserStore, refresher out.TokenRefresher, clients out.MailClientFactory, cfg TokenManagerConfig) *TokenManager {
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = DefaultRefreshThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	return &TokenManager{
		users:     users,
		refresher: refresher,
		clients:   clients,
		threshold: cfg.RefreshThreshold,
		now:       cfg.Now,
		latency:   cfg.Latency,
		log:       cfg.Logger.WithField("component", "token_manager"),
	}
}

// ValidateAndRefresh returns the user's credential, refreshing it first
// when it expires within the threshold.
func (m *TokenManager) ValidateAndRefresh(ctx context.Context, user *domain.User) (*RefreshResult, error) {
	if user == nil {
		return nil, fmt.Errorf("validate credential: %w", domain.ErrUserNotFound)
	}

	cred := user.Credential
	if cred.AccessToken == "" {
		return nil, fmt.Errorf("user %s: no access token: %w", user.ID, domain.ErrReauthRequired)
	}
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("user %s: no refresh token: %w", user.ID, domain.ErrReauthRequired)
	}

	if !m.needsRefresh(cred) {
		return &RefreshResult{Credential: cred, WasRefreshed: false}, nil
	}

	v, err, shared := m.flight.Do(user.ID, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others sharing this call.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return m.refresh(rctx, user.ID, cred)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.log.WithField("user_id", user.ID).Debug("joined in-flight token refresh")
	}

	res := *v.(*RefreshResult)
	return &res, nil
}

// CreateAuthenticatedClient re-reads the user from the store, validates the
// credential and confirms it with one probe call before returning a client.
func (m *TokenManager) CreateAuthenticatedClient(ctx context.Context, userID string) (out.MailClient, error) {
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	res, err := m.ValidateAndRefresh(ctx, user)
	if err != nil {
		return nil, err
	}

	client, err := m.clients.NewMailClient(ctx, &res.Credential)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	if err := client.Probe(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func (m *TokenManager) needsRefresh(cred domain.Credential) bool {
	if !cred.HasExpiry() {
		return false
	}
	return cred.Expiry.Sub(m.now()) <= m.threshold
}

func (m *TokenManager) refresh(ctx context.Context, userID string, cred domain.Credential) (*RefreshResult, error) {
	log := m.log.WithField("user_id", userID)
	start := time.Now()

	tok, err := m.refresher.Refresh(ctx, cred.RefreshToken)
	if m.latency != nil {
		m.latency.Record("token.refresh", time.Since(start))
	}
	if err != nil {
		if isInvalidGrant(err) {
			log.WithError(err).Warn("refresh grant rejected, reauthentication required")
			return nil, fmt.Errorf("%w: %w", domain.ErrReauthRequired, err)
		}
		log.WithError(err).Warn("token refresh failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenRefreshTransient, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: provider returned no access token", domain.ErrTokenRefreshTransient)
	}

	update := domain.CredentialUpdate{
		AccessToken:     tok.AccessToken,
		Expiry:          tok.Expiry,
		LastRefreshedAt: m.now(),
	}
	if tok.RefreshToken != "" && tok.RefreshToken != cred.RefreshToken {
		rt := tok.RefreshToken
		update.RefreshToken = &rt
	}

	if err := m.users.UpdateCredential(ctx, userID, update); err != nil {
		return nil, fmt.Errorf("%w: persist credential: %w", domain.ErrTokenRefreshTransient, err)
	}

	log.WithDuration(time.Since(start)).Info("refreshed credential, expires %s", tok.Expiry.Format(time.RFC3339))
	return &RefreshResult{Credential: update.Apply(cred), WasRefreshed: true}, nil
}

// isInvalidGrant reports whether the provider rejected the refresh token itself.
func isInvalidGrant(err error) bool {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "Token has been expired or revoked") ||
		strings.Contains(errStr, "Token has been revoked")
}
