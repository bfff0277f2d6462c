package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vansh1811/INBoxit-sub000/config"
	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/service/scan"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"
)

// Scanner runs one scan outside the HTTP server, for operators and cron jobs.
type Scanner struct {
	deps    *Dependencies
	users   userSaver
	persist bool
}

type userSaver interface {
	SaveUser(ctx context.Context, user *domain.User) error
}

func NewScanner(ctx context.Context, cfg *config.Config) (*Scanner, func(), error) {
	deps, cleanup, err := NewDependencies(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return &Scanner{deps: deps, users: deps.UserStore, persist: deps.ServiceStore != nil}, cleanup, nil
}

// Seed stores a user with a credential obtained outside this service, e.g.
// from an OAuth playground, so the user can be scanned.
func (s *Scanner) Seed(ctx context.Context, user *domain.User) error {
	if user == nil || !scan.ValidUserID(user.ID) {
		return fmt.Errorf("seed user: %w", domain.ErrInvalidUserID)
	}
	if user.Credential.AccessToken == "" || user.Credential.RefreshToken == "" {
		return errors.New("seed user: access and refresh tokens are required")
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("seed user %s: %w", user.ID, err)
	}

	logger.WithField("user_id", user.ID).Info("seeded user credential")
	return nil
}

// Run scans the user's mailbox and stores the records when a service store
// is configured. A storage failure is logged and the result is still returned.
func (s *Scanner) Run(ctx context.Context, userID string, opts domain.ScanOptions) (*domain.ScanResult, error) {
	result, err := s.deps.ScanService.Scan(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("scan user %s: %w", userID, err)
	}

	if s.persist && !result.FromCache {
		if err := s.deps.ServiceStore.SaveServices(ctx, userID, result.Services); err != nil {
			logger.WithField("scan_id", result.ScanID).WithError(err).Warn("failed to persist detected services")
		}
	}

	logger.WithFields(map[string]any{
		"user_id":    userID,
		"scan_id":    result.ScanID,
		"services":   len(result.Services),
		"from_cache": result.FromCache,
	}).Info("scan finished")

	return result, nil
}
