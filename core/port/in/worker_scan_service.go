package in

import (
	"context"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
)

type ScanService interface {
	// Scan discovers the signup services in one user's mailbox.
	Scan(ctx context.Context, userID string, opts domain.ScanOptions) (*domain.ScanResult, error)

	// InvalidateUser clears every cached entry belonging to the user.
	InvalidateUser(ctx context.Context, userID string) (int, error)
}
