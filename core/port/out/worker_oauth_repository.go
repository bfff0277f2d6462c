package out

import (
	"context"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"

	"golang.org/x/oauth2"
)

// UserStore is the source of truth for credentials.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpdateCredential writes only the fields carried by the update.
	UpdateCredential(ctx context.Context, userID string, update domain.CredentialUpdate) error
}

// TokenRefresher performs the refresh-token grant.
// Errors are returned as the OAuth library produced them.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}
