package out

import (
	"context"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
)

// ServiceStore persists detected services per user.
type ServiceStore interface {
	SaveServices(ctx context.Context, userID string, records []domain.ServiceRecord) error
	ListServices(ctx context.Context, userID string) ([]domain.ServiceRecord, error)
}
