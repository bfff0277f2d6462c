package out

import "context"

// LabelEnricher suggests a human display name for an unrecognised sender domain.
type LabelEnricher interface {
	SuggestName(ctx context.Context, domain, from, subject string) (string, error)
}
