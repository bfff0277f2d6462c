package provider

import (
	"context"
	"net/http"

	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/pkg/httputil"

	"golang.org/x/oauth2"
)

// GoogleTokenRefresher runs the refresh-token grant against Google's token endpoint.
type GoogleTokenRefresher struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewGoogleTokenRefresher creates a refresher. A nil httpClient uses a pooled default.
func NewGoogleTokenRefresher(config *oauth2.Config, httpClient *http.Client) *GoogleTokenRefresher {
	if httpClient == nil {
		httpClient = httputil.NewOptimizedClient(httputil.DefaultClientConfig())
	}
	return &GoogleTokenRefresher{config: config, httpClient: httpClient}
}

// Refresh exchanges the refresh token for a new access token.
// Errors are returned unwrapped so callers can inspect *oauth2.RetrieveError.
func (r *GoogleTokenRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	return r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

var _ out.TokenRefresher = (*GoogleTokenRefresher)(nil)
