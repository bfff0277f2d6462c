// Package provider implements mail provider adapters.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/pkg/httputil"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"
	"github.com/Vansh1811/INBoxit-sub000/pkg/metrics"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const providerName = "gmail"

// Latency operation names recorded by the Gmail client.
const (
	OpMailList  = "mail.list"
	OpMailGet   = "mail.get"
	OpMailProbe = "mail.probe"
)

// detailHeaders are the only headers the classifier reads.
var detailHeaders = []string{"From", "Subject", "Date"}

// GmailConfig holds Gmail configuration.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides the API base URL. Empty uses Google's.
	Endpoint string
	// HTTPClient is the base transport under the OAuth layer.
	HTTPClient *http.Client

	Latency *metrics.LatencyRegistry
	Logger  *logger.Logger
}

// OAuthConfig builds the OAuth client configuration for read-only mailbox access.
func (c *GmailConfig) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// =============================================================================
// Client Factory
// =============================================================================

// GmailClientFactory builds Gmail clients that share one circuit breaker.
type GmailClientFactory struct {
	endpoint   string
	httpClient *http.Client
	latency    *metrics.LatencyRegistry
	log        *logger.Logger
	cb         *gobreaker.CircuitBreaker
}

// NewGmailClientFactory creates a new Gmail client factory.
func NewGmailClientFactory(cfg *GmailConfig) *GmailClientFactory {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.WithField("provider", providerName)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httputil.NewOptimizedClient(httputil.GmailClientConfig())
	}

	cbSettings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 5 consecutive failures, or 60% of at least 10 requests.
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		// Client errors are the caller's fault and do not count toward tripping.
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &GmailClientFactory{
		endpoint:   cfg.Endpoint,
		httpClient: httpClient,
		latency:    cfg.Latency,
		log:        log,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// NewMailClient binds a Gmail client to the credential's access token.
// The token is used as-is; refreshing is the token manager's job.
func (f *GmailClientFactory) NewMailClient(ctx context.Context, cred *domain.Credential) (out.MailClient, error) {
	if cred == nil || cred.AccessToken == "" {
		return nil, fmt.Errorf("gmail client: %w", domain.ErrReauthRequired)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
		Expiry:      cred.Expiry,
	})
	base := context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(base, src))}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &gmailClient{svc: svc, factory: f}, nil
}

// CircuitState returns the current state of the shared circuit breaker.
func (f *GmailClientFactory) CircuitState() string {
	return f.cb.State().String()
}

// =============================================================================
// Client
// =============================================================================

type gmailClient struct {
	svc     *gmail.Service
	factory *GmailClientFactory
}

// ListMessages lists one page of message stubs.
func (c *gmailClient) ListMessages(ctx context.Context, query string, maxResults int, cursor string) (*domain.MessagePage, error) {
	req := c.svc.Users.Messages.List("me")
	if query != "" {
		req = req.Q(query)
	}
	if maxResults > 0 {
		req = req.MaxResults(int64(maxResults))
	}
	if cursor != "" {
		req = req.PageToken(cursor)
	}

	var resp *gmail.ListMessagesResponse
	err := c.call(ctx, OpMailList, func() error {
		var apiErr error
		resp, apiErr = req.Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return nil, wrapError(err, "failed to list messages")
	}

	page := &domain.MessagePage{
		Stubs:      make([]domain.MessageStub, 0, len(resp.Messages)),
		NextCursor: resp.NextPageToken,
	}
	for _, m := range resp.Messages {
		if m == nil || m.Id == "" {
			continue
		}
		page.Stubs = append(page.Stubs, domain.MessageStub{ID: m.Id})
	}
	return page, nil
}

// GetMessageDetail fetches headers and snippet only.
func (c *gmailClient) GetMessageDetail(ctx context.Context, id string) (*domain.MessageDetail, error) {
	var msg *gmail.Message
	err := c.call(ctx, OpMailGet, func() error {
		var apiErr error
		msg, apiErr = c.svc.Users.Messages.Get("me", id).
			Format("metadata").
			MetadataHeaders(detailHeaders...).
			Context(ctx).
			Do()
		return apiErr
	})
	if err != nil {
		return nil, wrapError(err, "failed to get message")
	}
	return convertMessage(msg), nil
}

// Probe confirms the access token with a profile lookup.
func (c *gmailClient) Probe(ctx context.Context) error {
	err := c.call(ctx, OpMailProbe, func() error {
		_, apiErr := c.svc.Users.GetProfile("me").Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return wrapError(err, "failed to get profile")
	}
	return nil
}

func (c *gmailClient) call(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := c.factory.executeWithCircuitBreaker(op, fn)
	if c.factory.latency != nil {
		c.factory.latency.Observe(op, start, err)
	}
	if err != nil && ctx.Err() == nil {
		c.factory.log.WithError(err).Debug("%s failed", op)
	}
	return err
}

func convertMessage(msg *gmail.Message) *domain.MessageDetail {
	detail := &domain.MessageDetail{ID: msg.Id, Snippet: msg.Snippet}
	if msg.Payload == nil {
		return detail
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			detail.From = h.Value
		case "subject":
			detail.Subject = h.Value
		case "date":
			detail.Date = h.Value
		}
	}
	return detail
}

// =============================================================================
// Circuit Breaker
// =============================================================================

// executeWithCircuitBreaker runs fn under the shared breaker.
func (f *GmailClientFactory) executeWithCircuitBreaker(op string, fn func() error) error {
	_, err := f.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		f.log.Warn("circuit breaker rejected %s: state=%s", op, f.cb.State().String())
	}
	return err
}

func isClientError(err error) bool {
	code := apiStatus(err)
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

var _ out.MailClientFactory = (*GmailClientFactory)(nil)
var _ out.MailClient = (*gmailClient)(nil)
