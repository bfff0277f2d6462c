// Package scan discovers which platforms a user has signed up for by
// paging through their mailbox and classifying each sender.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/port/in"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/core/service/classification"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"
	"github.com/Vansh1811/INBoxit-sub000/pkg/resilience"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const enrichTimeout = 10 * time.Second

// ClientProvider hands out a mail client whose credential has been validated.
type ClientProvider interface {
	CreateAuthenticatedClient(ctx context.Context, userID string) (out.MailClient, error)
}

// Service runs scans. It keeps no per-scan state between calls; the cache
// is the only shared mutable state.
type Service struct {
	clients    ClientProvider
	classifier *classification.PlatformClassifier
	cache      out.Cache
	retry      *resilience.RetryPolicy
	enricher   out.LabelEnricher

	cfg      Config
	excluded map[string]struct{}

	now   func() time.Time
	newID func() string
	log   *logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

func WithRetryPolicy(p *resilience.RetryPolicy) Option {
	return func(s *Service) { s.retry = p }
}

// WithEnricher enables display-name suggestions for generated platform names.
func WithEnricher(e out.LabelEnricher) Option {
	return func(s *Service) { s.enricher = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(clients ClientProvider, classifier *classification.PlatformClassifier, cache out.Cache, cfg Config, opts ...Option) *Service {
	if classifier == nil {
		classifier = classification.NewPlatformClassifier(nil)
	}

	s := &Service{
		clients:    clients,
		classifier: classifier,
		cache:      cache,
		retry:      resilience.DefaultRetryPolicy(out.IsRetryable),
		cfg:        cfg.withDefaults(),
		now:        time.Now,
		newID:      uuid.NewString,
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "scan")

	s.excluded = make(map[string]struct{}, len(s.cfg.ExcludedDomains))
	for _, d := range s.cfg.ExcludedDomains {
		if nd, ok := classification.NormalizeDomain(d); ok {
			s.excluded[nd] = struct{}{}
		}
	}

	// Copy so the retry hook can log without touching the caller's policy.
	policy := *s.retry
	if policy.OnRetry == nil {
		log := s.log
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			log.WithError(err).Debug("retrying in %s (attempt %d)", delay, attempt+1)
		}
	}
	s.retry = &policy
	return s
}

// =============================================================================
// Scan
// =============================================================================

// Scan returns the deduplicated services found in the user's mailbox.
// A cached result is returned without remote calls unless ForceRefresh is set.
// ReauthRequired is returned as-is; only completed scans are cached.
func (s *Service) Scan(ctx context.Context, userID string, opts domain.ScanOptions) (*domain.ScanResult, error) {
	if err := checkUserID(userID); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = s.cfg.DefaultMaxMessages
	}

	key := ScanKey(userID, opts.Query, opts.MaxMessages)
	log := s.log.WithField("user_id", userID)

	if !opts.ForceRefresh {
		var cached domain.ScanResult
		hit, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			log.WithError(err).Warn("scan cache read failed")
		case hit:
			cached.FromCache = true
			log.WithField("scan_id", cached.ScanID).Debug("serving cached scan")
			return &cached, nil
		}
	}

	start := s.now()
	scanID := s.newID()
	log = log.WithField("scan_id", scanID)

	client, err := s.clients.CreateAuthenticatedClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	stubs, err := s.listAll(ctx, client, opts)
	if err != nil {
		log.WithError(err).Warn("listing aborted")
		return nil, err
	}

	details, skipped, err := s.fetchDetails(ctx, log, client, stubs)
	if err != nil {
		log.WithError(err).Warn("detail fetch aborted")
		return nil, err
	}

	records, discarded := s.fold(userID, details)
	s.enrich(ctx, log, userID, records)

	result := &domain.ScanResult{
		ScanID:    scanID,
		Services:  records,
		Listed:    len(stubs),
		Fetched:   len(details),
		Skipped:   skipped,
		Discarded: discarded,
		Duration:  s.now().Sub(start),
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
		log.WithError(err).Warn("scan cache write failed")
	}

	log.WithFields(map[string]any{
		"listed":    result.Listed,
		"fetched":   result.Fetched,
		"skipped":   result.Skipped,
		"discarded": result.Discarded,
		"services":  len(result.Services),
	}).WithDuration(result.Duration).Info("scan completed")
	return result, nil
}

// InvalidateUser drops every cached scan and label owned by the user.
func (s *Service) InvalidateUser(ctx context.Context, userID string) (int, error) {
	if err := checkUserID(userID); err != nil {
		return 0, fmt.Errorf("invalidate: %w", err)
	}
	n, err := s.cache.InvalidatePattern(ctx, UserPattern(userID))
	if err != nil {
		return n, fmt.Errorf("invalidate cache for %s: %w", userID, err)
	}
	s.log.WithField("user_id", userID).Info("invalidated %d cache entries", n)
	return n, nil
}

// =============================================================================
// Listing
// =============================================================================

// listAll pages through stubs until a page is empty, the budget is spent,
// or the API returns no cursor. A failed page is retried as the same request.
func (s *Service) listAll(ctx context.Context, client out.MailClient, opts domain.ScanOptions) ([]domain.MessageStub, error) {
	remaining := opts.MaxMessages
	cursor := ""
	stubs := make([]domain.MessageStub, 0, min(remaining, s.cfg.ServerBatchSize))

	for remaining > 0 {
		// Only follow-up pages carry a cursor.
		if cursor != "" {
			if err := pause(ctx, s.cfg.PageDelay); err != nil {
				return nil, err
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageSize := min(s.cfg.ServerBatchSize, remaining)
		page, err := resilience.Retry(ctx, s.retry, func(ctx context.Context) (*domain.MessagePage, error) {
			return client.ListMessages(ctx, opts.Query, pageSize, cursor)
		})
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		if page == nil || len(page.Stubs) == 0 {
			break
		}

		got := page.Stubs
		if len(got) > remaining {
			got = got[:remaining]
		}
		stubs = append(stubs, got...)
		remaining -= len(got)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return stubs, nil
}

// =============================================================================
// Detail Fetch
// =============================================================================

// fetchDetails fetches stubs chunk by chunk with at most ChunkSize in flight.
// A detail that still fails after retries is skipped; ReauthRequired and
// cancellation abort the whole fetch.
func (s *Service) fetchDetails(ctx context.Context, log *logger.Logger, client out.MailClient, stubs []domain.MessageStub) ([]*domain.MessageDetail, int, error) {
	details := make([]*domain.MessageDetail, 0, len(stubs))
	var skipped atomic.Int32

	for start := 0; start < len(stubs); start += s.cfg.ChunkSize {
		if start > 0 {
			if err := pause(ctx, s.cfg.ChunkDelay); err != nil {
				return nil, 0, err
			}
		}

		chunk := stubs[start:min(start+s.cfg.ChunkSize, len(stubs))]
		results := make([]*domain.MessageDetail, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.ChunkSize)
		for i, stub := range chunk {
			i, stub := i, stub
			g.Go(func() error {
				d, err := resilience.Retry(gctx, s.retry, func(ctx context.Context) (*domain.MessageDetail, error) {
					return client.GetMessageDetail(ctx, stub.ID)
				})
				if err != nil {
					if isAbort(err) || gctx.Err() != nil {
						return err
					}
					skipped.Add(1)
					log.WithField("message_id", stub.ID).WithError(err).Warn("skipping message detail")
					return nil
				}
				results[i] = d
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			return nil, 0, err
		}

		for _, d := range results {
			if d != nil {
				details = append(details, d)
			}
		}
	}
	return details, int(skipped.Load()), nil
}

func checkUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrUserNotFound
	}
	if !ValidUserID(userID) {
		return domain.ErrInvalidUserID
	}
	return nil
}

func isAbort(err error) bool {
	return errors.Is(err, domain.ErrReauthRequired) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// =============================================================================
// Classify + Dedupe
// =============================================================================

// fold classifies details in listing order, keeping the first record per domain.
func (s *Service) fold(userID string, details []*domain.MessageDetail) ([]domain.ServiceRecord, int) {
	seen := make(map[string]struct{}, len(details))
	records := make([]domain.ServiceRecord, 0, len(details))
	discarded := 0
	detectedAt := s.now()

	for _, d := range details {
		address, senderDomain, ok := classification.ExtractSenderDomain(d.From)
		if !ok || s.isExcluded(senderDomain) {
			discarded++
			continue
		}
		if _, dup := seen[senderDomain]; dup {
			continue
		}
		seen[senderDomain] = struct{}{}

		res := s.classifier.Classify(classification.Input{
			Domain:  senderDomain,
			From:    d.From,
			Subject: d.Subject,
			Snippet: d.Snippet,
		})

		rec := domain.ServiceRecord{
			ID:              s.newID(),
			UserID:          userID,
			Domain:          senderDomain,
			PlatformName:    res.PlatformName,
			Category:        res.Category,
			Confidence:      res.Confidence,
			DetectionMethod: res.DetectionMethod,
			SenderEmail:     address,
			Subject:         d.Subject,
			DateHeader:      d.Date,
			MessageID:       d.ID,
			DetectedAt:      detectedAt,
		}
		if t := d.ReceivedAt(); !t.IsZero() {
			rec.ReceivedAt = &t
		}
		records = append(records, rec)
	}
	return records, discarded
}

// isExcluded matches an excluded domain or any of its subdomains.
func (s *Service) isExcluded(d string) bool {
	for {
		if _, ok := s.excluded[d]; ok {
			return true
		}
		dot := strings.IndexByte(d, '.')
		if dot < 0 {
			return false
		}
		d = d[dot+1:]
	}
}

// =============================================================================
// Label Enrichment
// =============================================================================

// enrich replaces generated names with suggested ones. Failures keep the
// generated name and never fail the scan.
func (s *Service) enrich(ctx context.Context, log *logger.Logger, userID string, records []domain.ServiceRecord) {
	if s.enricher == nil {
		return
	}

	budget := s.cfg.MaxEnrichments
	for i := range records {
		rec := &records[i]
		if rec.DetectionMethod != domain.DetectionDomainGeneration {
			continue
		}

		key := LabelKey(userID, rec.Domain)
		var name string
		if hit, err := s.cache.Get(ctx, key, &name); err == nil && hit && name != "" {
			rec.PlatformName = name
			continue
		}
		if budget <= 0 {
			continue
		}
		budget--

		ectx, cancel := context.WithTimeout(ctx, enrichTimeout)
		name, err := s.enricher.SuggestName(ectx, rec.Domain, rec.SenderEmail, rec.Subject)
		cancel()
		name = strings.TrimSpace(name)
		if err != nil || name == "" {
			log.WithField("domain", rec.Domain).WithError(err).Debug("label enrichment unavailable")
			continue
		}

		rec.PlatformName = name
		if err := s.cache.Set(ctx, key, name, s.cfg.LabelTTL); err != nil {
			log.WithError(err).Debug("label memo write failed")
		}
	}
}

// =============================================================================
// Pacing
// =============================================================================

// pause holds the pipeline for delay after a page or chunk has finished.
func pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ in.ScanService = (*Service)(nil)
