package http

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/pkg/apperr"
	"github.com/Vansh1811/INBoxit-sub000/pkg/cache"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"
	"github.com/Vansh1811/INBoxit-sub000/pkg/metrics"
	"github.com/Vansh1811/INBoxit-sub000/pkg/response"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanService struct {
	mu          sync.Mutex
	result      *domain.ScanResult
	err         error
	gotUser     string
	gotOpts     domain.ScanOptions
	invalidated string
}

func (f *fakeScanService) Scan(_ context.Context, userID string, opts domain.ScanOptions) (*domain.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotUser = userID
	f.gotOpts = opts
	return f.result, f.err
}

func (f *fakeScanService) InvalidateUser(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = userID
	return 2, nil
}

type fakeServiceStore struct {
	mu    sync.Mutex
	saved map[string][]domain.ServiceRecord
	err   error
}

func (f *fakeServiceStore) SaveServices(_ context.Context, userID string, records []domain.ServiceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string][]domain.ServiceRecord)
	}
	f.saved[userID] = records
	return nil
}

func (f *fakeServiceStore) ListServices(_ context.Context, userID string) ([]domain.ServiceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[userID], nil
}

type fixedStats struct{ stats cache.Stats }

func (f fixedStats) Stats() cache.Stats { return f.stats }

func newTestApp(h *ScanHandler, userID string) *fiber.App {
	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	app.Use(func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	h.Register(app.Group("/api/v1"))
	return app
}

func decode(t *testing.T, body io.Reader) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func sampleResult() *domain.ScanResult {
	return &domain.ScanResult{
		ScanID: "scan-1",
		Services: []domain.ServiceRecord{
			{UserID: "u1", Domain: "netflix.com", PlatformName: "Netflix", Category: domain.CategoryEntertainment, Confidence: 95},
		},
		Listed:  1,
		Fetched: 1,
	}
}

func TestScanHandler_Scan(t *testing.T) {
	scans := &fakeScanService{result: sampleResult()}
	store := &fakeServiceStore{}
	h := NewScanHandler(scans, ScanHandlerConfig{Store: store, Logger: logger.Nop()})
	app := newTestApp(h, "u1")

	req := httptest.NewRequest("POST", "/api/v1/scan", strings.NewReader(`{"query":"from:netflix","maxMessages":50,"forceRefresh":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.True(t, body.Success)

	assert.Equal(t, "u1", scans.gotUser)
	assert.Equal(t, domain.ScanOptions{Query: "from:netflix", MaxMessages: 50, ForceRefresh: true}, scans.gotOpts)

	saved, _ := store.ListServices(context.Background(), "u1")
	require.Len(t, saved, 1)
	assert.Equal(t, "netflix.com", saved[0].Domain)
}

func TestScanHandler_CachedResultNotPersisted(t *testing.T) {
	result := sampleResult()
	result.FromCache = true
	store := &fakeServiceStore{}
	h := NewScanHandler(&fakeScanService{result: result}, ScanHandlerConfig{Store: store, Logger: logger.Nop()})
	app := newTestApp(h, "u1")

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/scan", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, store.saved)
}

func TestScanHandler_PersistFailureDoesNotFailScan(t *testing.T) {
	store := &fakeServiceStore{err: errors.New("mongo down")}
	h := NewScanHandler(&fakeScanService{result: sampleResult()}, ScanHandlerConfig{Store: store, Logger: logger.Nop()})
	app := newTestApp(h, "u1")

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/scan", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestScanHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"reauth", domain.ErrReauthRequired, fiber.StatusUnauthorized, apperr.CodeReauthRequired},
		{
			"token expired provider error",
			out.NewProviderError("gmail", out.ProviderErrTokenExpired, "expired", nil, false),
			fiber.StatusUnauthorized, apperr.CodeReauthRequired,
		},
		{"refresh transient", domain.ErrTokenRefreshTransient, fiber.StatusServiceUnavailable, apperr.CodeTokenRefreshFailed},
		{"unknown user", domain.ErrUserNotFound, fiber.StatusNotFound, apperr.CodeNotFound},
		{"user id with separator", domain.ErrInvalidUserID, fiber.StatusBadRequest, apperr.CodeInvalidInput},
		{
			"rate limited",
			out.NewProviderError("gmail", out.ProviderErrRateLimit, "slow down", nil, true),
			fiber.StatusTooManyRequests, apperr.CodeRateLimited,
		},
		{"other", errors.New("boom"), fiber.StatusBadGateway, apperr.CodeExternalError},
		{"deadline", context.DeadlineExceeded, fiber.StatusGatewayTimeout, apperr.CodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewScanHandler(&fakeScanService{err: tt.err}, ScanHandlerConfig{Logger: logger.Nop()})
			app := newTestApp(h, "u1")

			resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/scan", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decode(t, resp.Body)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestScanHandler_Validation(t *testing.T) {
	h := NewScanHandler(&fakeScanService{result: sampleResult()}, ScanHandlerConfig{Logger: logger.Nop()})

	t.Run("unauthenticated", func(t *testing.T) {
		resp, err := newTestApp(h, "").Test(httptest.NewRequest("POST", "/api/v1/scan", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("negative max", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/scan", strings.NewReader(`{"maxMessages":-1}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := newTestApp(h, "u1").Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/scan", strings.NewReader(`{"maxMessages":`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := newTestApp(h, "u1").Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestScanHandler_InvalidateCache(t *testing.T) {
	scans := &fakeScanService{}
	app := newTestApp(NewScanHandler(scans, ScanHandlerConfig{Logger: logger.Nop()}), "u1")

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/scan/cache", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "u1", scans.invalidated)

	body := decode(t, resp.Body)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, data["removed"])
}

func TestScanHandler_Stats(t *testing.T) {
	latency := metrics.NewLatencyRegistry(10)
	latency.Record("mail.list", 20*time.Millisecond)

	h := NewScanHandler(&fakeScanService{}, ScanHandlerConfig{
		Stats:   fixedStats{stats: cache.Stats{Keys: 3, Hits: 5}},
		Latency: latency,
		Logger:  logger.Nop(),
	})
	app := newTestApp(h, "u1")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/scan/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decode(t, resp.Body)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok)

	cacheStats, ok := data["cache"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, cacheStats["keys"])

	latencyStats, ok := data["latency"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, latencyStats, "mail.list")
}

func TestScanHandler_ListServices(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		app := newTestApp(NewScanHandler(&fakeScanService{}, ScanHandlerConfig{Logger: logger.Nop()}), "u1")
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/services", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("stored", func(t *testing.T) {
		store := &fakeServiceStore{}
		require.NoError(t, store.SaveServices(context.Background(), "u1", sampleResult().Services))

		app := newTestApp(NewScanHandler(&fakeScanService{}, ScanHandlerConfig{Store: store, Logger: logger.Nop()}), "u1")
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/services", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decode(t, resp.Body)
		data, ok := body.Data.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 1, data["total"])
	})
}
