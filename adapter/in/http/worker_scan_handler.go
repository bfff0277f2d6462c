package http

import (
	"context"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/port/in"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/pkg/apperr"
	"github.com/Vansh1811/INBoxit-sub000/pkg/cache"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"
	"github.com/Vansh1811/INBoxit-sub000/pkg/metrics"
	"github.com/Vansh1811/INBoxit-sub000/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const persistTimeout = 10 * time.Second

// CacheStatsProvider is implemented by the in-process cache backends.
type CacheStatsProvider interface {
	Stats() cache.Stats
}

// ScanHandler exposes mailbox scans over HTTP.
type ScanHandler struct {
	scans   in.ScanService
	store   out.ServiceStore
	stats   CacheStatsProvider
	latency *metrics.LatencyRegistry
	log     *logger.Logger
}

// ScanHandlerConfig holds the optional collaborators of ScanHandler.
type ScanHandlerConfig struct {
	Store   out.ServiceStore
	Stats   CacheStatsProvider
	Latency *metrics.LatencyRegistry
	Logger  *logger.Logger
}

func NewScanHandler(scans in.ScanService, cfg ScanHandlerConfig) *ScanHandler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	return &ScanHandler{
		scans:   scans,
		store:   cfg.Store,
		stats:   cfg.Stats,
		latency: cfg.Latency,
		log:     cfg.Logger.WithField("component", "scan_handler"),
	}
}

// Register registers scan routes.
func (h *ScanHandler) Register(router fiber.Router) {
	scan := router.Group("/scan")
	scan.Post("/", h.Scan)
	scan.Delete("/cache", h.InvalidateCache)
	scan.Get("/stats", h.Stats)

	router.Get("/services", h.ListServices)
}

type scanRequest struct {
	Query        string `json:"query"`
	MaxMessages  int    `json:"maxMessages"`
	ForceRefresh bool   `json:"forceRefresh"`
}

// Scan runs a discovery scan for the current user.
// POST /api/v1/scan
func (h *ScanHandler) Scan(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "")
	}

	var req scanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "invalid request body")
		}
	}
	if req.MaxMessages < 0 {
		return response.AppError(c, apperr.InvalidInput("maxMessages", "must not be negative"))
	}

	result, err := h.scans.Scan(c.UserContext(), userID, domain.ScanOptions{
		Query:        req.Query,
		MaxMessages:  req.MaxMessages,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		h.log.WithField("user_id", userID).WithError(err).Warn("scan failed")
		return errorResponse(c, err)
	}

	if h.store != nil && !result.FromCache {
		h.persist(c.UserContext(), userID, result)
	}

	return response.OK(c, result)
}

// persist stores the records; a failure is logged and does not fail the scan.
func (h *ScanHandler) persist(ctx context.Context, userID string, result *domain.ScanResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := h.store.SaveServices(ctx, userID, result.Services); err != nil {
		h.log.WithFields(map[string]any{
			"user_id": userID,
			"scan_id": result.ScanID,
		}).WithError(err).Warn("failed to persist detected services")
	}
}

// InvalidateCache drops every cached entry of the current user.
// DELETE /api/v1/scan/cache
func (h *ScanHandler) InvalidateCache(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "")
	}

	removed, err := h.scans.InvalidateUser(c.UserContext(), userID)
	if err != nil {
		return response.AppError(c, apperr.InternalWithError(err))
	}

	return response.OK(c, fiber.Map{"removed": removed})
}

// Stats returns cache counters and remote call latency.
// GET /api/v1/scan/stats
func (h *ScanHandler) Stats(c *fiber.Ctx) error {
	data := fiber.Map{}

	if h.stats != nil {
		data["cache"] = h.stats.Stats()
	}

	if h.latency != nil {
		latency := make(map[string]any)
		for op, s := range h.latency.AllStats() {
			latency[op] = s.ToMap()
		}
		data["latency"] = latency
	}

	return response.OK(c, data)
}

// ListServices returns the services last persisted for the current user.
// GET /api/v1/services
func (h *ScanHandler) ListServices(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "")
	}

	if h.store == nil {
		return response.Error(c, fiber.StatusServiceUnavailable, apperr.CodeInternalError, "service store not configured")
	}

	records, err := h.store.ListServices(c.UserContext(), userID)
	if err != nil {
		return response.AppError(c, apperr.InternalWithError(err))
	}

	return response.OK(c, fiber.Map{
		"services": records,
		"total":    len(records),
	})
}
