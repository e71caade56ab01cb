package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/civicreach/govlead/pkg/events"
	"github.com/civicreach/govlead/pkg/matching"
	"github.com/civicreach/govlead/pkg/merging"
	"github.com/civicreach/govlead/pkg/models"
	"github.com/civicreach/govlead/pkg/tracing"
	"github.com/civicreach/govlead/pkg/utils"
)

// DedupeHandler serves duplicate scanning, pre-insertion checks, and merges.
type DedupeHandler struct {
	matcher *matching.Engine
	merger  *merging.Engine
	emitter *events.Emitter
	logger  ectologger.Logger
}

// NewDedupeHandler creates a new dedupe handler
func NewDedupeHandler(matcher *matching.Engine, merger *merging.Engine, emitter *events.Emitter, logger ectologger.Logger) *DedupeHandler {
	return &DedupeHandler{
		matcher: matcher,
		merger:  merger,
		emitter: emitter,
		logger:  logger,
	}
}

// Register mounts the dedupe routes on the group.
func (h *DedupeHandler) Register(g *echo.Group) {
	g.GET("", h.Scan)
	g.POST("/check", h.Check)
	g.POST("/merge", h.Merge)
}

// Scan runs the full duplicate scan across every stored lead.
func (h *DedupeHandler) Scan(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.DedupeHandler.Scan")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	result, err := h.matcher.FindDuplicates(ctx)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}

// Check compares a candidate lead against the database before insertion.
func (h *DedupeHandler) Check(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.DedupeHandler.Check")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	candidate, err := utils.BindRequest[models.LeadCandidate](c)
	if err != nil {
		return err
	}

	matches, err := h.matcher.CheckCandidate(ctx, candidate)
	if err != nil {
		return err
	}

	if len(matches) > 0 && h.emitter != nil {
		if err := h.emitter.EmitDuplicateFound(ctx, &matches[0]); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("Failed to emit duplicate.found event")
		}
	}

	return SuccessResponse(c, map[string]any{
		"matches": matches,
	})
}

// Merge folds one duplicate lead into another.
func (h *DedupeHandler) Merge(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.DedupeHandler.Merge")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	req, err := utils.BindRequest[models.MergeLeadsRequest](c)
	if err != nil {
		return err
	}

	if req.KeepID == req.MergeID {
		return BadRequest("keepId and mergeId must be different leads")
	}

	merged, err := h.merger.MergeLeads(ctx, req.KeepID, req.MergeID)
	if err != nil {
		return err
	}
	if merged == nil {
		return NotFound("lead not found")
	}

	return SuccessResponse(c, merged)
}
