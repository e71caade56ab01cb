package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	leadrepo "github.com/civicreach/govlead/internal/repositories/lead"
	"github.com/civicreach/govlead/pkg/enrichment"
	"github.com/civicreach/govlead/pkg/events"
	"github.com/civicreach/govlead/pkg/merging"
	"github.com/civicreach/govlead/pkg/models"
	"github.com/civicreach/govlead/pkg/tracing"
	"github.com/civicreach/govlead/pkg/utils"
)

// LeadHandler serves lead CRUD, enrichment, and scoring endpoints.
type LeadHandler struct {
	repo     *leadrepo.Repository
	enricher *enrichment.Enricher
	emitter  *events.Emitter
	logger   ectologger.Logger
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(repo *leadrepo.Repository, enricher *enrichment.Enricher, emitter *events.Emitter, logger ectologger.Logger) *LeadHandler {
	return &LeadHandler{
		repo:     repo,
		enricher: enricher,
		emitter:  emitter,
		logger:   logger,
	}
}

// Register mounts the lead routes on the group.
func (h *LeadHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/enrich", h.Enrich)
	g.POST("/:id/score", h.Score)
}

// List returns leads filtered by state/status with limit/offset paging.
func (h *LeadHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.LeadHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	filter := leadrepo.ListFilter{
		State:  c.QueryParam("state"),
		Status: c.QueryParam("status"),
		Limit:  QueryInt(c, "limit", 100),
		Offset: QueryInt(c, "offset", 0),
	}

	leads, err := h.repo.List(ctx, filter)
	if err != nil {
		return err
	}

	return SuccessResponse(c, leads)
}

// Create inserts a new lead. Duplicate checking is a separate explicit call
// (POST /duplicates/check); creation never blocks on it.
func (h *LeadHandler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.LeadHandler.Create")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	req, err := utils.BindRequest[models.CreateLeadRequest](c)
	if err != nil {
		return err
	}

	lead := req.ToLead()
	lead.LeadScore = enrichment.ScoreLead(lead)

	created, err := h.repo.Create(ctx, lead)
	if err != nil {
		return err
	}

	if h.emitter != nil {
		if err := h.emitter.EmitLeadCreated(ctx, created); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("Failed to emit lead.created event")
		}
	}

	return CreatedResponse(c, created)
}

// Get returns a single lead.
func (h *LeadHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.LeadHandler.Get")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	lead, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lead == nil {
		return NotFound("lead not found")
	}

	return SuccessResponse(c, lead)
}

// Update applies a partial update.
func (h *LeadHandler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.LeadHandler.Update")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.UpdateLeadRequest](c)
	if err != nil {
		return err
	}

	fields := req.Fields()
	if len(fields) == 0 {
		return BadRequest("no fields to update")
	}

	updated, err := h.repo.Update(ctx, id, fields)
	if err != nil {
		return err
	}
	if updated == nil {
		return NotFound("lead not found")
	}

	if h.emitter != nil {
		if err := h.emitter.EmitLeadUpdated(ctx, updated); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("Failed to emit lead.updated event")
		}
	}

	return SuccessResponse(c, updated)
}

// Delete removes a lead.
func (h *LeadHandler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.LeadHandler.Delete")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return NotFound("lead not found")
	}

	if h.emitter != nil {
		if err := h.emitter.EmitLeadDeleted(ctx, id); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("Failed to emit lead.deleted event")
		}
	}

	return NoContentResponse(c)
}

// Enrich asks the LLM for qualitative signals, unions them into the lead, and
// rescores it.
func (h *LeadHandler) Enrich(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.LeadHandler.Enrich")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	lead, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lead == nil {
		return NotFound("lead not found")
	}

	result, err := h.enricher.EnrichLead(ctx, lead)
	if err != nil {
		return err
	}

	enriched := *lead
	enriched.PainPoints = merging.UnionStrings(lead.PainPoints, result.PainPoints)
	enriched.TechStack = merging.UnionStrings(lead.TechStack, result.TechStack)
	enriched.BuyingSignals = merging.UnionStrings(lead.BuyingSignals, result.BuyingSignals)

	fields := map[string]any{
		"painPoints":    models.StringList(enriched.PainPoints),
		"techStack":     models.StringList(enriched.TechStack),
		"buyingSignals": models.StringList(enriched.BuyingSignals),
		"leadScore":     enrichment.ScoreLead(&enriched),
	}

	updated, err := h.repo.Update(ctx, id, fields)
	if err != nil {
		return err
	}
	if updated == nil {
		return NotFound("lead not found")
	}

	if h.emitter != nil {
		if err := h.emitter.EmitLeadUpdated(ctx, updated); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("Failed to emit lead.updated event")
		}
	}

	return SuccessResponse(c, map[string]any{
		"lead":    updated,
		"summary": result.Summary,
	})
}

// Score recomputes the lead score without touching other fields.
func (h *LeadHandler) Score(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "handlers.LeadHandler.Score")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	lead, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lead == nil {
		return NotFound("lead not found")
	}

	score := enrichment.ScoreLead(lead)
	if score != lead.LeadScore {
		if _, err := h.repo.Update(ctx, id, map[string]any{"leadScore": score}); err != nil {
			return err
		}
	}

	return SuccessResponse(c, map[string]any{
		"leadId":    id,
		"leadScore": score,
	})
}
