// Package events handles event emission for lead lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	appctx "github.com/civicreach/govlead/pkg/context"
	"github.com/civicreach/govlead/pkg/kafka"
	"github.com/civicreach/govlead/pkg/models"
	"github.com/civicreach/govlead/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes lead lifecycle events
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitLeadCreated emits a lead created event
func (e *Emitter) EmitLeadCreated(ctx context.Context, lead *models.Lead) error {
	return e.emitLeadSnapshot(ctx, "lead.created", lead)
}

// EmitLeadUpdated emits a lead updated event
func (e *Emitter) EmitLeadUpdated(ctx context.Context, lead *models.Lead) error {
	return e.emitLeadSnapshot(ctx, "lead.updated", lead)
}

// EmitLeadDeleted emits a lead deleted event
func (e *Emitter) EmitLeadDeleted(ctx context.Context, leadID int64) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitLeadDeleted")
	defer span.End()

	event := &kafka.LeadEvent{
		EventType: "lead.deleted",
		LeadID:    leadID,
		Actor:     appctx.GetActor(ctx),
	}

	if err := e.producer.PublishLeadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit lead.deleted event")
		return err
	}

	return nil
}

// EmitLeadsMerged emits a lead merged event carrying the surviving record and
// the id of the record that was folded into it.
func (e *Emitter) EmitLeadsMerged(ctx context.Context, merged *models.Lead, mergedFromID int64) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitLeadsMerged")
	defer span.End()

	payload := map[string]any{
		"schema_version": SchemaVersion,
		"merged_from_id": mergedFromID,
		"lead":           merged,
	}
	data, _ := json.Marshal(payload)

	event := &kafka.LeadEvent{
		EventType: "lead.merged",
		LeadID:    merged.ID,
		Actor:     appctx.GetActor(ctx),
		Data:      data,
	}

	if err := e.producer.PublishLeadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit lead.merged event")
		return err
	}

	return nil
}

// EmitDuplicateFound emits an event when a pre-insertion check or a scan
// flags a pair for review.
func (e *Emitter) EmitDuplicateFound(ctx context.Context, match *models.DuplicateMatch) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDuplicateFound")
	defer span.End()

	payload := map[string]any{
		"schema_version":   SchemaVersion,
		"lead_a_id":        match.LeadAID,
		"lead_b_id":        match.LeadBID,
		"similarity":       match.Similarity,
		"match_reasons":    match.MatchReasons,
		"suggested_action": match.SuggestedAction,
	}
	data, _ := json.Marshal(payload)

	event := &kafka.LeadEvent{
		EventType: "duplicate.found",
		LeadID:    match.LeadAID,
		Actor:     appctx.GetActor(ctx),
		Data:      data,
	}

	if err := e.producer.PublishLeadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit duplicate.found event")
		return err
	}

	return nil
}

func (e *Emitter) emitLeadSnapshot(ctx context.Context, eventType string, lead *models.Lead) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emitLeadSnapshot")
	defer span.End()

	data, err := json.Marshal(lead)
	if err != nil {
		return err
	}

	event := &kafka.LeadEvent{
		EventType: eventType,
		LeadID:    lead.ID,
		Actor:     appctx.GetActor(ctx),
		Data:      data,
	}

	if err := e.producer.PublishLeadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}
