// Package merging implements duplicate lead merging
package merging

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/civicreach/govlead/pkg/events"
	"github.com/civicreach/govlead/pkg/models"
	"github.com/civicreach/govlead/pkg/tracing"
)

// LeadStore is the persistence surface the merge engine needs. ApplyMerge
// must run the keep-lead update and the merge-lead delete in one transaction.
type LeadStore interface {
	GetByID(ctx context.Context, id int64) (*models.Lead, error)
	ApplyMerge(ctx context.Context, keepID int64, fields map[string]any, mergeID int64) (*models.Lead, error)
}

// Engine reconciles duplicate leads into a single surviving record.
type Engine struct {
	logger  ectologger.Logger
	store   LeadStore
	emitter *events.Emitter
}

// NewEngine creates a new merge engine
func NewEngine(logger ectologger.Logger, store LeadStore, emitter *events.Emitter) *Engine {
	return &Engine{
		logger:  logger,
		store:   store,
		emitter: emitter,
	}
}

// MergeLeads folds the merge lead into the keep lead and deletes it. Scalars
// from the merge lead fill gaps only; list fields are unioned. Returns
// (nil, nil) without touching either record when one of the ids is unknown.
func (e *Engine) MergeLeads(ctx context.Context, keepID, mergeID int64) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.MergeLeads")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"keep_id":  keepID,
		"merge_id": mergeID,
	})

	keep, err := e.store.GetByID(ctx, keepID)
	if err != nil {
		return nil, err
	}
	merge, err := e.store.GetByID(ctx, mergeID)
	if err != nil {
		return nil, err
	}
	if keep == nil || merge == nil {
		log.Warn("Merge skipped: one or both leads not found")
		return nil, nil
	}

	fields := reconcileFields(keep, merge)

	merged, err := e.store.ApplyMerge(ctx, keepID, fields, mergeID)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{"institution_name": merged.InstitutionName}).Info("Merged duplicate leads")

	// Event emission is best effort; the merge has already committed.
	if e.emitter != nil {
		if err := e.emitter.EmitLeadsMerged(ctx, merged, mergeID); err != nil {
			log.WithError(err).Warn("Failed to emit lead.merged event")
		}
	}

	return merged, nil
}

// reconcileFields builds the update applied to the keep lead.
func reconcileFields(keep, merge *models.Lead) map[string]any {
	fields := map[string]any{}

	setIfEmpty(fields, "phone", keep.Phone, merge.Phone)
	setIfEmpty(fields, "email", keep.Email, merge.Email)
	setIfEmpty(fields, "website", keep.Website, merge.Website)
	setIfEmpty(fields, "city", keep.City, merge.City)
	if keep.Population == 0 && merge.Population != 0 {
		fields["population"] = merge.Population
	}
	if keep.AnnualBudget == 0 && merge.AnnualBudget != 0 {
		fields["annualBudget"] = merge.AnnualBudget
	}
	if keep.TechMaturityScore == 0 && merge.TechMaturityScore != 0 {
		fields["techMaturityScore"] = merge.TechMaturityScore
	}

	fields["painPoints"] = models.StringList(UnionStrings(keep.PainPoints, merge.PainPoints))
	fields["techStack"] = models.StringList(UnionStrings(keep.TechStack, merge.TechStack))
	fields["buyingSignals"] = models.StringList(UnionStrings(keep.BuyingSignals, merge.BuyingSignals))
	fields["decisionMakers"] = models.DecisionMakers(UnionDecisionMakers(keep.DecisionMakers, merge.DecisionMakers))
	fields["recentNews"] = models.NewsItems(UnionNews(keep.RecentNews, merge.RecentNews))

	audit := fmt.Sprintf("Merged with lead #%d (%s) on %s", merge.ID, merge.InstitutionName, time.Now().UTC().Format(time.RFC3339))
	notes := keep.Notes
	if notes != "" {
		notes += "\n"
	}
	fields["notes"] = notes + audit

	return fields
}

func setIfEmpty(fields map[string]any, key, keepValue, mergeValue string) {
	if keepValue == "" && mergeValue != "" {
		fields[key] = mergeValue
	}
}
