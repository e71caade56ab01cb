// Package matching implements duplicate detection for leads
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/civicreach/govlead/pkg/models"
	"github.com/civicreach/govlead/pkg/normalizers"
	"github.com/civicreach/govlead/pkg/tracing"
)

// LeadSource provides the leads a scan runs against.
type LeadSource interface {
	ListAll(ctx context.Context) ([]models.Lead, error)
}

// Engine implements pairwise duplicate checks, full database scans, and
// pre-insertion candidate checks.
type Engine struct {
	logger ectologger.Logger
	leads  LeadSource
	scorer *Scorer
	config EngineConfig
}

// EngineConfig contains thresholds for the duplicate decision.
type EngineConfig struct {
	NameThreshold   int // Minimum name similarity for the name signal to count (default: 70)
	FieldThreshold  int // Minimum county/department similarity to count (default: 80)
	MinMatchScore   int // Weighted average below this is not a match (default: 60)
	MergeThreshold  int // Average at or above this suggests merge (default: 90)
	ReviewThreshold int // Average at or above this suggests review (default: 70)
	MinReasons      int // Matches need at least this many reasons (default: 2)
}

// DefaultConfig returns default engine configuration
func DefaultConfig() EngineConfig {
	return EngineConfig{
		NameThreshold:   70,
		FieldThreshold:  80,
		MinMatchScore:   60,
		MergeThreshold:  90,
		ReviewThreshold: 70,
		MinReasons:      2,
	}
}

// NewEngine creates a new duplicate detection engine
func NewEngine(logger ectologger.Logger, leads LeadSource, config EngineConfig) *Engine {
	return &Engine{
		logger: logger,
		leads:  leads,
		scorer: NewScorer(),
		config: config,
	}
}

// CheckDuplicate compares two leads and returns a match when they look like
// the same institution, or nil when they do not. Leads in different states
// are never duplicates.
func (e *Engine) CheckDuplicate(a, b *models.Lead) *models.DuplicateMatch {
	if a.State != b.State {
		return nil
	}

	total := 0
	factors := 0
	reasons := []string{}

	// Institution name carries double weight.
	nameSim := e.scorer.Similarity(a.InstitutionName, b.InstitutionName)
	if nameSim >= e.config.NameThreshold {
		total += nameSim * 2
		factors += 2
		reasons = append(reasons, fmt.Sprintf("Institution name %d%% similar", nameSim))
	}

	total += 100
	factors++
	reasons = append(reasons, "Same state")

	if a.County != "" && b.County != "" {
		countySim := e.scorer.Similarity(a.County, b.County)
		if countySim >= e.config.FieldThreshold {
			total += countySim
			factors++
			reasons = append(reasons, fmt.Sprintf("County name %d%% similar", countySim))
		}
	}

	if a.Department != "" && b.Department != "" {
		deptSim := e.scorer.Similarity(a.Department, b.Department)
		if deptSim >= e.config.FieldThreshold {
			total += deptSim
			factors++
			reasons = append(reasons, fmt.Sprintf("Department %d%% similar", deptSim))
		}
	}

	domainA := normalizers.EmailDomain(a.Email)
	domainB := normalizers.EmailDomain(b.Email)
	if domainA != "" && domainA == domainB {
		total += 100
		factors++
		reasons = append(reasons, "Same email domain")
	}

	phoneA := normalizers.NormalizePhone(a.Phone)
	phoneB := normalizers.NormalizePhone(b.Phone)
	if len(phoneA) >= 10 && phoneA == phoneB {
		total += 100
		factors++
		reasons = append(reasons, "Same phone number")
	}

	siteA := normalizers.NormalizeWebsite(a.Website)
	siteB := normalizers.NormalizeWebsite(b.Website)
	if siteA != "" && siteA == siteB {
		total += 100
		factors++
		reasons = append(reasons, "Same website")
	}

	similarity := int(math.Round(float64(total) / float64(factors)))

	if similarity < e.config.MinMatchScore || len(reasons) < e.config.MinReasons {
		return nil
	}

	action := models.ActionKeepBoth
	switch {
	case similarity >= e.config.MergeThreshold:
		action = models.ActionMerge
	case similarity >= e.config.ReviewThreshold:
		action = models.ActionReview
	}

	return &models.DuplicateMatch{
		LeadAID:         a.ID,
		LeadBID:         b.ID,
		Similarity:      similarity,
		MatchReasons:    reasons,
		SuggestedAction: action,
	}
}

// FindDuplicates scans every unordered pair of leads and groups matches under
// the lower id of the pair. Groups are not transitively closed: when A
// matches B and B matches C but A does not match C, the scan reports two
// groups (keyed A and B). Each lead is recorded as a duplicate at most once
// per scan.
func (e *Engine) FindDuplicates(ctx context.Context) (*models.DeduplicationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.FindDuplicates")
	defer span.End()

	leads, err := e.leads.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	log := e.logger.WithContext(ctx).WithFields(map[string]any{"lead_count": len(leads)})
	log.Debug("Scanning for duplicate leads")

	visited := make(map[string]struct{})
	assigned := make(map[int64]bool)
	groups := make(map[int64]*models.DuplicateGroup)

	for i := 0; i < len(leads); i++ {
		for j := i + 1; j < len(leads); j++ {
			a, b := &leads[i], &leads[j]

			lo, hi := a.ID, b.ID
			if lo > hi {
				lo, hi = hi, lo
			}
			pairKey := fmt.Sprintf("%d-%d", lo, hi)
			if _, seen := visited[pairKey]; seen {
				continue
			}
			visited[pairKey] = struct{}{}

			match := e.CheckDuplicate(a, b)
			if match == nil {
				continue
			}

			primary, duplicate := a, b
			if duplicate.ID < primary.ID {
				primary, duplicate = duplicate, primary
			}

			if assigned[duplicate.ID] {
				continue
			}

			group, ok := groups[primary.ID]
			if !ok {
				group = &models.DuplicateGroup{
					PrimaryLeadID:   primary.ID,
					PrimaryLeadName: primary.InstitutionName,
				}
				groups[primary.ID] = group
			}

			group.Duplicates = append(group.Duplicates, models.DuplicateEntry{
				LeadID:          duplicate.ID,
				InstitutionName: duplicate.InstitutionName,
				Similarity:      match.Similarity,
				MatchReasons:    match.MatchReasons,
			})
			assigned[duplicate.ID] = true
		}
	}

	result := &models.DeduplicationResult{
		TotalLeads:  len(leads),
		Groups:      make([]models.DuplicateGroup, 0, len(groups)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, group := range groups {
		result.Groups = append(result.Groups, *group)
		result.DuplicatesFound += len(group.Duplicates)
	}

	sort.SliceStable(result.Groups, func(i, j int) bool {
		if len(result.Groups[i].Duplicates) != len(result.Groups[j].Duplicates) {
			return len(result.Groups[i].Duplicates) > len(result.Groups[j].Duplicates)
		}
		return result.Groups[i].PrimaryLeadID < result.Groups[j].PrimaryLeadID
	})

	log.WithFields(map[string]any{
		"group_count":      len(result.Groups),
		"duplicates_found": result.DuplicatesFound,
	}).Info("Duplicate scan complete")

	return result, nil
}

// CheckCandidate compares an unsaved lead against every stored lead and
// returns matches sorted by similarity, best first. The candidate is reported
// with the transient id -1.
func (e *Engine) CheckCandidate(ctx context.Context, candidate models.LeadCandidate) ([]models.DuplicateMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.CheckCandidate")
	defer span.End()

	leads, err := e.leads.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	transient := candidate.ToLead()

	matches := []models.DuplicateMatch{}
	for i := range leads {
		if match := e.CheckDuplicate(transient, &leads[i]); match != nil {
			matches = append(matches, *match)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"institution_name": candidate.InstitutionName,
		"match_count":      len(matches),
	}).Debug("Checked candidate lead for duplicates")

	return matches, nil
}
