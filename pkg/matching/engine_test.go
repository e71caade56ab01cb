package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicreach/govlead/pkg/models"
)

type fakeLeadSource struct {
	leads []models.Lead
	err   error
}

func (f *fakeLeadSource) ListAll(_ context.Context) ([]models.Lead, error) {
	return f.leads, f.err
}

func newTestEngine(leads []models.Lead) *Engine {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewEngine(logger, &fakeLeadSource{leads: leads}, DefaultConfig())
}

func TestEngine_CheckDuplicate(t *testing.T) {
	engine := newTestEngine(nil)

	t.Run("different states are never duplicates", func(t *testing.T) {
		a := &models.Lead{ID: 1, InstitutionName: "Franklin County", State: "OH"}
		b := &models.Lead{ID: 2, InstitutionName: "Franklin County", State: "PA"}
		assert.Nil(t, engine.CheckDuplicate(a, b))
	})

	t.Run("same state alone is not enough", func(t *testing.T) {
		a := &models.Lead{ID: 1, InstitutionName: "Oakland Unified", State: "CA"}
		b := &models.Lead{ID: 2, InstitutionName: "Fresno Irrigation", State: "CA"}
		assert.Nil(t, engine.CheckDuplicate(a, b))
	})

	t.Run("identical names suggest merge", func(t *testing.T) {
		a := &models.Lead{ID: 1, InstitutionName: "Franklin County Office", State: "OH"}
		b := &models.Lead{ID: 2, InstitutionName: "Franklin County", State: "OH"}

		match := engine.CheckDuplicate(a, b)
		require.NotNil(t, match)
		assert.Equal(t, int64(1), match.LeadAID)
		assert.Equal(t, int64(2), match.LeadBID)
		assert.Equal(t, 100, match.Similarity)
		assert.Equal(t, []string{"Institution name 100% similar", "Same state"}, match.MatchReasons)
		assert.Equal(t, models.ActionMerge, match.SuggestedAction)
	})

	t.Run("similar names suggest review", func(t *testing.T) {
		a := &models.Lead{ID: 1, InstitutionName: "Greenville Housing Authority", State: "SC"}
		b := &models.Lead{ID: 2, InstitutionName: "Greenville Housing Auth", State: "SC"}

		match := engine.CheckDuplicate(a, b)
		require.NotNil(t, match)
		// name 82 weighted twice plus state: (82*2 + 100) / 3
		assert.Equal(t, 88, match.Similarity)
		assert.Equal(t, []string{"Institution name 82% similar", "Same state"}, match.MatchReasons)
		assert.Equal(t, models.ActionReview, match.SuggestedAction)
	})

	t.Run("matching counties and departments add reasons", func(t *testing.T) {
		a := &models.Lead{
			ID: 1, InstitutionName: "Greenville Housing Authority", State: "SC",
			County: "Pickens", Department: "Public Works",
		}
		b := &models.Lead{
			ID: 2, InstitutionName: "Greenville Housing Auth", State: "SC",
			County: "Pickens", Department: "Public Works",
		}

		match := engine.CheckDuplicate(a, b)
		require.NotNil(t, match)
		assert.Contains(t, match.MatchReasons, "County name 100% similar")
		assert.Contains(t, match.MatchReasons, "Department 100% similar")
		// (82*2 + 100 + 100 + 100) / 5
		assert.Equal(t, 93, match.Similarity)
		assert.Equal(t, models.ActionMerge, match.SuggestedAction)
	})

	t.Run("abbreviated name with matching department", func(t *testing.T) {
		a := &models.Lead{ID: 1, InstitutionName: "Jefferson County", State: "AL", Department: "Information Technology"}
		b := &models.Lead{ID: 2, InstitutionName: "Jefferson Co", State: "AL", Department: "Information Technology"}

		match := engine.CheckDuplicate(a, b)
		require.NotNil(t, match)
		// name 75 weighted twice, state, department: (75*2 + 100 + 100) / 4
		assert.Equal(t, 88, match.Similarity)
		assert.Equal(t, models.ActionReview, match.SuggestedAction)
	})

	t.Run("dissimilar counties are ignored", func(t *testing.T) {
		a := &models.Lead{ID: 1, InstitutionName: "Franklin", State: "OH", County: "Marion"}
		b := &models.Lead{ID: 2, InstitutionName: "Franklin", State: "OH", County: "Morgan"}

		match := engine.CheckDuplicate(a, b)
		require.NotNil(t, match)
		assert.Len(t, match.MatchReasons, 2)
		assert.Equal(t, 100, match.Similarity)
	})

	t.Run("shared contact details match without similar names", func(t *testing.T) {
		a := &models.Lead{
			ID: 1, InstitutionName: "Pickens Transit", State: "SC",
			Email: "dispatch@greenvillesc.gov", Phone: "(864) 555-0100",
			Website: "https://www.greenvillesc.gov/",
		}
		b := &models.Lead{
			ID: 2, InstitutionName: "Greenville Housing Authority", State: "SC",
			Email: "clerk@greenvillesc.gov", Phone: "864-555-0100",
			Website: "greenvillesc.gov",
		}

		match := engine.CheckDuplicate(a, b)
		require.NotNil(t, match)
		assert.Equal(t, []string{"Same state", "Same email domain", "Same phone number", "Same website"}, match.MatchReasons)
		assert.Equal(t, 100, match.Similarity)
		assert.Equal(t, models.ActionMerge, match.SuggestedAction)
	})

	t.Run("short phone numbers never count", func(t *testing.T) {
		a := &models.Lead{ID: 1, InstitutionName: "Pickens Transit", State: "SC", Phone: "555-0100"}
		b := &models.Lead{ID: 2, InstitutionName: "Greenville Housing", State: "SC", Phone: "555-0100"}
		assert.Nil(t, engine.CheckDuplicate(a, b))
	})

	t.Run("empty emails never share a domain", func(t *testing.T) {
		a := &models.Lead{ID: 1, InstitutionName: "Pickens Transit", State: "SC"}
		b := &models.Lead{ID: 2, InstitutionName: "Greenville Housing", State: "SC"}
		assert.Nil(t, engine.CheckDuplicate(a, b))
	})
}

func TestEngine_CheckDuplicate_Thresholds(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	a := &models.Lead{ID: 1, InstitutionName: "Greenville Housing Authority", State: "SC"}
	b := &models.Lead{ID: 2, InstitutionName: "Greenville Housing Auth", State: "SC"}

	t.Run("below minimum match score", func(t *testing.T) {
		config := DefaultConfig()
		config.MinMatchScore = 95
		engine := NewEngine(logger, &fakeLeadSource{}, config)
		assert.Nil(t, engine.CheckDuplicate(a, b))
	})

	t.Run("below review threshold keeps both", func(t *testing.T) {
		config := DefaultConfig()
		config.MergeThreshold = 95
		config.ReviewThreshold = 90
		engine := NewEngine(logger, &fakeLeadSource{}, config)

		match := engine.CheckDuplicate(a, b)
		require.NotNil(t, match)
		assert.Equal(t, 88, match.Similarity)
		assert.Equal(t, models.ActionKeepBoth, match.SuggestedAction)
	})

	t.Run("raised name threshold drops the name signal", func(t *testing.T) {
		config := DefaultConfig()
		config.NameThreshold = 90
		engine := NewEngine(logger, &fakeLeadSource{}, config)
		assert.Nil(t, engine.CheckDuplicate(a, b))
	})
}

func TestEngine_FindDuplicates(t *testing.T) {
	ctx := context.Background()

	t.Run("groups duplicates under the lowest id", func(t *testing.T) {
		engine := newTestEngine([]models.Lead{
			{ID: 1, InstitutionName: "Franklin County Office", State: "OH"},
			{ID: 2, InstitutionName: "Franklin County", State: "OH"},
			{ID: 3, InstitutionName: "Franklin", State: "OH"},
		})

		result, err := engine.FindDuplicates(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, result.TotalLeads)
		assert.Equal(t, 2, result.DuplicatesFound)
		require.Len(t, result.Groups, 1)

		group := result.Groups[0]
		assert.Equal(t, int64(1), group.PrimaryLeadID)
		assert.Equal(t, "Franklin County Office", group.PrimaryLeadName)
		require.Len(t, group.Duplicates, 2)
		assert.Equal(t, int64(2), group.Duplicates[0].LeadID)
		assert.Equal(t, int64(3), group.Duplicates[1].LeadID)
		assert.False(t, result.GeneratedAt.IsZero())
	})

	t.Run("groups are not transitively closed", func(t *testing.T) {
		// 1 matches 2 by name; 2 matches 3 by contact details; 1 and 3
		// share nothing but state.
		engine := newTestEngine([]models.Lead{
			{ID: 1, InstitutionName: "Greenville Housing Authority", State: "SC"},
			{
				ID: 2, InstitutionName: "Greenville Housing Auth", State: "SC",
				Email: "clerk@greenvillesc.gov", Phone: "(864) 555-0100",
			},
			{
				ID: 3, InstitutionName: "Pickens Transit", State: "SC",
				Email: "dispatch@greenvillesc.gov", Phone: "8645550100",
			},
		})

		result, err := engine.FindDuplicates(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, result.DuplicatesFound)
		require.Len(t, result.Groups, 2)

		assert.Equal(t, int64(1), result.Groups[0].PrimaryLeadID)
		require.Len(t, result.Groups[0].Duplicates, 1)
		assert.Equal(t, int64(2), result.Groups[0].Duplicates[0].LeadID)

		assert.Equal(t, int64(2), result.Groups[1].PrimaryLeadID)
		require.Len(t, result.Groups[1].Duplicates, 1)
		assert.Equal(t, int64(3), result.Groups[1].Duplicates[0].LeadID)
	})

	t.Run("sorts groups by duplicate count descending", func(t *testing.T) {
		engine := newTestEngine([]models.Lead{
			{ID: 1, InstitutionName: "Dayton Water", State: "OH"},
			{ID: 2, InstitutionName: "Dayton Water", State: "OH"},
			{ID: 3, InstitutionName: "Franklin County Office", State: "OH"},
			{ID: 4, InstitutionName: "Franklin County", State: "OH"},
			{ID: 5, InstitutionName: "Franklin", State: "OH"},
		})

		result, err := engine.FindDuplicates(ctx)
		require.NoError(t, err)

		require.Len(t, result.Groups, 2)
		assert.Equal(t, int64(3), result.Groups[0].PrimaryLeadID)
		assert.Len(t, result.Groups[0].Duplicates, 2)
		assert.Equal(t, int64(1), result.Groups[1].PrimaryLeadID)
		assert.Len(t, result.Groups[1].Duplicates, 1)
	})

	t.Run("empty database", func(t *testing.T) {
		engine := newTestEngine(nil)

		result, err := engine.FindDuplicates(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, result.TotalLeads)
		assert.Equal(t, 0, result.DuplicatesFound)
		assert.Empty(t, result.Groups)
	})

	t.Run("propagates source errors", func(t *testing.T) {
		logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
		engine := NewEngine(logger, &fakeLeadSource{err: errors.New("connection refused")}, DefaultConfig())

		result, err := engine.FindDuplicates(ctx)
		assert.Nil(t, result)
		assert.EqualError(t, err, "connection refused")
	})
}

func TestEngine_CheckCandidate(t *testing.T) {
	ctx := context.Background()

	engine := newTestEngine([]models.Lead{
		{ID: 1, InstitutionName: "Franklin County Office", State: "OH"},
		{ID: 2, InstitutionName: "Franklin Office", State: "OH"},
		{ID: 3, InstitutionName: "Dayton Water", State: "OH"},
		{ID: 4, InstitutionName: "Franklyn", State: "OH"},
	})

	t.Run("matches sorted by similarity", func(t *testing.T) {
		matches, err := engine.CheckCandidate(ctx, models.LeadCandidate{
			InstitutionName: "Franklin County",
			State:           "OH",
		})
		require.NoError(t, err)

		require.Len(t, matches, 3)
		assert.Equal(t, int64(1), matches[0].LeadBID)
		assert.Equal(t, 100, matches[0].Similarity)
		assert.Equal(t, int64(2), matches[1].LeadBID)
		assert.Equal(t, 100, matches[1].Similarity)
		assert.Equal(t, int64(4), matches[2].LeadBID)
		assert.Equal(t, 92, matches[2].Similarity)

		for _, match := range matches {
			assert.Equal(t, models.TransientLeadID, match.LeadAID)
		}
	})

	t.Run("weak matches are excluded", func(t *testing.T) {
		stored := newTestEngine([]models.Lead{
			{ID: 1, InstitutionName: "Jefferson Co", State: "AL"},
			{ID: 2, InstitutionName: "Montgomery Water Works", State: "AL"},
		})

		matches, err := stored.CheckCandidate(ctx, models.LeadCandidate{
			InstitutionName: "Jefferson County",
			State:           "AL",
		})
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, int64(1), matches[0].LeadBID)
	})

	t.Run("no matches for a distinct candidate", func(t *testing.T) {
		matches, err := engine.CheckCandidate(ctx, models.LeadCandidate{
			InstitutionName: "Tulsa Transit Authority",
			State:           "OK",
		})
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("propagates source errors", func(t *testing.T) {
		logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
		failing := NewEngine(logger, &fakeLeadSource{err: errors.New("connection refused")}, DefaultConfig())

		matches, err := failing.CheckCandidate(ctx, models.LeadCandidate{InstitutionName: "x", State: "OH"})
		assert.Nil(t, matches)
		assert.Error(t, err)
	})
}
