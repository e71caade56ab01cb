package merging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicreach/govlead/pkg/models"
)

type mergeCall struct {
	keepID  int64
	mergeID int64
	fields  map[string]any
}

type fakeLeadStore struct {
	leads      map[int64]*models.Lead
	getErr     error
	applyErr   error
	mergeCalls []mergeCall
}

func (f *fakeLeadStore) GetByID(_ context.Context, id int64) (*models.Lead, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.leads[id], nil
}

func (f *fakeLeadStore) ApplyMerge(_ context.Context, keepID int64, fields map[string]any, mergeID int64) (*models.Lead, error) {
	f.mergeCalls = append(f.mergeCalls, mergeCall{keepID: keepID, mergeID: mergeID, fields: fields})
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	delete(f.leads, mergeID)
	return f.leads[keepID], nil
}

func newTestMergeEngine(store *fakeLeadStore) *Engine {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewEngine(logger, store, nil)
}

func TestEngine_MergeLeads(t *testing.T) {
	ctx := context.Background()

	t.Run("fills gaps from the merge lead", func(t *testing.T) {
		store := &fakeLeadStore{leads: map[int64]*models.Lead{
			1: {
				ID: 1, InstitutionName: "Franklin County Office", State: "OH",
				Email: "clerk@franklin.gov", Population: 120000,
			},
			2: {
				ID: 2, InstitutionName: "Franklin County", State: "OH",
				Email: "info@franklincounty.org", Phone: "(614) 555-0142",
				Website: "franklincountyohio.gov", City: "Columbus",
				AnnualBudget: 45000000, TechMaturityScore: 40,
			},
		}}
		engine := newTestMergeEngine(store)

		merged, err := engine.MergeLeads(ctx, 1, 2)
		require.NoError(t, err)
		require.NotNil(t, merged)

		require.Len(t, store.mergeCalls, 1)
		call := store.mergeCalls[0]
		assert.Equal(t, int64(1), call.keepID)
		assert.Equal(t, int64(2), call.mergeID)

		assert.Equal(t, "(614) 555-0142", call.fields["phone"])
		assert.Equal(t, "franklincountyohio.gov", call.fields["website"])
		assert.Equal(t, "Columbus", call.fields["city"])
		assert.Equal(t, int64(45000000), call.fields["annualBudget"])
		assert.Equal(t, 40, call.fields["techMaturityScore"])

		// The keep lead already has these.
		assert.NotContains(t, call.fields, "email")
		assert.NotContains(t, call.fields, "population")
	})

	t.Run("unions list fields", func(t *testing.T) {
		store := &fakeLeadStore{leads: map[int64]*models.Lead{
			1: {
				ID: 1, InstitutionName: "Franklin County Office", State: "OH",
				PainPoints:     models.StringList{"legacy ERP", "paper permits"},
				TechStack:      models.StringList{"Tyler Munis"},
				DecisionMakers: models.DecisionMakers{{Name: "Pat Lee", Title: "CIO"}},
				RecentNews:     models.NewsItems{{Title: "Budget passed", URL: "https://news.example/a"}},
			},
			2: {
				ID: 2, InstitutionName: "Franklin County", State: "OH",
				PainPoints:     models.StringList{"paper permits", "no online payments"},
				BuyingSignals:  models.StringList{"RFP posted"},
				DecisionMakers: models.DecisionMakers{{Name: "Pat Lee", Title: "IT Director"}, {Name: "Sam Ruiz"}},
				RecentNews:     models.NewsItems{{Title: "Budget approved", URL: "https://news.example/a"}, {URL: "https://news.example/b"}},
			},
		}}
		engine := newTestMergeEngine(store)

		_, err := engine.MergeLeads(ctx, 1, 2)
		require.NoError(t, err)

		fields := store.mergeCalls[0].fields
		assert.Equal(t, models.StringList{"legacy ERP", "paper permits", "no online payments"}, fields["painPoints"])
		assert.Equal(t, models.StringList{"Tyler Munis"}, fields["techStack"])
		assert.Equal(t, models.StringList{"RFP posted"}, fields["buyingSignals"])

		// Decision makers dedup by name and the keep side wins.
		dms := fields["decisionMakers"].(models.DecisionMakers)
		require.Len(t, dms, 2)
		assert.Equal(t, "Pat Lee", dms[0].Name)
		assert.Equal(t, "CIO", dms[0].Title)
		assert.Equal(t, "Sam Ruiz", dms[1].Name)

		// News dedups by URL.
		news := fields["recentNews"].(models.NewsItems)
		require.Len(t, news, 2)
		assert.Equal(t, "Budget passed", news[0].Title)
		assert.Equal(t, "https://news.example/b", news[1].URL)
	})

	t.Run("appends an audit note", func(t *testing.T) {
		store := &fakeLeadStore{leads: map[int64]*models.Lead{
			1: {ID: 1, InstitutionName: "Franklin County Office", State: "OH", Notes: "Called in March"},
			2: {ID: 2, InstitutionName: "Franklin County", State: "OH"},
		}}
		engine := newTestMergeEngine(store)

		_, err := engine.MergeLeads(ctx, 1, 2)
		require.NoError(t, err)

		notes := store.mergeCalls[0].fields["notes"].(string)
		assert.True(t, strings.HasPrefix(notes, "Called in March\nMerged with lead #2 (Franklin County) on "), notes)
	})

	t.Run("audit note stands alone when notes are empty", func(t *testing.T) {
		store := &fakeLeadStore{leads: map[int64]*models.Lead{
			1: {ID: 1, InstitutionName: "Franklin County Office", State: "OH"},
			2: {ID: 2, InstitutionName: "Franklin County", State: "OH"},
		}}
		engine := newTestMergeEngine(store)

		_, err := engine.MergeLeads(ctx, 1, 2)
		require.NoError(t, err)

		notes := store.mergeCalls[0].fields["notes"].(string)
		assert.True(t, strings.HasPrefix(notes, "Merged with lead #2 (Franklin County) on "), notes)
	})

	t.Run("unknown keep id is a no-op", func(t *testing.T) {
		store := &fakeLeadStore{leads: map[int64]*models.Lead{
			2: {ID: 2, InstitutionName: "Franklin County", State: "OH"},
		}}
		engine := newTestMergeEngine(store)

		merged, err := engine.MergeLeads(ctx, 1, 2)
		require.NoError(t, err)
		assert.Nil(t, merged)
		assert.Empty(t, store.mergeCalls)
		assert.Contains(t, store.leads, int64(2))
	})

	t.Run("unknown merge id is a no-op", func(t *testing.T) {
		store := &fakeLeadStore{leads: map[int64]*models.Lead{
			1: {ID: 1, InstitutionName: "Franklin County Office", State: "OH"},
		}}
		engine := newTestMergeEngine(store)

		merged, err := engine.MergeLeads(ctx, 1, 99)
		require.NoError(t, err)
		assert.Nil(t, merged)
		assert.Empty(t, store.mergeCalls)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		store := &fakeLeadStore{getErr: errors.New("connection refused")}
		engine := newTestMergeEngine(store)

		merged, err := engine.MergeLeads(ctx, 1, 2)
		assert.Nil(t, merged)
		assert.EqualError(t, err, "connection refused")
	})

	t.Run("propagates apply errors", func(t *testing.T) {
		store := &fakeLeadStore{
			leads: map[int64]*models.Lead{
				1: {ID: 1, InstitutionName: "A", State: "OH"},
				2: {ID: 2, InstitutionName: "B", State: "OH"},
			},
			applyErr: errors.New("deadlock detected"),
		}
		engine := newTestMergeEngine(store)

		merged, err := engine.MergeLeads(ctx, 1, 2)
		assert.Nil(t, merged)
		assert.EqualError(t, err, "deadlock detected")
	})
}

func TestUnionStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, UnionStrings([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, []string{"a"}, UnionStrings([]string{"a", "a"}, nil))
	assert.Empty(t, UnionStrings(nil, nil))
}

func TestUnionDecisionMakers(t *testing.T) {
	keep := []models.DecisionMaker{{Name: "Pat Lee", Title: "CIO"}}
	merge := []models.DecisionMaker{{Name: "Pat Lee", Title: "IT Director"}, {Name: "Sam Ruiz"}}

	result := UnionDecisionMakers(keep, merge)
	require.Len(t, result, 2)
	assert.Equal(t, "CIO", result[0].Title)
	assert.Equal(t, "Sam Ruiz", result[1].Name)
}

func TestUnionNews(t *testing.T) {
	keep := []models.NewsItem{{Title: "first", URL: "https://n/a"}}
	merge := []models.NewsItem{{Title: "dupe", URL: "https://n/a"}, {Title: "second", URL: "https://n/b"}}

	result := UnionNews(keep, merge)
	require.Len(t, result, 2)
	assert.Equal(t, "first", result[0].Title)
	assert.Equal(t, "https://n/b", result[1].URL)
}
