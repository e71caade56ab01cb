package lead

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/civicreach/govlead/pkg/database"
	"github.com/civicreach/govlead/pkg/models"
	"github.com/civicreach/govlead/pkg/tracing"
)

// Repository handles lead persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new lead repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var leadColumns = []string{
	"id", "institution_name", "state", "county", "department", "city",
	"email", "phone", "website", "population", "annual_budget",
	"tech_maturity_score", "lead_score", "status", "pain_points",
	"tech_stack", "buying_signals", "decision_makers", "recent_news",
	"notes", "source", "created_at", "updated_at",
}

// updatableColumns maps API field names to columns. Fields outside this list
// are silently dropped from partial updates.
var updatableColumns = []struct {
	field  string
	column string
}{
	{"institutionName", "institution_name"},
	{"state", "state"},
	{"county", "county"},
	{"department", "department"},
	{"city", "city"},
	{"email", "email"},
	{"phone", "phone"},
	{"website", "website"},
	{"population", "population"},
	{"annualBudget", "annual_budget"},
	{"techMaturityScore", "tech_maturity_score"},
	{"leadScore", "lead_score"},
	{"status", "status"},
	{"painPoints", "pain_points"},
	{"techStack", "tech_stack"},
	{"buyingSignals", "buying_signals"},
	{"decisionMakers", "decision_makers"},
	{"recentNews", "recent_news"},
	{"notes", "notes"},
	{"source", "source"},
}

// ListFilter narrows List results.
type ListFilter struct {
	State  string
	Status string
	Limit  int
	Offset int
}

// ListAll returns every lead ordered by id. The duplicate scanner depends on
// this ordering for deterministic pair visits.
func (r *Repository) ListAll(ctx context.Context) ([]models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(leadColumns...)
	sb.From("leads")
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list all leads")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list leads")
	}
	return leads, nil
}

// List returns leads matching the filter, ordered by id.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(leadColumns...)
	sb.From("leads")
	if filter.State != "" {
		sb.Where(sb.Equal("state", filter.State))
	}
	if filter.Status != "" {
		sb.Where(sb.Equal("status", filter.Status))
	}
	sb.OrderBy("id ASC")
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		sb.Offset(filter.Offset)
	}

	query, args := sb.Build()
	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"state": filter.State, "status": filter.Status}).Error("Failed to list leads")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list leads")
	}
	return leads, nil
}

// Count returns the number of stored leads.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM leads"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count leads")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count leads")
	}
	return count, nil
}

// GetByID returns the lead, or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(leadColumns...)
	sb.From("leads")
	sb.Where(sb.Equal("id", id))
	sb.Limit(1)

	query, args := sb.Build()
	var lead models.Lead
	if err := r.db.GetContext(ctx, &lead, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"lead_id": id}).Error("Failed to get lead")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lead")
	}
	return &lead, nil
}

// Create inserts a lead and returns the stored row.
func (r *Repository) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.Create")
	defer span.End()

	query := `
		INSERT INTO leads (
			institution_name, state, county, department, city, email, phone,
			website, population, annual_budget, tech_maturity_score, lead_score,
			status, pain_points, tech_stack, buying_signals, decision_makers,
			recent_news, notes, source
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		RETURNING ` + strings.Join(leadColumns, ", ")

	var created models.Lead
	err := r.db.QueryRowxContext(ctx, query,
		lead.InstitutionName, lead.State, lead.County, lead.Department, lead.City,
		lead.Email, lead.Phone, lead.Website, lead.Population, lead.AnnualBudget,
		lead.TechMaturityScore, lead.LeadScore, lead.Status, lead.PainPoints,
		lead.TechStack, lead.BuyingSignals, lead.DecisionMakers, lead.RecentNews,
		lead.Notes, lead.Source,
	).StructScan(&created)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"institution_name": lead.InstitutionName}).Error("Failed to create lead")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create lead")
	}
	return &created, nil
}

// Update applies a partial update through the column allowlist. updated_at is
// always bumped. Returns (nil, nil) when the lead does not exist.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.Update")
	defer span.End()

	query, args := buildUpdate(id, fields)

	var updated models.Lead
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&updated); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"lead_id": id}).Error("Failed to update lead")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update lead")
	}
	return &updated, nil
}

// Delete removes a lead. Returns false when it did not exist.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.Delete")
	defer span.End()

	res, err := r.db.ExecContext(ctx, "DELETE FROM leads WHERE id = $1", id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"lead_id": id}).Error("Failed to delete lead")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete lead")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete lead")
	}
	return affected > 0, nil
}

// ApplyMerge updates the keep lead and deletes the merge lead in a single
// transaction, so a failed delete never leaves a half-merged pair behind.
func (r *Repository) ApplyMerge(ctx context.Context, keepID int64, fields map[string]any, mergeID int64) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.ApplyMerge")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin merge transaction")
	}
	defer tx.Rollback(ctx)

	query, args := buildUpdate(keepID, fields)

	var updated models.Lead
	if err := tx.QueryRowxContext(ctxTx, query, args...).StructScan(&updated); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"keep_id": keepID, "merge_id": mergeID}).Error("Failed to update keep lead during merge")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to merge leads")
	}

	if _, err := tx.ExecContext(ctxTx, "DELETE FROM leads WHERE id = $1", mergeID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"keep_id": keepID, "merge_id": mergeID}).Error("Failed to delete merge lead during merge")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to merge leads")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit merge")
	}

	return &updated, nil
}

func buildUpdate(id int64, fields map[string]any) (string, []any) {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("leads")

	assignments := []string{}
	for _, uc := range updatableColumns {
		if value, ok := fields[uc.field]; ok {
			assignments = append(assignments, ub.Assign(uc.column, value))
		}
	}
	assignments = append(assignments, "updated_at = NOW()")

	ub.Set(assignments...)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	return query + " RETURNING " + strings.Join(leadColumns, ", "), args
}
