package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Lead statuses
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusClosed    = "closed"
)

// Lead is a government-sector institution being tracked for outreach.
type Lead struct {
	ID                int64          `json:"id" db:"id"`
	InstitutionName   string         `json:"institutionName" db:"institution_name"`
	State             string         `json:"state" db:"state"`
	County            string         `json:"county" db:"county"`
	Department        string         `json:"department" db:"department"`
	City              string         `json:"city" db:"city"`
	Email             string         `json:"email" db:"email"`
	Phone             string         `json:"phone" db:"phone"`
	Website           string         `json:"website" db:"website"`
	Population        int64          `json:"population" db:"population"`
	AnnualBudget      int64          `json:"annualBudget" db:"annual_budget"`
	TechMaturityScore int            `json:"techMaturityScore" db:"tech_maturity_score"`
	LeadScore         int            `json:"leadScore" db:"lead_score"`
	Status            string         `json:"status" db:"status"`
	PainPoints        StringList     `json:"painPoints" db:"pain_points"`
	TechStack         StringList     `json:"techStack" db:"tech_stack"`
	BuyingSignals     StringList     `json:"buyingSignals" db:"buying_signals"`
	DecisionMakers    DecisionMakers `json:"decisionMakers" db:"decision_makers"`
	RecentNews        NewsItems      `json:"recentNews" db:"recent_news"`
	Notes             string         `json:"notes" db:"notes"`
	Source            string         `json:"source" db:"source"`
	CreatedAt         time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time      `json:"updatedAt" db:"updated_at"`
}

// DecisionMaker is a named contact at the institution.
type DecisionMaker struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// NewsItem is a news mention attached to a lead.
type NewsItem struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// CreateLeadRequest is the payload for creating a lead.
type CreateLeadRequest struct {
	InstitutionName   string          `json:"institutionName" validate:"required"`
	State             string          `json:"state" validate:"required"`
	County            string          `json:"county"`
	Department        string          `json:"department"`
	City              string          `json:"city"`
	Email             string          `json:"email" validate:"omitempty,email"`
	Phone             string          `json:"phone"`
	Website           string          `json:"website"`
	Population        int64           `json:"population" validate:"gte=0"`
	AnnualBudget      int64           `json:"annualBudget" validate:"gte=0"`
	TechMaturityScore int             `json:"techMaturityScore" validate:"gte=0,lte=100"`
	Status            string          `json:"status" validate:"omitempty,oneof=new contacted qualified closed"`
	PainPoints        []string        `json:"painPoints"`
	TechStack         []string        `json:"techStack"`
	BuyingSignals     []string        `json:"buyingSignals"`
	DecisionMakers    []DecisionMaker `json:"decisionMakers"`
	RecentNews        []NewsItem      `json:"recentNews"`
	Notes             string          `json:"notes"`
	Source            string          `json:"source"`
}

// ToLead converts the request into a Lead ready for insertion.
func (r CreateLeadRequest) ToLead() *Lead {
	status := r.Status
	if status == "" {
		status = LeadStatusNew
	}
	return &Lead{
		InstitutionName:   r.InstitutionName,
		State:             r.State,
		County:            r.County,
		Department:        r.Department,
		City:              r.City,
		Email:             r.Email,
		Phone:             r.Phone,
		Website:           r.Website,
		Population:        r.Population,
		AnnualBudget:      r.AnnualBudget,
		TechMaturityScore: r.TechMaturityScore,
		Status:            status,
		PainPoints:        r.PainPoints,
		TechStack:         r.TechStack,
		BuyingSignals:     r.BuyingSignals,
		DecisionMakers:    r.DecisionMakers,
		RecentNews:        r.RecentNews,
		Notes:             r.Notes,
		Source:            r.Source,
	}
}

// UpdateLeadRequest is the payload for a partial lead update. Pointer fields
// distinguish "not provided" from zero values.
type UpdateLeadRequest struct {
	InstitutionName   *string          `json:"institutionName" validate:"omitempty,min=1"`
	State             *string          `json:"state" validate:"omitempty,min=1"`
	County            *string          `json:"county"`
	Department        *string          `json:"department"`
	City              *string          `json:"city"`
	Email             *string          `json:"email" validate:"omitempty,email"`
	Phone             *string          `json:"phone"`
	Website           *string          `json:"website"`
	Population        *int64           `json:"population" validate:"omitempty,gte=0"`
	AnnualBudget      *int64           `json:"annualBudget" validate:"omitempty,gte=0"`
	TechMaturityScore *int             `json:"techMaturityScore" validate:"omitempty,gte=0,lte=100"`
	Status            *string          `json:"status" validate:"omitempty,oneof=new contacted qualified closed"`
	PainPoints        *[]string        `json:"painPoints"`
	TechStack         *[]string        `json:"techStack"`
	BuyingSignals     *[]string        `json:"buyingSignals"`
	DecisionMakers    *[]DecisionMaker `json:"decisionMakers"`
	RecentNews        *[]NewsItem      `json:"recentNews"`
	Notes             *string          `json:"notes"`
	Source            *string          `json:"source"`
}

// Fields maps the provided values to repository update fields.
func (r UpdateLeadRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.InstitutionName != nil {
		fields["institutionName"] = *r.InstitutionName
	}
	if r.State != nil {
		fields["state"] = *r.State
	}
	if r.County != nil {
		fields["county"] = *r.County
	}
	if r.Department != nil {
		fields["department"] = *r.Department
	}
	if r.City != nil {
		fields["city"] = *r.City
	}
	if r.Email != nil {
		fields["email"] = *r.Email
	}
	if r.Phone != nil {
		fields["phone"] = *r.Phone
	}
	if r.Website != nil {
		fields["website"] = *r.Website
	}
	if r.Population != nil {
		fields["population"] = *r.Population
	}
	if r.AnnualBudget != nil {
		fields["annualBudget"] = *r.AnnualBudget
	}
	if r.TechMaturityScore != nil {
		fields["techMaturityScore"] = *r.TechMaturityScore
	}
	if r.Status != nil {
		fields["status"] = *r.Status
	}
	if r.PainPoints != nil {
		fields["painPoints"] = StringList(*r.PainPoints)
	}
	if r.TechStack != nil {
		fields["techStack"] = StringList(*r.TechStack)
	}
	if r.BuyingSignals != nil {
		fields["buyingSignals"] = StringList(*r.BuyingSignals)
	}
	if r.DecisionMakers != nil {
		fields["decisionMakers"] = DecisionMakers(*r.DecisionMakers)
	}
	if r.RecentNews != nil {
		fields["recentNews"] = NewsItems(*r.RecentNews)
	}
	if r.Notes != nil {
		fields["notes"] = *r.Notes
	}
	if r.Source != nil {
		fields["source"] = *r.Source
	}
	return fields
}

// StringList is a JSONB-backed string slice column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	return scanJSONB(l, src)
}

// DecisionMakers is a JSONB-backed decision maker slice column.
type DecisionMakers []DecisionMaker

func (d DecisionMakers) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal([]DecisionMaker{})
	}
	return json.Marshal(d)
}

func (d *DecisionMakers) Scan(src any) error {
	return scanJSONB(d, src)
}

// NewsItems is a JSONB-backed news item slice column.
type NewsItems []NewsItem

func (n NewsItems) Value() (driver.Value, error) {
	if n == nil {
		return json.Marshal([]NewsItem{})
	}
	return json.Marshal(n)
}

func (n *NewsItems) Scan(src any) error {
	return scanJSONB(n, src)
}

func scanJSONB(dest any, src any) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
