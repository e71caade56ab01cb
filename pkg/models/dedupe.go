package models

import "time"

// Suggested actions for a duplicate match
const (
	ActionMerge    = "merge"     // similarity >= 90
	ActionReview   = "review"    // similarity >= 70
	ActionKeepBoth = "keep_both" // similarity 60-69
)

// DuplicateMatch is the outcome of comparing two leads. A nil match means the
// pair was judged not to be duplicates.
type DuplicateMatch struct {
	LeadAID         int64    `json:"leadAId"`
	LeadBID         int64    `json:"leadBId"`
	Similarity      int      `json:"similarity"`
	MatchReasons    []string `json:"matchReasons"`
	SuggestedAction string   `json:"suggestedAction"`
}

// DuplicateEntry is one lead recorded as a duplicate inside a group.
type DuplicateEntry struct {
	LeadID          int64    `json:"leadId"`
	InstitutionName string   `json:"institutionName"`
	Similarity      int      `json:"similarity"`
	MatchReasons    []string `json:"matchReasons"`
}

// DuplicateGroup collects leads judged duplicates of a primary lead. The
// primary is always the lowest id of the pair that created the group.
type DuplicateGroup struct {
	PrimaryLeadID   int64            `json:"primaryLeadId"`
	PrimaryLeadName string           `json:"primaryLeadName"`
	Duplicates      []DuplicateEntry `json:"duplicates"`
}

// DeduplicationResult is the output of a full database scan.
type DeduplicationResult struct {
	TotalLeads      int              `json:"totalLeads"`
	DuplicatesFound int              `json:"duplicatesFound"`
	Groups          []DuplicateGroup `json:"groups"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// LeadCandidate is an unsaved lead checked against the database before
// insertion. Matches report it with the transient id -1.
type LeadCandidate struct {
	InstitutionName string `json:"institutionName" validate:"required"`
	State           string `json:"state" validate:"required"`
	County          string `json:"county"`
	Department      string `json:"department"`
	City            string `json:"city"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone"`
	Website         string `json:"website"`
}

// TransientLeadID is the id assigned to a candidate lead during a
// pre-insertion check.
const TransientLeadID int64 = -1

// ToLead builds the transient lead used for pairwise comparison.
func (c LeadCandidate) ToLead() *Lead {
	return &Lead{
		ID:              TransientLeadID,
		InstitutionName: c.InstitutionName,
		State:           c.State,
		County:          c.County,
		Department:      c.Department,
		City:            c.City,
		Email:           c.Email,
		Phone:           c.Phone,
		Website:         c.Website,
	}
}

// MergeLeadsRequest is the payload for merging two duplicate leads.
type MergeLeadsRequest struct {
	KeepID  int64 `json:"keepId" validate:"required,gt=0"`
	MergeID int64 `json:"mergeId" validate:"required,gt=0"`
}
