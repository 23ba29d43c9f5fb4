package model

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the discrete severity of a detected overlap. Totally ordered:
// none < low < medium < high < critical.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskNone:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Rank returns the numeric severity of a risk level (none=0 .. critical=4).
// Unknown values rank as none.
func (r RiskLevel) Rank() int {
	return riskRank[r]
}

// AtLeast reports whether r is at least as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Rank() >= other.Rank()
}

// MatchType identifies which search axis produced a conflict match.
type MatchType string

const (
	MatchClient       MatchType = "client"
	MatchAdverseParty MatchType = "adverse_party"
	MatchMatter       MatchType = "matter"
	MatchSession      MatchType = "session"
)

// Recommendation is the machine-readable outcome of a conflict check.
type Recommendation string

const (
	RecommendProceed Recommendation = "proceed"
	RecommendReview  Recommendation = "review"
	RecommendDecline Recommendation = "decline"
)

// ConflictStatus is the resolution lifecycle of a persisted check.
// Every saved check starts pending; a human reviewer transitions it.
type ConflictStatus string

const (
	StatusPending  ConflictStatus = "pending"
	StatusWaived   ConflictStatus = "waived"
	StatusDeclined ConflictStatus = "declined"
	StatusScreened ConflictStatus = "screened"
	StatusCleared  ConflictStatus = "cleared"
)

// ValidResolution reports whether s is a terminal resolution status a
// pending check may transition to.
func ValidResolution(s ConflictStatus) bool {
	switch s {
	case StatusWaived, StatusDeclined, StatusScreened, StatusCleared:
		return true
	}
	return false
}

// ConflictMatch is one detected overlap between the query and an existing
// matter. ID is unique within a check result: "<type>:<matter_id>:<normalized
// query>", so the same matter surfaces once per axis per query string.
type ConflictMatch struct {
	ID                string         `json:"id"`
	Type              MatchType      `json:"type"`
	MatterID          uuid.UUID      `json:"matter_id"`
	MatterTitle       string         `json:"matter_title"`
	MatterDescription *string        `json:"matter_description,omitempty"`
	ClientName        *string        `json:"client_name,omitempty"`
	AdverseParty      *string        `json:"adverse_party,omitempty"`
	MatchedName       string         `json:"matched_name"`
	QueryName         string         `json:"query_name"`
	SimilarityScore   float64        `json:"similarity_score"`
	RiskLevel         RiskLevel      `json:"risk_level"`
	MatchedAt         time.Time      `json:"matched_at"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// ConflictCheckParams is a screening query. All search parameters are
// optional; an all-empty query is valid and yields an empty proceed result.
type ConflictCheckParams struct {
	ClientName        *string     `json:"client_name,omitempty"`
	AdverseParties    []string    `json:"adverse_parties,omitempty"`
	CompanyNames      []string    `json:"company_names,omitempty"`
	MatterDescription *string     `json:"matter_description,omitempty"`
	OwnerID           uuid.UUID   `json:"owner_id"`
	ExcludeMatterID   *uuid.UUID  `json:"exclude_matter_id,omitempty"`
	Persist           bool        `json:"-"`
}

// Empty reports whether the query carries no search parameters at all.
func (p ConflictCheckParams) Empty() bool {
	return derefEmpty(p.ClientName) &&
		len(p.AdverseParties) == 0 &&
		len(p.CompanyNames) == 0 &&
		derefEmpty(p.MatterDescription)
}

func derefEmpty(s *string) bool {
	return s == nil || *s == ""
}

// ConflictCheckResult is the answer to a conflict check. Conflicts are
// deduplicated and sorted by risk level descending, similarity descending.
type ConflictCheckResult struct {
	Conflicts       []ConflictMatch `json:"conflicts"`
	RiskLevel       RiskLevel       `json:"risk_level"`
	TotalMatches    int             `json:"total_matches"`
	HighRiskCount   int             `json:"high_risk_count"`
	MediumRiskCount int             `json:"medium_risk_count"`
	LowRiskCount    int             `json:"low_risk_count"`
	Recommendation  Recommendation  `json:"recommendation"`
	Summary         string          `json:"summary"`

	// CheckID is set when the result was persisted as a pending check.
	CheckID *uuid.UUID `json:"check_id,omitempty"`
}

// ConflictCheck is the persisted record of a check: the query, the computed
// result, and the human resolution lifecycle.
type ConflictCheck struct {
	ID              uuid.UUID           `json:"id"`
	OwnerID         uuid.UUID           `json:"owner_id"`
	Params          ConflictCheckParams `json:"params"`
	Result          ConflictCheckResult `json:"result"`
	Status          ConflictStatus      `json:"status"`
	ResolutionNotes *string             `json:"resolution_notes,omitempty"`
	ResolvedBy      *uuid.UUID          `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time          `json:"resolved_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}
