package screening

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/tairitsu/internal/model"
)

// MatterSource is the read side of the matter repository. One snapshot read
// per check; the engine never re-reads mid-check.
type MatterSource interface {
	ListMatters(ctx context.Context, ownerID uuid.UUID, excludeID *uuid.UUID) ([]model.Matter, error)
}

// Auditor records one audit event per check performed.
type Auditor interface {
	RecordAuditEvent(ctx context.Context, ownerID uuid.UUID, eventKind string, metadata map[string]any) error
}

// CheckStore persists a computed result as a pending check for later human
// resolution.
type CheckStore interface {
	SaveCheck(ctx context.Context, result model.ConflictCheckResult, params model.ConflictCheckParams) (uuid.UUID, error)
}

// AuditEventCheck is the event kind recorded for every conflict check.
const AuditEventCheck = "conflict_check"

// Checker runs conflict-of-interest checks against a matter repository.
// It holds no mutable state; any number of checks may run concurrently.
type Checker struct {
	matters   MatterSource
	audit     Auditor
	store     CheckStore // optional; nil disables persistence
	logger    *slog.Logger
	threshold float64
}

// NewChecker creates a conflict checker. A threshold <= 0 selects
// DefaultThreshold.
func NewChecker(matters MatterSource, audit Auditor, store CheckStore, logger *slog.Logger, threshold float64) *Checker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Checker{
		matters:   matters,
		audit:     audit,
		store:     store,
		logger:    logger,
		threshold: threshold,
	}
}

// Check screens the query against the owner's existing matters and returns
// ranked, deduplicated conflicts with an overall recommendation.
//
// A repository read failure is fatal: a check must reflect a consistent,
// current snapshot. Audit and persistence failures after the result is
// computed are logged and never alter the returned result.
func (c *Checker) Check(ctx context.Context, params model.ConflictCheckParams) (model.ConflictCheckResult, error) {
	matters, err := c.matters.ListMatters(ctx, params.OwnerID, params.ExcludeMatterID)
	if err != nil {
		return model.ConflictCheckResult{}, fmt.Errorf("screening: list matters: %w", err)
	}

	now := time.Now().UTC()
	var candidates []model.ConflictMatch

	if params.ClientName != nil && *params.ClientName != "" {
		candidates = append(candidates, c.clientNameConflicts(*params.ClientName, matters, now)...)
	}
	for _, name := range params.AdverseParties {
		candidates = append(candidates, c.partyNameConflicts(name, matters, now)...)
	}
	for _, name := range params.CompanyNames {
		candidates = append(candidates, c.partyNameConflicts(name, matters, now)...)
	}
	if params.MatterDescription != nil && *params.MatterDescription != "" {
		candidates = append(candidates, c.descriptionConflicts(*params.MatterDescription, matters, now)...)
	}

	// Drop non-risks, dedupe by id (first occurrence wins — axes run in
	// priority order), then rank by severity and score.
	seen := make(map[string]bool, len(candidates))
	conflicts := make([]model.ConflictMatch, 0, len(candidates))
	for _, m := range candidates {
		if m.RiskLevel == model.RiskNone || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		conflicts = append(conflicts, m)
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		ri, rj := conflicts[i].RiskLevel.Rank(), conflicts[j].RiskLevel.Rank()
		if ri != rj {
			return ri > rj
		}
		return conflicts[i].SimilarityScore > conflicts[j].SimilarityScore
	})

	result := summarize(conflicts)

	meta := map[string]any{
		"total_conflicts":     result.TotalMatches,
		"risk_level":          string(result.RiskLevel),
		"recommendation":      string(result.Recommendation),
		"client_name":         deref(params.ClientName),
		"adverse_parties":     params.AdverseParties,
		"company_names_count": len(params.CompanyNames),
	}
	if err := c.audit.RecordAuditEvent(ctx, params.OwnerID, AuditEventCheck, meta); err != nil {
		c.logger.Warn("screening: audit record failed", "owner_id", params.OwnerID, "error", err)
	}

	if params.Persist && c.store != nil {
		checkID, err := c.store.SaveCheck(ctx, result, params)
		if err != nil {
			c.logger.Warn("screening: persist check failed", "owner_id", params.OwnerID, "error", err)
		} else {
			result.CheckID = &checkID
		}
	}

	return result, nil
}

// clientNameConflicts screens a prospective client name against every
// existing client (score-classified) and every existing adverse party.
// The adverse-party hits are always critical regardless of score: taking on
// a client adverse to a current or former client is an automatic conflict.
func (c *Checker) clientNameConflicts(clientName string, matters []model.Matter, now time.Time) []model.ConflictMatch {
	var out []model.ConflictMatch
	for _, m := range matters {
		if m.ClientName != nil && *m.ClientName != "" {
			if r := Match(clientName, *m.ClientName, c.threshold); r.Matches {
				out = append(out, newMatch(model.MatchClient, m, *m.ClientName, clientName,
					r.Score, Classify(r.Score, model.MatchClient), now, nil))
			}
		}
		if m.AdverseParty != nil && *m.AdverseParty != "" {
			if r := Match(clientName, *m.AdverseParty, c.threshold); r.Matches {
				out = append(out, newMatch(model.MatchAdverseParty, m, *m.AdverseParty, clientName,
					r.Score, model.RiskCritical, now, nil))
			}
		}
	}
	return out
}

// partyNameConflicts screens a prospective adverse party or company name.
// Hits on existing clients are always critical (the firm would be acting
// against its own client); hits on existing adverse parties are
// score-classified.
func (c *Checker) partyNameConflicts(name string, matters []model.Matter, now time.Time) []model.ConflictMatch {
	if name == "" {
		return nil
	}
	var out []model.ConflictMatch
	for _, m := range matters {
		if m.ClientName != nil && *m.ClientName != "" {
			if r := Match(name, *m.ClientName, c.threshold); r.Matches {
				out = append(out, newMatch(model.MatchClient, m, *m.ClientName, name,
					r.Score, model.RiskCritical, now, nil))
			}
		}
		if m.AdverseParty != nil && *m.AdverseParty != "" {
			if r := Match(name, *m.AdverseParty, c.threshold); r.Matches {
				out = append(out, newMatch(model.MatchAdverseParty, m, *m.AdverseParty, name,
					r.Score, Classify(r.Score, model.MatchAdverseParty), now, nil))
			}
		}
	}
	return out
}

// descriptionConflicts screens a free-text matter description: TF-IDF
// similarity against every existing description, plus fuzzy matching of
// extracted entities against existing client names. Matter-type rows carry
// the description as their QueryName, truncated to 100 characters so the
// serialized match stays readable.
func (c *Checker) descriptionConflicts(description string, matters []model.Matter, now time.Time) []model.ConflictMatch {
	var out []model.ConflictMatch

	queryName := truncate(description, 100)
	for _, m := range matters {
		if m.Description == nil || *m.Description == "" {
			continue
		}
		score := Similarity(description, *m.Description)
		risk := Classify(score, model.MatchMatter)
		out = append(out, newMatch(model.MatchMatter, m, m.Title, queryName, score, risk, now, nil))
	}

	for _, ent := range ExtractEntities(description) {
		for _, m := range matters {
			if m.ClientName == nil || *m.ClientName == "" {
				continue
			}
			r := Match(ent.Text, *m.ClientName, c.threshold)
			if !r.Matches {
				continue
			}
			meta := map[string]any{
				"entity_type":       string(ent.Type),
				"entity_confidence": ent.Confidence,
			}
			out = append(out, newMatch(model.MatchClient, m, *m.ClientName, ent.Text,
				r.Score, Classify(r.Score, model.MatchClient), now, meta))
		}
	}
	return out
}

// summarize computes counts, overall risk, recommendation, and the
// human-readable summary for an already-sorted conflict list.
func summarize(conflicts []model.ConflictMatch) model.ConflictCheckResult {
	result := model.ConflictCheckResult{
		Conflicts:    conflicts,
		TotalMatches: len(conflicts),
		RiskLevel:    OverallRisk(conflicts),
	}
	for _, c := range conflicts {
		switch c.RiskLevel {
		case model.RiskCritical, model.RiskHigh:
			result.HighRiskCount++
		case model.RiskMedium:
			result.MediumRiskCount++
		case model.RiskLow:
			result.LowRiskCount++
		}
	}

	switch {
	case result.RiskLevel == model.RiskCritical:
		result.Recommendation = model.RecommendDecline
	case result.RiskLevel == model.RiskHigh || result.RiskLevel == model.RiskMedium:
		result.Recommendation = model.RecommendReview
	default:
		result.Recommendation = model.RecommendProceed
	}

	result.Summary = buildSummary(result)
	return result
}

// buildSummary renders a one-paragraph plain-language summary of the result.
func buildSummary(r model.ConflictCheckResult) string {
	if r.TotalMatches == 0 {
		return "No conflicts of interest detected against the existing book of matters. Safe to proceed."
	}

	base := fmt.Sprintf("Found %d potential conflict(s): %d high-risk, %d medium-risk, %d low-risk.",
		r.TotalMatches, r.HighRiskCount, r.MediumRiskCount, r.LowRiskCount)

	switch r.Recommendation {
	case model.RecommendDecline:
		return base + " A critical conflict was detected; declining the engagement is recommended pending ethical review."
	case model.RecommendReview:
		return base + " Significant overlap with existing matters requires review before proceeding."
	default:
		return base + " Only low-risk overlaps were found; proceeding is reasonable, with optional review of the flagged matters."
	}
}

// newMatch builds a ConflictMatch row. The id is uniform across axes:
// "<type>:<matter_id>:<normalized query>", so distinct query strings hitting
// the same matter and axis produce distinct rows, while the same query
// arriving twice dedupes.
func newMatch(mType model.MatchType, m model.Matter, matched, query string, score float64, risk model.RiskLevel, now time.Time, meta map[string]any) model.ConflictMatch {
	return model.ConflictMatch{
		ID:                fmt.Sprintf("%s:%s:%s", mType, m.ID, Normalize(query)),
		Type:              mType,
		MatterID:          m.ID,
		MatterTitle:       m.Title,
		MatterDescription: m.Description,
		ClientName:        m.ClientName,
		AdverseParty:      m.AdverseParty,
		MatchedName:       matched,
		QueryName:         query,
		SimilarityScore:   score,
		RiskLevel:         risk,
		MatchedAt:         now,
		Metadata:          meta,
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
