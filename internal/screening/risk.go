package screening

import "github.com/ashita-ai/tairitsu/internal/model"

// riskBand maps a minimum similarity score to a risk level.
type riskBand struct {
	min   float64
	level model.RiskLevel
}

// riskTable holds the per-axis threshold ladders. Bands are checked top
// down; the floor applies below the lowest band. A prospective-client hit
// on an existing client is the most sensitive axis; description overlap
// (matter) is the least.
var riskTable = map[model.MatchType][]riskBand{
	model.MatchClient: {
		{0.95, model.RiskCritical},
		{0.90, model.RiskHigh},
		{0.85, model.RiskHigh},
		{0.80, model.RiskMedium},
		{0.75, model.RiskMedium},
	},
	model.MatchAdverseParty: {
		{0.90, model.RiskHigh},
		{0.85, model.RiskHigh},
		{0.80, model.RiskMedium},
		{0.75, model.RiskLow},
	},
	model.MatchMatter: {
		{0.90, model.RiskMedium},
		{0.85, model.RiskMedium},
		{0.80, model.RiskLow},
		{0.75, model.RiskLow},
	},
}

// riskFloor is the level assigned below every band for an axis.
var riskFloor = map[model.MatchType]model.RiskLevel{
	model.MatchClient:       model.RiskLow,
	model.MatchAdverseParty: model.RiskLow,
	model.MatchMatter:       model.RiskNone,
}

// defaultBands is the ladder for axes without an explicit table entry.
var defaultBands = riskTable[model.MatchMatter]

// Classify maps a similarity score and match axis to a discrete risk level.
// Monotonic non-decreasing in score for a fixed axis. The adverse-party
// doctrinal override (a prospective client matching an existing adverse
// party, or vice versa, is always critical) is applied by the Checker, not
// here — it is a property of the relationship, not the score.
func Classify(score float64, matchType model.MatchType) model.RiskLevel {
	bands, ok := riskTable[matchType]
	if !ok {
		bands = defaultBands
	}
	for _, b := range bands {
		if score >= b.min {
			return b.level
		}
	}
	if floor, ok := riskFloor[matchType]; ok {
		return floor
	}
	return model.RiskNone
}

// OverallRisk returns the maximum severity present in conflicts, or none
// when the list is empty.
func OverallRisk(conflicts []model.ConflictMatch) model.RiskLevel {
	overall := model.RiskNone
	for _, c := range conflicts {
		if c.RiskLevel.Rank() > overall.Rank() {
			overall = c.RiskLevel
		}
	}
	return overall
}
