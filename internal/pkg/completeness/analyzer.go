package completeness

import (
	"math"
	"sort"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/internal/pkg/schema"
)

// Tier thresholds as completeness percentages. Profiles below
// StandardThreshold are BASIC, below PremiumThreshold STANDARD, above PREMIUM.
const (
	StandardThreshold = 30.0
	PremiumThreshold  = 70.0
)

// MissingField describes one schema field the profile has not completed yet.
type MissingField struct {
	Key      string               `json:"key"`
	Label    string               `json:"label"`
	Category schema.FieldCategory `json:"category"`
	Priority schema.FieldPriority `json:"priority"`
}

// Report is the derived view of a profile's completeness. It is recomputed on
// demand and never persisted as authoritative state.
type Report struct {
	CompletedCount      int            `json:"completed_count"`
	TotalCount          int            `json:"total_count"`
	CompletenessPercent float64        `json:"completeness_percent"`
	Tier                schema.Tier    `json:"tier"`
	MissingFields       []MissingField `json:"missing_fields"`
}

// Analyzer computes completeness reports over the static field registry.
// It is stateless; Analyze is a pure function of its input.
type Analyzer struct{}

// NewAnalyzer creates a new analyzer instance
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze walks the field registry once and classifies the profile. A field
// counts as complete iff its value is present and not an empty string or
// collection. Missing fields come back sorted by priority (high first) then
// by the fixed category order, so "next question" selection is deterministic.
func (a *Analyzer) Analyze(profile *models.Profile) Report {
	fields := schema.ProfileFields()

	completed := 0
	missing := make([]MissingField, 0, len(fields))
	for _, f := range fields {
		if profile.FieldComplete(f.Key) {
			completed++
			continue
		}
		missing = append(missing, MissingField{
			Key:      f.Key,
			Label:    f.Label,
			Category: f.Category,
			Priority: f.Priority,
		})
	}

	sort.SliceStable(missing, func(i, j int) bool {
		if missing[i].Priority.Rank() != missing[j].Priority.Rank() {
			return missing[i].Priority.Rank() < missing[j].Priority.Rank()
		}
		return schema.CategoryRank(missing[i].Category) < schema.CategoryRank(missing[j].Category)
	})

	percent := Percent(completed, len(fields))

	return Report{
		CompletedCount:      completed,
		TotalCount:          len(fields),
		CompletenessPercent: percent,
		Tier:                TierFor(percent),
		MissingFields:       missing,
	}
}

// Percent computes the completeness percentage rounded to one decimal.
func Percent(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

// TierFor maps a completeness percentage onto a tier.
func TierFor(percent float64) schema.Tier {
	switch {
	case percent >= PremiumThreshold:
		return schema.TierPremium
	case percent >= StandardThreshold:
		return schema.TierStandard
	default:
		return schema.TierBasic
	}
}
