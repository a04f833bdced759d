package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/internal/pkg/completeness"
	"github.com/greenlean/greenlean/internal/pkg/schema"
)

// NutritionTargets carries the caller-computed daily numbers. The builders
// echo them verbatim into the payload and never recompute them.
type NutritionTargets struct {
	DailyCalories int `json:"daily_calories"`
	Protein       int `json:"protein"`
	Carbs         int `json:"carbs"`
	Fats          int `json:"fats"`
}

// Request is the input to a builder. RequestedTier is advisory; an empty or
// invalid value lets the profile data decide entirely.
type Request struct {
	Profile       *models.Profile
	RequestedTier schema.Tier
	Targets       NutritionTargets
}

// Metadata reports how the instruction payload was assembled.
type Metadata struct {
	EffectiveTier       schema.Tier `json:"effective_tier"`
	CompletenessPercent float64     `json:"completeness_percent"`
	MissingFields       []string    `json:"missing_fields"`
	DefaultsApplied     []string    `json:"defaults_applied"`
}

// Result is a rendered instruction payload plus its metadata.
type Result struct {
	Prompt   string   `json:"prompt"`
	Metadata Metadata `json:"metadata"`
}

// Builder renders tier-appropriate generation instructions for one content
// domain. Implementations hold no mutable state; Build is deterministic.
type Builder interface {
	PlanType() string
	Build(req Request) Result
}

// effectiveTier clamps the requested tier to what the data supports. A
// request above the data tier is lowered; a request below it is honored
// (callers may pin a plainer payload deliberately).
func effectiveTier(requested schema.Tier, dataTier schema.Tier) schema.Tier {
	if !requested.Valid() {
		return dataTier
	}
	if requested.Rank() > dataTier.Rank() {
		return dataTier
	}
	return requested
}

// analyze runs the completeness pass shared by both builders.
func analyze(profile *models.Profile) completeness.Report {
	return completeness.NewAnalyzer().Analyze(profile)
}

func missingKeys(report completeness.Report) []string {
	keys := make([]string, 0, len(report.MissingFields))
	for _, f := range report.MissingFields {
		keys = append(keys, f.Key)
	}
	return keys
}

// defaultTracker collects which profile fields were substituted with a
// goal-conditioned default while rendering.
type defaultTracker struct {
	applied []string
}

func (d *defaultTracker) record(fieldKey string) {
	for _, k := range d.applied {
		if k == fieldKey {
			return
		}
	}
	d.applied = append(d.applied, fieldKey)
}

// fieldString resolves a profile field to a display string, falling back to
// def and recording the substitution when the field is absent.
func (d *defaultTracker) fieldString(p *models.Profile, key, def string) string {
	if s := stringField(p, key); s != "" {
		return s
	}
	d.record(key)
	return def
}

// fieldInt resolves a numeric profile field, falling back to def.
func (d *defaultTracker) fieldInt(p *models.Profile, key string, def int) int {
	if n, ok := intField(p, key); ok {
		return n
	}
	d.record(key)
	return def
}

func stringField(p *models.Profile, key string) string {
	v, ok := p.FieldValue(key)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%.1f", val)
	case int:
		return fmt.Sprintf("%d", val)
	default:
		return ""
	}
}

func intField(p *models.Profile, key string) (int, bool) {
	v, ok := p.FieldValue(key)
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case float64:
		return int(val), true
	default:
		return 0, false
	}
}

func boolField(p *models.Profile, key string) (bool, bool) {
	v, ok := p.FieldValue(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// listField normalizes collection-valued fields to a string slice. JSON
// round-trips store slices as []interface{}.
func listField(p *models.Profile, key string) []string {
	v, ok := p.FieldValue(key)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}

// fieldList resolves a collection-valued field to a comma-joined string,
// falling back and recording the substitution when the list is empty.
func (d *defaultTracker) fieldList(p *models.Profile, key, fallback string) string {
	if items := listField(p, key); len(items) > 0 {
		return strings.Join(items, ", ")
	}
	d.record(key)
	return fallback
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

func humanizeGoal(goal string) string {
	if goal == "" {
		return "general fitness"
	}
	return strings.ReplaceAll(goal, "_", " ")
}

const sectionRule = "----------------------------------------------------------------"

func section(b *strings.Builder, title string) {
	b.WriteString("\n")
	b.WriteString(sectionRule)
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(sectionRule)
	b.WriteString("\n\n")
}
