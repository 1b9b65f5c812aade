// Package rules implements the condition rule engine that resolves uniform
// and accessory effects from observed weather. One generic evaluator serves
// both rule sets: accessory/override rules accumulate effects across every
// match, the uniform-selection rule set stops at the first match.
//
// Evaluation is pure and total: rule sets are passed in as read-only
// snapshots, and malformed condition sub-objects degrade to "does not
// match" rather than erroring.
package rules

import (
	"sort"
	"strings"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// DefaultPrecipFallbackThreshold is the precipitation chance at or above
// which a weather-type condition matches even when no listed keyword appears
// in the condition text. Carried over from the original rule engine; the
// intent (policy vs. artifact) is unconfirmed, so the value is preserved but
// overridable via WithPrecipFallbackThreshold.
const DefaultPrecipFallbackThreshold = 50.0

// Context is the weather evidence a rule set is evaluated against.
type Context struct {
	Weather  types.WeatherSnapshot
	Twilight types.TwilightStatus
}

// Result is the resolved outcome of evaluating the accessory/override rule
// set. Matched lists every matching rule in precedence order for audit and
// display, regardless of effect type.
type Result struct {
	Matched     []types.MatchedRule   `json:"matched"`
	Override    *types.Rule           `json:"-"`
	OverrideID  string                `json:"override_uniform_id,omitempty"`
	Accessories []types.AccessoryItem `json:"accessories"`
}

// Evaluator matches rules against a weather context.
type Evaluator struct {
	precipFallback float64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithPrecipFallbackThreshold overrides the precipitation-chance fallback
// used by weather-type conditions.
func WithPrecipFallbackThreshold(threshold float64) Option {
	return func(e *Evaluator) {
		e.precipFallback = threshold
	}
}

// NewEvaluator creates an Evaluator with the default fallback threshold.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{precipFallback: DefaultPrecipFallbackThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate resolves the accessory/override rule set against ctx.
//
// Rules are considered in ascending priority (ties keep original order);
// disabled rules are skipped. The first matching uniformOverride rule wins
// and later overrides are ignored. Every matching addAccessories rule
// contributes its items; the merged list is deduplicated by accessory name
// with the first occurrence's metadata kept.
func (e *Evaluator) Evaluate(ruleSet []types.Rule, ctx Context) Result {
	result := Result{}
	seen := make(map[string]struct{})

	for _, rule := range byPriority(ruleSet) {
		if !e.Matches(rule, ctx) {
			continue
		}
		result.Matched = append(result.Matched, summarize(rule))

		switch rule.Effect {
		case types.EffectUniformOverride:
			if result.Override == nil {
				r := rule
				result.Override = &r
				result.OverrideID = rule.UniformID
			}
		case types.EffectAddAccessories:
			for _, item := range rule.Accessories {
				if _, dup := seen[item.Name]; dup {
					continue
				}
				seen[item.Name] = struct{}{}
				item.SourceRuleID = rule.ID
				item.SourceRuleName = rule.Name
				result.Accessories = append(result.Accessories, item)
			}
		}
	}

	return result
}

// SelectUniform resolves the uniform-selection rule set (one rule selects
// one uniform). Evaluation stops at the first match; when nothing matches,
// the configured default uniform is used. ok is false only when no rule
// matches and no default is configured, which means "no recommendation",
// not an error.
func (e *Evaluator) SelectUniform(ruleSet []types.Rule, defaultUniformID string, ctx Context) (uniformID string, matched *types.MatchedRule, ok bool) {
	for _, rule := range byPriority(ruleSet) {
		if !e.Matches(rule, ctx) {
			continue
		}
		summary := summarize(rule)
		return rule.UniformID, &summary, true
	}
	if defaultUniformID == "" {
		return "", nil, false
	}
	return defaultUniformID, nil, true
}

// Matches reports whether every condition sub-object the rule defines holds
// for ctx. A rule with no conditions always matches.
func (e *Evaluator) Matches(rule types.Rule, ctx Context) bool {
	c := rule.Conditions

	if !c.Temperature.Contains(ctx.Weather.TemperatureF) {
		return false
	}
	if !c.Wind.Contains(ctx.Weather.WindMph) {
		return false
	}
	if !c.Humidity.Contains(ctx.Weather.Humidity) {
		return false
	}
	if !e.weatherMatches(c.Weather, ctx.Weather) {
		return false
	}
	if c.Twilight && !ctx.Twilight.IsTwilight {
		return false
	}
	if c.Nighttime && !ctx.Twilight.IsNighttime {
		return false
	}
	return true
}

// weatherMatches applies the weather-type sub-condition: a minimum observed
// precipitation chance when configured, and when keywords are listed, either
// a case-insensitive substring match against the condition text or an
// observed chance at or above the fallback threshold.
func (e *Evaluator) weatherMatches(cond *types.WeatherTypeCondition, obs types.WeatherSnapshot) bool {
	if cond == nil {
		return true
	}
	if cond.PrecipitationChance != nil && cond.PrecipitationChance.Min != nil {
		if obs.PrecipChance < *cond.PrecipitationChance.Min {
			return false
		}
	}
	if len(cond.Types) == 0 {
		return true
	}
	lower := strings.ToLower(obs.Condition)
	for _, keyword := range cond.Types {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return obs.PrecipChance >= e.precipFallback
}

// byPriority returns the enabled rules in ascending effective priority,
// preserving input order for ties.
func byPriority(ruleSet []types.Rule) []types.Rule {
	ordered := make([]types.Rule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		if rule.Enabled {
			ordered = append(ordered, rule)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EffectivePriority() < ordered[j].EffectivePriority()
	})
	return ordered
}

func summarize(rule types.Rule) types.MatchedRule {
	return types.MatchedRule{
		RuleID:   rule.ID,
		Name:     rule.Name,
		Priority: rule.EffectivePriority(),
		Effect:   rule.Effect,
	}
}
