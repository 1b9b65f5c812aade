package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RuleEffect identifies what a matched rule contributes to the outcome.
type RuleEffect string

const (
	// EffectAddAccessories appends accessory items; every match contributes.
	EffectAddAccessories RuleEffect = "addAccessories"
	// EffectUniformOverride replaces the computed uniform; first match wins.
	EffectUniformOverride RuleEffect = "uniformOverride"
	// EffectUniformSelection picks the uniform of the day; first match wins
	// across the separate uniform-selection rule set.
	EffectUniformSelection RuleEffect = "uniformSelection"
)

// DefaultRulePriority is assumed for rules without an explicit priority.
// Lower values take precedence.
const DefaultRulePriority = 99

// BoundsCondition is an inclusive numeric range. A nil bound is open.
type BoundsCondition struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether v falls within the (inclusive) bounds.
func (b *BoundsCondition) Contains(v float64) bool {
	if b == nil {
		return true
	}
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// PrecipCondition sets a minimum observed precipitation chance.
type PrecipCondition struct {
	Min *float64 `json:"min,omitempty"`
}

// WeatherTypeCondition matches on condition-text keywords and/or
// precipitation chance.
type WeatherTypeCondition struct {
	Types               []string         `json:"types,omitempty"`
	PrecipitationChance *PrecipCondition `json:"precipitationChance,omitempty"`
}

// RuleConditions is the set of optional condition sub-objects a rule may
// define. A rule matches iff every sub-object it defines holds; a rule with
// no conditions always matches. Stored as JSONB.
type RuleConditions struct {
	Temperature *BoundsCondition      `json:"temperature,omitempty"`
	Weather     *WeatherTypeCondition `json:"weather,omitempty"`
	Wind        *BoundsCondition      `json:"wind,omitempty"`
	Humidity    *BoundsCondition      `json:"humidity,omitempty"`
	Twilight    bool                  `json:"twilight,omitempty"`
	Nighttime   bool                  `json:"nighttime,omitempty"`
}

// Scan implements the sql.Scanner interface for reading JSONB from the database.
func (c *RuleConditions) Scan(value interface{}) error {
	if value == nil {
		*c = RuleConditions{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("rule conditions: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, c)
}

// Value implements the driver.Valuer interface for writing JSONB to the database.
func (c RuleConditions) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// AccessoryItem is one accessory contributed by a matched rule, with
// provenance back to the contributing rule.
type AccessoryItem struct {
	Name           string `json:"name"`
	Required       bool   `json:"required"`
	Reason         string `json:"reason,omitempty"`
	SourceRuleID   string `json:"source_rule_id,omitempty"`
	SourceRuleName string `json:"source_rule_name,omitempty"`
}

// AccessoryItems is a slice of AccessoryItem stored as JSONB.
type AccessoryItems []AccessoryItem

// Scan implements the sql.Scanner interface for reading JSONB from the database.
func (a *AccessoryItems) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("accessory items: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, a)
}

// Value implements the driver.Valuer interface for writing JSONB to the database.
func (a AccessoryItems) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Rule is one entry in a condition rule set. Accessory rules carry an
// Accessories payload; uniform override and selection rules carry UniformID.
type Rule struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Enabled     bool           `json:"enabled"`
	Priority    *int           `json:"priority,omitempty"`
	Effect      RuleEffect     `json:"effect"`
	Conditions  RuleConditions `json:"conditions"`
	Accessories AccessoryItems `json:"accessories,omitempty"`
	UniformID   string         `json:"uniform_id,omitempty"`
}

// EffectivePriority returns the rule's priority, substituting
// DefaultRulePriority when none is set.
func (r Rule) EffectivePriority() int {
	if r.Priority == nil {
		return DefaultRulePriority
	}
	return *r.Priority
}

// MatchedRule is a summary of one matched rule, ordered by precedence in
// evaluation output for audit and display.
type MatchedRule struct {
	RuleID   string     `json:"rule_id"`
	Name     string     `json:"name"`
	Priority int        `json:"priority"`
	Effect   RuleEffect `json:"effect"`
}
