package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RecommendationStatus is the state of a recommendation in its approval
// workflow. pending is the only non-terminal state.
type RecommendationStatus string

const (
	RecommendationPending  RecommendationStatus = "pending"
	RecommendationApproved RecommendationStatus = "approved"
	RecommendationRejected RecommendationStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s RecommendationStatus) Terminal() bool {
	return s == RecommendationApproved || s == RecommendationRejected
}

// DateFormat is the calendar-date layout used for recommendation target
// dates and slot debounce comparisons.
const DateFormat = "2006-01-02"

// WeatherContext is the weather evidence captured at evaluation time and
// frozen onto the recommendation. Stored as JSONB.
type WeatherContext struct {
	Snapshot WeatherSnapshot `json:"snapshot"`
	Twilight TwilightStatus  `json:"twilight"`
	// HoursUsed is how many hourly buckets fed the aggregated snapshot
	// (1 when the single-next-bucket fallback applied).
	HoursUsed int `json:"hours_used"`
}

// Scan implements the sql.Scanner interface for reading JSONB from the database.
func (w *WeatherContext) Scan(value interface{}) error {
	if value == nil {
		*w = WeatherContext{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("weather context: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, w)
}

// Value implements the driver.Valuer interface for writing JSONB to the database.
func (w WeatherContext) Value() (driver.Value, error) {
	return json.Marshal(w)
}

// Recommendation is a pending proposal for a weather-driven uniform
// announcement awaiting human approval or rejection. Recommendations are
// never deleted; terminal rows remain for history.
type Recommendation struct {
	ID              string               `json:"id"`
	Status          RecommendationStatus `json:"status"`
	Slot            string               `json:"slot"`
	TargetDate      string               `json:"target_date"` // DateFormat in the configured timezone
	Weather         WeatherContext       `json:"weather"`
	MatchedRuleID   string               `json:"matched_rule_id,omitempty"`
	MatchedRuleName string               `json:"matched_rule_name,omitempty"`
	UniformID       string               `json:"uniform_id"`
	Accessories     AccessoryItems       `json:"accessories,omitempty"`
	Forced          bool                 `json:"forced"`
	ExpiresAt       time.Time            `json:"expires_at"`
	CustomTitle     *string              `json:"custom_title,omitempty"`
	CustomContent   *string              `json:"custom_content,omitempty"`
	ApprovedBy      *string              `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	RejectedBy      *string              `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time           `json:"rejected_at,omitempty"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	AnnouncementID  *string              `json:"announcement_id,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ScheduleSlot is an administrator-configured recurring posting window
// (breakfast/lunch/dinner). The guard only ever mutates LastFiredAt.
type ScheduleSlot struct {
	Slot        string     `json:"slot"`
	Enabled     bool       `json:"enabled"`
	UniformID   string     `json:"uniform_id,omitempty"`
	PostTime    string     `json:"post_time"` // "HH:mm" in the configured timezone
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Uniform is a catalog entry resolvable by the uniform catalog collaborator.
type Uniform struct {
	ID          string `json:"id"`
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Announcement is the record produced on approval or on a direct scheduler
// posting. It is consumed by the (out-of-scope) feed and notification
// subsystems.
type Announcement struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Source           string    `json:"source"` // "recommendation" or "scheduler"
	RecommendationID *string   `json:"recommendation_id,omitempty"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}
