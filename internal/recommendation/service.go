// Package recommendation implements the weather-driven uniform
// recommendation workflow: the evaluation pipeline that produces pending
// recommendations, and the approval state machine that turns them into
// announcements.
//
// State machine: pending -> approved | rejected, both terminal.
// Creation is idempotent per (slot, target date) unless explicitly forced.
package recommendation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BadgerOps/WOTSapp-sub001/internal/forecast"
	"github.com/BadgerOps/WOTSapp-sub001/internal/rules"
	"github.com/BadgerOps/WOTSapp-sub001/internal/twilight"
	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// DefaultExpiry is how long a pending recommendation stays relevant.
// Expiry is display metadata: an expired-but-pending recommendation can
// still be approved or rejected.
const DefaultExpiry = 6 * time.Hour

// WeatherGateway fetches the current weather bundle from the upstream
// provider.
type WeatherGateway interface {
	FetchBundle(ctx context.Context) (*types.WeatherBundle, error)
}

// RuleSource provides read-only snapshots of the configured rule sets at
// evaluation time. Configuration is always passed into the evaluator as an
// explicit parameter; nothing here is ambient state.
type RuleSource interface {
	// AccessoryRules returns the accessory/override rule set.
	AccessoryRules(ctx context.Context) ([]types.Rule, error)
	// UniformSelectionRules returns the uniform-of-the-day rule set.
	UniformSelectionRules(ctx context.Context) ([]types.Rule, error)
	// DefaultUniformID returns the configured fallback uniform, or "" when
	// none is configured.
	DefaultUniformID(ctx context.Context) (string, error)
}

// UniformCatalog resolves uniform references.
type UniformCatalog interface {
	GetUniform(ctx context.Context, id string) (*types.Uniform, error)
}

// ListFilter narrows recommendation listings.
type ListFilter struct {
	Status   types.RecommendationStatus
	FromDate string // inclusive, DateFormat
	ToDate   string // inclusive, DateFormat
	Limit    int
}

// Repo is the persistence contract for recommendations. Insert and the two
// Mark methods are atomic conditional writes: Insert reports false when a
// non-terminal recommendation already holds the (slot, date) pair, and the
// Mark methods report false when the row is not currently pending.
type Repo interface {
	Insert(ctx context.Context, rec *types.Recommendation) (inserted bool, err error)
	GetByID(ctx context.Context, id string) (*types.Recommendation, error)
	List(ctx context.Context, filter ListFilter) ([]*types.Recommendation, error)
	MarkApproved(ctx context.Context, id, approvedBy string, at time.Time, title, content *string) (bool, error)
	MarkRejected(ctx context.Context, id, rejectedBy string, at time.Time, reason *string) (bool, error)
	SetAnnouncementID(ctx context.Context, id, announcementID string) error
}

// AnnouncementPoster persists announcements for the feed subsystem.
type AnnouncementPoster interface {
	CreateAnnouncement(ctx context.Context, ann *types.Announcement) error
}

// AnnouncementEvent notifies the push-notification subsystem of a new
// announcement.
type AnnouncementEvent struct {
	AnnouncementID   string    `json:"announcement_id"`
	RecommendationID string    `json:"recommendation_id,omitempty"`
	Title            string    `json:"title"`
	CreatedAt        time.Time `json:"created_at"`
}

// EventPublisher dispatches announcement events. Publishing is best-effort;
// failures never fail the approval.
type EventPublisher interface {
	PublishAnnouncementCreated(ctx context.Context, event AnnouncementEvent) error
}

// Config holds the dependencies and tuning for a Service.
type Config struct {
	Repo          Repo
	Weather       WeatherGateway
	Rules         RuleSource
	Uniforms      UniformCatalog
	Announcements AnnouncementPoster
	Events        EventPublisher
	Evaluator     *rules.Evaluator
	Clock         types.Clock
	Logger        *slog.Logger

	// Location is the unit's configured timezone; target dates and the
	// twilight reference instant are computed in it.
	Location *time.Location
	// Window is the future forecast window evaluated for each run.
	Window forecast.Window
	// TwilightMinutes is the twilight band half-width.
	TwilightMinutes int
	// Expiry overrides DefaultExpiry when positive.
	Expiry time.Duration
}

// Service runs the evaluation pipeline and the approval workflow.
type Service struct {
	repo          Repo
	weather       WeatherGateway
	rules         RuleSource
	uniforms      UniformCatalog
	announcements AnnouncementPoster
	events        EventPublisher
	evaluator     *rules.Evaluator
	clock         types.Clock
	logger        *slog.Logger

	location        *time.Location
	window          forecast.Window
	twilightMinutes int
	expiry          time.Duration
}

// NewService creates a Service from the given configuration.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = rules.NewEvaluator()
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Service{
		repo:            cfg.Repo,
		weather:         cfg.Weather,
		rules:           cfg.Rules,
		uniforms:        cfg.Uniforms,
		announcements:   cfg.Announcements,
		events:          cfg.Events,
		evaluator:       evaluator,
		clock:           clock,
		logger:          logger,
		location:        location,
		window:          cfg.Window,
		twilightMinutes: cfg.TwilightMinutes,
		expiry:          expiry,
	}
}

// Evaluation is the outcome of one pipeline run before persistence. When
// NoRecommendation is set the configuration produced nothing to recommend
// (no matching rule and no default uniform, or an unresolvable uniform
// reference); that is an outcome, not an error.
type Evaluation struct {
	NoRecommendation bool                  `json:"no_recommendation,omitempty"`
	Reason           string                `json:"reason,omitempty"`
	Weather          types.WeatherContext  `json:"weather"`
	Matched          []types.MatchedRule   `json:"matched"`
	UniformID        string                `json:"uniform_id,omitempty"`
	Uniform          *types.Uniform        `json:"uniform,omitempty"`
	Accessories      []types.AccessoryItem `json:"accessories"`
	// SourceRule is the rule that decided the uniform: the override rule
	// when one matched, otherwise the selection rule (nil when the default
	// uniform was used).
	SourceRule *types.MatchedRule `json:"source_rule,omitempty"`
}

// Evaluate runs the full pipeline without persisting anything: fetch the
// weather bundle, aggregate the forecast window, derive twilight flags, and
// resolve the rule sets. Used by the preview endpoint and by Create.
func (s *Service) Evaluate(ctx context.Context) (*Evaluation, error) {
	bundle, err := s.weather.FetchBundle(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	snapshot := bundle.Current
	hoursUsed := 0
	if agg := forecast.AggregateWindow(bundle.Forecast.Hourly, now, s.window); agg != nil {
		snapshot.TemperatureF = agg.TemperatureF
		snapshot.Humidity = agg.Humidity
		snapshot.WindMph = agg.WindMph
		snapshot.PrecipChance = agg.PrecipChance
		snapshot.Condition = agg.Condition
		hoursUsed = agg.HoursUsed
	}

	// Twilight flags are derived at the start of the target window, i.e.
	// the formation time the recommendation is for, not the fetch time.
	reference := now.Add(time.Duration(s.window.StartMinutes) * time.Minute).In(s.location)
	twilightStatus := twilight.Compute(bundle.Astronomy, reference, s.twilightMinutes)
	if twilightStatus.Reason != "" {
		s.logger.WarnContext(ctx, "twilight calculation degraded",
			"reason", twilightStatus.Reason,
		)
	}

	evalCtx := rules.Context{Weather: snapshot, Twilight: twilightStatus}
	eval := &Evaluation{
		Weather: types.WeatherContext{
			Snapshot:  snapshot,
			Twilight:  twilightStatus,
			HoursUsed: hoursUsed,
		},
	}

	selectionRules, err := s.rules.UniformSelectionRules(ctx)
	if err != nil {
		return nil, err
	}
	defaultUniformID, err := s.rules.DefaultUniformID(ctx)
	if err != nil {
		return nil, err
	}

	uniformID, selected, ok := s.evaluator.SelectUniform(selectionRules, defaultUniformID, evalCtx)
	if !ok {
		eval.NoRecommendation = true
		eval.Reason = "no uniform rule matched and no default uniform is configured"
		return eval, nil
	}
	eval.UniformID = uniformID
	eval.SourceRule = selected

	accessoryRules, err := s.rules.AccessoryRules(ctx)
	if err != nil {
		return nil, err
	}
	result := s.evaluator.Evaluate(accessoryRules, evalCtx)
	eval.Matched = result.Matched
	eval.Accessories = result.Accessories
	if result.Override != nil {
		eval.UniformID = result.Override.UniformID
		summary := types.MatchedRule{
			RuleID:   result.Override.ID,
			Name:     result.Override.Name,
			Priority: result.Override.EffectivePriority(),
			Effect:   result.Override.Effect,
		}
		eval.SourceRule = &summary
	}

	uniform, err := s.uniforms.GetUniform(ctx, eval.UniformID)
	if err != nil {
		return nil, err
	}
	if uniform == nil {
		eval.NoRecommendation = true
		eval.Reason = fmt.Sprintf("uniform %s is not in the catalog", eval.UniformID)
		return eval, nil
	}
	eval.Uniform = uniform

	return eval, nil
}

// CreateStatus reports how a Create call concluded.
type CreateStatus string

const (
	CreateStatusCreated CreateStatus = "created"
	CreateStatusSkipped CreateStatus = "skipped"
)

// CreateParams identify the target of a creation run.
type CreateParams struct {
	Slot string
	// Force bypasses the (slot, date) dedup guard. The prior recommendation
	// is left untouched.
	Force bool
}

// CreateResult is the outcome of a Create call. Skipped results carry a
// reason; duplicates and empty configurations are outcomes, not errors.
type CreateResult struct {
	Status         CreateStatus          `json:"status"`
	Reason         string                `json:"reason,omitempty"`
	Recommendation *types.Recommendation `json:"recommendation,omitempty"`
}

// Create runs the pipeline and persists a pending recommendation for
// (slot, today). When a non-terminal recommendation already exists for the
// pair and Force is not set, the insert is skipped.
func (s *Service) Create(ctx context.Context, params CreateParams) (*CreateResult, error) {
	eval, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if eval.NoRecommendation {
		return &CreateResult{Status: CreateStatusSkipped, Reason: eval.Reason}, nil
	}

	now := s.clock.Now()
	rec := &types.Recommendation{
		ID:          "rec_" + uuid.New().String(),
		Status:      types.RecommendationPending,
		Slot:        params.Slot,
		TargetDate:  now.In(s.location).Format(types.DateFormat),
		Weather:     eval.Weather,
		UniformID:   eval.UniformID,
		Accessories: eval.Accessories,
		Forced:      params.Force,
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if eval.SourceRule != nil {
		rec.MatchedRuleID = eval.SourceRule.RuleID
		rec.MatchedRuleName = eval.SourceRule.Name
	}

	inserted, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !inserted {
		s.logger.InfoContext(ctx, "recommendation creation skipped",
			"slot", rec.Slot,
			"target_date", rec.TargetDate,
		)
		return &CreateResult{
			Status: CreateStatusSkipped,
			Reason: fmt.Sprintf("a non-terminal recommendation already exists for %s on %s", rec.Slot, rec.TargetDate),
		}, nil
	}

	s.logger.InfoContext(ctx, "recommendation created",
		"recommendation_id", rec.ID,
		"slot", rec.Slot,
		"target_date", rec.TargetDate,
		"uniform_id", rec.UniformID,
		"forced", rec.Forced,
	)
	return &CreateResult{Status: CreateStatusCreated, Recommendation: rec}, nil
}

// ApproveParams carry the optional overrides for the generated announcement.
type ApproveParams struct {
	Title   *string
	Content *string
}

// Approve transitions a pending recommendation to approved, creates the
// announcement, and links it back. The status flip is a single conditional
// write, so exactly one approver wins a race; losers get a state conflict.
//
// Ordering: the status flip commits before the announcement is created.
// This guarantees at most one announcement per recommendation; if the
// announcement insert then fails, the error is surfaced and the
// recommendation stays approved without a link.
func (s *Service) Approve(ctx context.Context, id string, params ApproveParams) (*types.Recommendation, error) {
	actor := types.GetActor(ctx)
	now := s.clock.Now()

	flipped, err := s.repo.MarkApproved(ctx, id, actor.ID, now, params.Title, params.Content)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, s.stateConflict(ctx, id, "approve")
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title, content := s.announcementText(ctx, rec)
	ann := &types.Announcement{
		ID:               "ann_" + uuid.New().String(),
		Title:            title,
		Content:          content,
		Source:           "recommendation",
		RecommendationID: &rec.ID,
		CreatedBy:        actor.ID,
		CreatedAt:        now,
	}
	if err := s.announcements.CreateAnnouncement(ctx, ann); err != nil {
		return nil, err
	}
	if err := s.repo.SetAnnouncementID(ctx, id, ann.ID); err != nil {
		return nil, err
	}
	rec.AnnouncementID = &ann.ID

	if s.events != nil {
		event := AnnouncementEvent{
			AnnouncementID:   ann.ID,
			RecommendationID: rec.ID,
			Title:            ann.Title,
			CreatedAt:        ann.CreatedAt,
		}
		if err := s.events.PublishAnnouncementCreated(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "announcement event publish failed",
				"announcement_id", ann.ID,
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "recommendation approved",
		"recommendation_id", rec.ID,
		"announcement_id", ann.ID,
		"approved_by", actor.ID,
	)
	return rec, nil
}

// RejectParams carry the optional free-text rejection reason.
type RejectParams struct {
	Reason *string
}

// Reject transitions a pending recommendation to rejected. No announcement
// is created.
func (s *Service) Reject(ctx context.Context, id string, params RejectParams) (*types.Recommendation, error) {
	actor := types.GetActor(ctx)
	now := s.clock.Now()

	flipped, err := s.repo.MarkRejected(ctx, id, actor.ID, now, params.Reason)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, s.stateConflict(ctx, id, "reject")
	}

	s.logger.InfoContext(ctx, "recommendation rejected",
		"recommendation_id", id,
		"rejected_by", actor.ID,
	)
	return s.repo.GetByID(ctx, id)
}

// Get returns one recommendation by ID.
func (s *Service) Get(ctx context.Context, id string) (*types.Recommendation, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundRecommendation, "recommendation not found", nil)
	}
	return rec, nil
}

// List returns recommendations matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*types.Recommendation, error) {
	return s.repo.List(ctx, filter)
}

// stateConflict distinguishes "not found" from "not pending" after a
// conditional write affected zero rows.
func (s *Service) stateConflict(ctx context.Context, id, action string) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return types.NewAppError(types.ErrCodeNotFoundRecommendation, "recommendation not found", nil)
	}
	return types.NewAppError(
		types.ErrCodeConflictRecommendationState,
		fmt.Sprintf("cannot %s recommendation in status %q", action, rec.Status),
		nil,
	).WithDetails(map[string]any{"status": string(rec.Status)})
}

// announcementText resolves the announcement title and content, preferring
// the approver's custom overrides over the generated text.
func (s *Service) announcementText(ctx context.Context, rec *types.Recommendation) (string, string) {
	uniformName := rec.UniformID
	if uniform, err := s.uniforms.GetUniform(ctx, rec.UniformID); err == nil && uniform != nil {
		uniformName = uniform.Name
	}

	title := fmt.Sprintf("Uniform of the Day - %s (%s)", rec.TargetDate, rec.Slot)
	if rec.CustomTitle != nil && *rec.CustomTitle != "" {
		title = *rec.CustomTitle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Uniform: %s\n", uniformName)
	if rec.MatchedRuleName != "" {
		fmt.Fprintf(&b, "Based on: %s\n", rec.MatchedRuleName)
	}
	fmt.Fprintf(&b, "Conditions: %s, %.0f°F", rec.Weather.Snapshot.Condition, rec.Weather.Snapshot.TemperatureF)
	if len(rec.Accessories) > 0 {
		b.WriteString("\nAccessories:")
		for _, item := range rec.Accessories {
			marker := "optional"
			if item.Required {
				marker = "required"
			}
			fmt.Fprintf(&b, "\n  - %s (%s)", item.Name, marker)
		}
	}
	content := b.String()
	if rec.CustomContent != nil && *rec.CustomContent != "" {
		content = *rec.CustomContent
	}
	return title, content
}
