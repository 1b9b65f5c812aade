// Package scheduler implements the time-triggered posting guard for
// schedule slots. The guard runs on a one-minute cadence and posts each
// enabled slot's configured uniform at most once per calendar day in the
// configured timezone.
//
// When any weather rule is configured, the guard stands down entirely: the
// weather-driven recommendation path owns posting in that mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// SlotRepo is the persistence contract for schedule slots. ClaimFire is an
// atomic conditional write: it stamps last_fired_at to now only when the
// slot has not already fired on or after dayStart, and reports whether this
// caller won the claim. This closes the read-then-write race between
// concurrent ticks.
type SlotRepo interface {
	ListEnabled(ctx context.Context) ([]types.ScheduleSlot, error)
	ClaimFire(ctx context.Context, slot string, now, dayStart time.Time) (bool, error)
}

// WeatherRuleSource reports whether a weather rule set is configured.
type WeatherRuleSource interface {
	CountWeatherRules(ctx context.Context) (int, error)
}

// UniformCatalog resolves a slot's configured uniform.
type UniformCatalog interface {
	GetUniform(ctx context.Context, id string) (*types.Uniform, error)
}

// AnnouncementPoster persists the direct slot announcement.
type AnnouncementPoster interface {
	CreateAnnouncement(ctx context.Context, ann *types.Announcement) error
}

// GuardConfig holds the dependencies for a SlotGuard.
type GuardConfig struct {
	Slots         SlotRepo
	WeatherRules  WeatherRuleSource
	Uniforms      UniformCatalog
	Announcements AnnouncementPoster
	Clock         types.Clock
	Logger        *slog.Logger
	// Location is the timezone slot post times are interpreted in.
	Location *time.Location
}

// SlotGuard fires slot announcements on their configured minute.
type SlotGuard struct {
	slots         SlotRepo
	weatherRules  WeatherRuleSource
	uniforms      UniformCatalog
	announcements AnnouncementPoster
	clock         types.Clock
	logger        *slog.Logger
	location      *time.Location
}

// NewSlotGuard creates a SlotGuard from the given configuration.
func NewSlotGuard(cfg GuardConfig) *SlotGuard {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	return &SlotGuard{
		slots:         cfg.Slots,
		weatherRules:  cfg.WeatherRules,
		uniforms:      cfg.Uniforms,
		announcements: cfg.Announcements,
		clock:         clock,
		logger:        logger,
		location:      location,
	}
}

// Tick processes one scheduler cycle and returns the number of
// announcements posted.
//
// Before any slot is considered, the guard checks whether a weather rule
// set with at least one entry exists; if so it posts nothing, regardless of
// slot configuration. Otherwise, for each enabled slot it skips slots with
// no uniform, slots whose configured "HH:mm" does not exactly equal the
// current local minute, and slots that already fired today. A failure on
// one slot is logged and does not stop the others.
func (g *SlotGuard) Tick(ctx context.Context) (int, error) {
	ruleCount, err := g.weatherRules.CountWeatherRules(ctx)
	if err != nil {
		return 0, err
	}
	if ruleCount > 0 {
		// Weather-driven path owns posting exclusively.
		return 0, nil
	}

	slots, err := g.slots.ListEnabled(ctx)
	if err != nil {
		return 0, err
	}

	now := g.clock.Now().In(g.location)
	currentMinute := now.Format("15:04")
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.location)

	posted := 0
	for _, slot := range slots {
		if slot.UniformID == "" {
			continue
		}
		if slot.PostTime != currentMinute {
			continue
		}
		fired, err := g.fireSlot(ctx, slot, now, dayStart)
		if err != nil {
			g.logger.ErrorContext(ctx, "slot posting failed",
				"slot", slot.Slot,
				"error", err,
			)
			continue
		}
		if fired {
			posted++
		}
	}

	return posted, nil
}

// fireSlot claims the slot's daily firing and posts its announcement,
// reporting whether an announcement was actually created. The claim is
// stamped before posting so a concurrent tick cannot produce a second
// announcement for the same day.
func (g *SlotGuard) fireSlot(ctx context.Context, slot types.ScheduleSlot, now, dayStart time.Time) (bool, error) {
	claimed, err := g.slots.ClaimFire(ctx, slot.Slot, now, dayStart)
	if err != nil {
		return false, fmt.Errorf("claiming slot fire: %w", err)
	}
	if !claimed {
		// Already fired today.
		return false, nil
	}

	uniform, err := g.uniforms.GetUniform(ctx, slot.UniformID)
	if err != nil {
		return false, fmt.Errorf("loading uniform %s: %w", slot.UniformID, err)
	}
	if uniform == nil {
		return false, fmt.Errorf("uniform %s not found", slot.UniformID)
	}

	ann := &types.Announcement{
		ID:        "ann_" + uuid.New().String(),
		Title:     fmt.Sprintf("Uniform of the Day - %s (%s)", now.Format(types.DateFormat), slot.Slot),
		Content:   fmt.Sprintf("Uniform: %s", uniform.Name),
		Source:    "scheduler",
		CreatedBy: types.SystemActor.ID,
		CreatedAt: now.UTC(),
	}
	if err := g.announcements.CreateAnnouncement(ctx, ann); err != nil {
		return false, fmt.Errorf("creating announcement: %w", err)
	}

	g.logger.InfoContext(ctx, "slot announcement posted",
		"slot", slot.Slot,
		"uniform_id", slot.UniformID,
		"announcement_id", ann.ID,
	)
	return true, nil
}
