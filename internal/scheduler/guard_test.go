package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

type mockSlotRepo struct{ mock.Mock }

func (m *mockSlotRepo) ListEnabled(ctx context.Context) ([]types.ScheduleSlot, error) {
	args := m.Called(ctx)
	if slots, ok := args.Get(0).([]types.ScheduleSlot); ok {
		return slots, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSlotRepo) ClaimFire(ctx context.Context, slot string, now, dayStart time.Time) (bool, error) {
	args := m.Called(ctx, slot, now, dayStart)
	return args.Bool(0), args.Error(1)
}

type mockWeatherRules struct{ mock.Mock }

func (m *mockWeatherRules) CountWeatherRules(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) GetUniform(ctx context.Context, id string) (*types.Uniform, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*types.Uniform); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPoster struct{ mock.Mock }

func (m *mockPoster) CreateAnnouncement(ctx context.Context, ann *types.Announcement) error {
	args := m.Called(ctx, ann)
	return args.Error(0)
}

type mockClock struct{ now time.Time }

func (c mockClock) Now() time.Time { return c.now }

// 11:30 local in a UTC-5 zone; clock returns the UTC instant.
var (
	guardZone = time.FixedZone("America/New_York", -5*60*60)
	guardNow  = time.Date(2025, 1, 10, 16, 30, 0, 0, time.UTC)
)

type guardFixture struct {
	slots   *mockSlotRepo
	rules   *mockWeatherRules
	catalog *mockCatalog
	poster  *mockPoster
	guard   *SlotGuard
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	fx := &guardFixture{
		slots:   &mockSlotRepo{},
		rules:   &mockWeatherRules{},
		catalog: &mockCatalog{},
		poster:  &mockPoster{},
	}
	fx.guard = NewSlotGuard(GuardConfig{
		Slots:         fx.slots,
		WeatherRules:  fx.rules,
		Uniforms:      fx.catalog,
		Announcements: fx.poster,
		Clock:         mockClock{now: guardNow},
		Location:      guardZone,
	})
	return fx
}

func slot(name, postTime, uniformID string) types.ScheduleSlot {
	return types.ScheduleSlot{Slot: name, Enabled: true, PostTime: postTime, UniformID: uniformID}
}

func TestTick_PostsMatchingSlot(t *testing.T) {
	fx := newGuardFixture(t)
	fx.rules.On("CountWeatherRules", mock.Anything).Return(0, nil)
	fx.slots.On("ListEnabled", mock.Anything).Return([]types.ScheduleSlot{
		slot("lunch", "11:30", "uni_ocp"),
	}, nil)
	localDayStart := time.Date(2025, 1, 10, 0, 0, 0, 0, guardZone)
	fx.slots.On("ClaimFire", mock.Anything, "lunch", guardNow.In(guardZone), localDayStart).Return(true, nil)
	fx.catalog.On("GetUniform", mock.Anything, "uni_ocp").
		Return(&types.Uniform{ID: "uni_ocp", Name: "OCP"}, nil)
	fx.poster.On("CreateAnnouncement", mock.Anything, mock.MatchedBy(func(ann *types.Announcement) bool {
		return ann.Source == "scheduler" && ann.RecommendationID == nil
	})).Return(nil)

	posted, err := fx.guard.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, posted)
	fx.poster.AssertExpectations(t)
}

func TestTick_WeatherRulesDisableAllSlots(t *testing.T) {
	fx := newGuardFixture(t)
	fx.rules.On("CountWeatherRules", mock.Anything).Return(1, nil)

	posted, err := fx.guard.Tick(context.Background())

	require.NoError(t, err)
	assert.Zero(t, posted)
	fx.slots.AssertNotCalled(t, "ListEnabled", mock.Anything)
	fx.poster.AssertNotCalled(t, "CreateAnnouncement", mock.Anything, mock.Anything)
}

func TestTick_SkipsNonMatchingMinuteAndMissingUniform(t *testing.T) {
	fx := newGuardFixture(t)
	fx.rules.On("CountWeatherRules", mock.Anything).Return(0, nil)
	fx.slots.On("ListEnabled", mock.Anything).Return([]types.ScheduleSlot{
		slot("breakfast", "06:30", "uni_ocp"), // wrong minute
		slot("lunch", "11:30", ""),            // no uniform configured
	}, nil)

	posted, err := fx.guard.Tick(context.Background())

	require.NoError(t, err)
	assert.Zero(t, posted)
	fx.slots.AssertNotCalled(t, "ClaimFire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTick_AlreadyFiredTodayDoesNotRepost(t *testing.T) {
	fx := newGuardFixture(t)
	fx.rules.On("CountWeatherRules", mock.Anything).Return(0, nil)
	fx.slots.On("ListEnabled", mock.Anything).Return([]types.ScheduleSlot{
		slot("lunch", "11:30", "uni_ocp"),
	}, nil)
	fx.slots.On("ClaimFire", mock.Anything, "lunch", mock.Anything, mock.Anything).Return(false, nil)

	// Invoked repeatedly on the configured minute; the claim never succeeds
	// a second time, so nothing is ever posted twice and a lost claim does
	// not count toward the posted total.
	for i := 0; i < 3; i++ {
		posted, err := fx.guard.Tick(context.Background())
		require.NoError(t, err)
		assert.Zero(t, posted)
	}
	fx.catalog.AssertNotCalled(t, "GetUniform", mock.Anything, mock.Anything)
	fx.poster.AssertNotCalled(t, "CreateAnnouncement", mock.Anything, mock.Anything)
}

func TestTick_SlotFailureDoesNotStopOthers(t *testing.T) {
	fx := newGuardFixture(t)
	fx.rules.On("CountWeatherRules", mock.Anything).Return(0, nil)
	fx.slots.On("ListEnabled", mock.Anything).Return([]types.ScheduleSlot{
		slot("lunch", "11:30", "uni_missing"),
		slot("chow", "11:30", "uni_ocp"),
	}, nil)
	fx.slots.On("ClaimFire", mock.Anything, "lunch", mock.Anything, mock.Anything).Return(true, nil)
	fx.slots.On("ClaimFire", mock.Anything, "chow", mock.Anything, mock.Anything).Return(true, nil)
	fx.catalog.On("GetUniform", mock.Anything, "uni_missing").Return(nil, nil)
	fx.catalog.On("GetUniform", mock.Anything, "uni_ocp").
		Return(&types.Uniform{ID: "uni_ocp", Name: "OCP"}, nil)
	fx.poster.On("CreateAnnouncement", mock.Anything, mock.Anything).Return(nil)

	posted, err := fx.guard.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, posted)
}

func TestTick_RuleCountErrorSurfaces(t *testing.T) {
	fx := newGuardFixture(t)
	fx.rules.On("CountWeatherRules", mock.Anything).Return(0, errors.New("db down"))

	_, err := fx.guard.Tick(context.Background())

	require.Error(t, err)
}
