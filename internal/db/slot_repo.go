package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// SlotRepository manages schedule slot configuration and the once-daily
// firing claim used by the scheduler guard.
type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `slot, enabled, uniform_id, post_time, last_fired_at`

func scanSlot(row pgx.Row) (types.ScheduleSlot, error) {
	var slot types.ScheduleSlot
	var uniformID *string
	err := row.Scan(
		&slot.Slot,
		&slot.Enabled,
		&uniformID,
		&slot.PostTime,
		&slot.LastFiredAt,
	)
	if err != nil {
		return types.ScheduleSlot{}, err
	}
	if uniformID != nil {
		slot.UniformID = *uniformID
	}
	return slot, nil
}

// ListEnabled returns all enabled slots in slot-name order.
func (r *SlotRepository) ListEnabled(ctx context.Context) ([]types.ScheduleSlot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+slotColumns+` FROM schedule_slots WHERE enabled ORDER BY slot`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list slots", err)
	}
	defer rows.Close()

	var slots []types.ScheduleSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan slot", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate slots", err)
	}
	return slots, nil
}

// List returns every configured slot regardless of enabled state.
func (r *SlotRepository) List(ctx context.Context) ([]types.ScheduleSlot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+slotColumns+` FROM schedule_slots ORDER BY slot`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list slots", err)
	}
	defer rows.Close()

	var slots []types.ScheduleSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan slot", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate slots", err)
	}
	return slots, nil
}

// Get returns a single slot by name, or nil when it does not exist.
func (r *SlotRepository) Get(ctx context.Context, slot string) (*types.ScheduleSlot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM schedule_slots WHERE slot = $1`, slot,
	)
	result, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get slot", err)
	}
	return &result, nil
}

// Upsert creates or replaces a slot's configuration. The firing claim
// timestamp is preserved on update so reconfiguring a slot does not let
// it fire twice in one day.
func (r *SlotRepository) Upsert(ctx context.Context, slot types.ScheduleSlot) error {
	var uniformID *string
	if slot.UniformID != "" {
		uniformID = &slot.UniformID
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO schedule_slots (slot, enabled, uniform_id, post_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slot) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			uniform_id = EXCLUDED.uniform_id,
			post_time = EXCLUDED.post_time,
			updated_at = NOW()`,
		slot.Slot, slot.Enabled, uniformID, slot.PostTime,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert slot", err)
	}
	return nil
}

// ClaimFire atomically records that the slot fired at now, but only if it
// has not already fired on or after dayStart. Returns true when this
// caller won the claim. The conditional UPDATE makes the claim safe
// against concurrent scheduler instances.
func (r *SlotRepository) ClaimFire(ctx context.Context, slot string, now, dayStart time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE schedule_slots
		SET last_fired_at = $2, updated_at = NOW()
		WHERE slot = $1
		  AND enabled
		  AND (last_fired_at IS NULL OR last_fired_at < $3)`,
		slot, now, dayStart,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to claim slot firing", err)
	}
	return tag.RowsAffected() > 0, nil
}
