// Package engine implements the check-in/check-out state machine: one
// active session per user, zone-scoped unit selection, and the usage-log
// accounting that keeps each unit's trailing average current.
package engine

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

// Notifier receives the zone of each freed unit. Implemented by the push
// worker pool; nil disables dispatch.
type Notifier interface {
	Dispatch(zone string)
}

// Engine drives all occupancy transitions. It is safe for concurrent use;
// every mutation goes through the store's conditional-update primitives.
type Engine struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

// New creates an Engine. notifier may be nil.
func New(s store.Store, notifier Notifier) *Engine {
	return &Engine{
		store:    s,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the engine's clock. Tests only.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// CheckInResult reports a successful check-in.
type CheckInResult struct {
	EquipmentID string    `json:"equipment_id"`
	Zone        string    `json:"zone"`
	User        string    `json:"user"`
	StartTime   time.Time `json:"start_time"`
}

// CheckOutResult reports a successful check-out.
type CheckOutResult struct {
	EquipmentID     string `json:"equipment_id"`
	Zone            string `json:"zone"`
	User            string `json:"user"`
	DurationMinutes int    `json:"duration_minutes"`
	NewAvgDuration  int    `json:"new_avg_duration"`
}

// CheckIn assigns the user a free unit in the zone.
//
// The duplicate-session guard and the claim are not one snapshot: two
// racing check-ins for the same user can both pass the guard. The partial
// unique index on the active occupant makes the second claim fail at
// commit, and that failure is reported as AlreadyCheckedInError, so at
// most one of N concurrent calls ever succeeds.
func (e *Engine) CheckIn(ctx context.Context, zone, user string) (*CheckInResult, error) {
	if zone == "" {
		return nil, &InvalidRequestError{Reason: "zone is required"}
	}
	if user == "" {
		return nil, &InvalidRequestError{Reason: "user is required"}
	}

	active, err := e.store.ActiveEquipmentForUser(ctx, user)
	switch {
	case err == nil:
		return nil, &AlreadyCheckedInError{Zone: active.Zone, EquipmentID: active.ID, User: user}
	case errors.Is(err, store.ErrNotFound):
		// No active session, proceed.
	default:
		return nil, &StoreUnavailableError{Cause: err}
	}

	now := e.now()
	claimed, err := e.store.ClaimAvailable(ctx, zone, user, now)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrConflict):
			return nil, &NoAvailableUnitError{Zone: zone}
		case isUniqueViolation(err):
			// Another request checked this user in between guard and claim.
			return nil, e.describeExistingSession(ctx, user)
		default:
			return nil, &StoreUnavailableError{Cause: err}
		}
	}

	return &CheckInResult{
		EquipmentID: claimed.ID,
		Zone:        zone,
		User:        user,
		StartTime:   now,
	}, nil
}

// CheckOut ends the user's session in the zone, logs a usage record and
// refreshes the unit's trailing average. An empty user falls back to the
// zone-only lookup the compatibility shim needs.
func (e *Engine) CheckOut(ctx context.Context, zone, user string) (*CheckOutResult, error) {
	if zone == "" {
		return nil, &InvalidRequestError{Reason: "zone is required"}
	}

	released, err := e.store.Release(ctx, zone, user)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrConflict):
			return nil, &NoActiveSessionError{Zone: zone, User: user}
		default:
			return nil, &StoreUnavailableError{Cause: err}
		}
	}

	now := e.now()
	var start time.Time
	var duration int
	if released.StartTime != nil {
		start = released.StartTime.UTC()
		duration = int(now.Sub(start) / time.Minute)
		if duration < 0 {
			duration = 0
		}
	} else {
		// A unit in_use without a start time should not happen; treat the
		// session as zero-length rather than failing the checkout.
		start = now
	}

	rec := &model.UsageRecord{
		ID:              uuid.NewString(),
		EquipmentID:     released.ID,
		Zone:            zone,
		User:            released.CurrentUser,
		StartTime:       start,
		EndTime:         now,
		DurationMinutes: duration,
	}
	if err := e.store.AppendUsage(ctx, rec); err != nil {
		// The unit is already released; the ledger only feeds statistics,
		// so losing this append is logged, not fatal.
		log.Printf("usage append failed for %s: %v", released.ID, err)
	}

	newAvg, err := e.recomputeAverage(ctx, released.ID)
	if err != nil {
		log.Printf("average recompute failed for %s: %v", released.ID, err)
		newAvg = released.AvgDuration
	}

	if e.notifier != nil {
		e.notifier.Dispatch(zone)
	}

	return &CheckOutResult{
		EquipmentID:     released.ID,
		Zone:            zone,
		User:            released.CurrentUser,
		DurationMinutes: duration,
		NewAvgDuration:  newAvg,
	}, nil
}

// recomputeAverage re-scans the unit's full ledger and stores the rounded
// mean. Acceptable at this scale; an incremental running average would
// replace the re-scan if per-unit history grew unbounded.
func (e *Engine) recomputeAverage(ctx context.Context, equipmentID string) (int, error) {
	recs, err := e.store.UsageByEquipment(ctx, equipmentID)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		// Leave the insufficient-data sentinel untouched.
		return 0, nil
	}

	var sum int
	for _, r := range recs {
		sum += r.DurationMinutes
	}
	avg := int(math.Round(float64(sum) / float64(len(recs))))
	if err := e.store.SetAvgDuration(ctx, equipmentID, avg); err != nil {
		return 0, err
	}
	return avg, nil
}

func (e *Engine) describeExistingSession(ctx context.Context, user string) error {
	active, err := e.store.ActiveEquipmentForUser(ctx, user)
	if err != nil {
		return &AlreadyCheckedInError{User: user}
	}
	return &AlreadyCheckedInError{Zone: active.Zone, EquipmentID: active.ID, User: user}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var target *StoreUnavailableError
	if errors.As(err, &target) {
		err = target.Cause
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
