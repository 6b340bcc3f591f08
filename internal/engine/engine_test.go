package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gym-occupancy-backend/internal/db"
	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

var testDBSeq int

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:enginetest%d?mode=memory&cache=shared", testDBSeq)
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// Single connection keeps in-memory sqlite alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return store.NewGormStore(gormDB)
}

func seedUnits(t *testing.T, s store.Store, zone string, count int) {
	t.Helper()
	for i := 1; i <= count; i++ {
		eq := &model.Equipment{
			ID:     fmt.Sprintf("%s_%02d", zone, i),
			Name:   fmt.Sprintf("%s_%02d", zone, i),
			Zone:   zone,
			Status: model.StatusAvailable,
		}
		require.NoError(t, s.CreateEquipment(context.Background(), eq))
	}
}

// assertInvariants checks the two structural invariants: no user occupies
// two units, and in_use implies occupant plus start time (and vice versa).
func assertInvariants(t *testing.T, s store.Store) {
	t.Helper()
	units, err := s.ListEquipment(context.Background())
	require.NoError(t, err)

	occupants := make(map[string]string)
	for _, u := range units {
		if u.Status == model.StatusInUse {
			assert.NotEmpty(t, u.CurrentUser, "in_use unit %s has no occupant", u.ID)
			assert.NotNil(t, u.StartTime, "in_use unit %s has no start time", u.ID)
			if prev, ok := occupants[u.CurrentUser]; ok {
				t.Fatalf("user %s occupies both %s and %s", u.CurrentUser, prev, u.ID)
			}
			occupants[u.CurrentUser] = u.ID
		} else {
			assert.Empty(t, u.CurrentUser, "available unit %s has an occupant", u.ID)
			assert.Nil(t, u.StartTime, "available unit %s has a start time", u.ID)
		}
	}
}

func TestCheckInCheckOutRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 2)
	eng := New(s, nil)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	eng.SetClock(func() time.Time { return start })

	in, err := eng.CheckIn(context.Background(), "benches", "alice")
	require.NoError(t, err)
	assert.Equal(t, start, in.StartTime)
	assert.Contains(t, []string{"benches_01", "benches_02"}, in.EquipmentID)
	assertInvariants(t, s)

	// Second check-in for the same user must fail without mutating state.
	_, err = eng.CheckIn(context.Background(), "benches", "alice")
	var already *AlreadyCheckedInError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "benches", already.Zone)
	assert.Equal(t, in.EquipmentID, already.EquipmentID)
	assertInvariants(t, s)

	// 25 minutes later alice checks out.
	eng.SetClock(func() time.Time { return start.Add(25 * time.Minute) })
	out, err := eng.CheckOut(context.Background(), "benches", "alice")
	require.NoError(t, err)
	assert.Equal(t, in.EquipmentID, out.EquipmentID)
	assert.Equal(t, 25, out.DurationMinutes)
	assert.Equal(t, 25, out.NewAvgDuration)
	assertInvariants(t, s)

	unit, err := s.GetEquipment(context.Background(), in.EquipmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, unit.Status)
	assert.Empty(t, unit.CurrentUser)
	assert.Nil(t, unit.StartTime)
	assert.Equal(t, 25, unit.AvgDuration)
	assert.Equal(t, int64(1), unit.UsageCount)

	// Exactly one ledger record.
	recs, err := s.UsageByEquipment(context.Background(), in.EquipmentID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "alice", recs[0].User)
	assert.Equal(t, 25, recs[0].DurationMinutes)
	assert.True(t, recs[0].EndTime.After(recs[0].StartTime))
}

func TestCheckInNoAvailableUnit(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "cardio", 1)
	eng := New(s, nil)

	_, err := eng.CheckIn(context.Background(), "cardio", "alice")
	require.NoError(t, err)

	_, err = eng.CheckIn(context.Background(), "cardio", "bob")
	var noUnit *NoAvailableUnitError
	require.ErrorAs(t, err, &noUnit)
	assert.Equal(t, "cardio", noUnit.Zone)

	// Unknown zones look exactly like full zones.
	_, err = eng.CheckIn(context.Background(), "sauna", "bob")
	require.ErrorAs(t, err, &noUnit)
}

func TestCheckOutNoActiveSession(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 2)
	eng := New(s, nil)

	_, err := eng.CheckOut(context.Background(), "benches", "alice")
	var noSession *NoActiveSessionError
	require.ErrorAs(t, err, &noSession)
	assert.Equal(t, "benches", noSession.Zone)
	assert.Equal(t, "alice", noSession.User)
}

func TestCheckOutIsUserScoped(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 2)
	eng := New(s, nil)

	inAlice, err := eng.CheckIn(context.Background(), "benches", "alice")
	require.NoError(t, err)
	_, err = eng.CheckIn(context.Background(), "benches", "bob")
	require.NoError(t, err)

	// Bob's checkout must not release alice's unit.
	out, err := eng.CheckOut(context.Background(), "benches", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, inAlice.EquipmentID, out.EquipmentID)

	unit, err := s.GetEquipment(context.Background(), inAlice.EquipmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInUse, unit.Status)
	assert.Equal(t, "alice", unit.CurrentUser)
}

func TestCheckOutZoneScopedFallback(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 2)
	eng := New(s, nil)

	in, err := eng.CheckIn(context.Background(), "benches", "alice")
	require.NoError(t, err)

	// Empty user releases the first in-use unit in the zone.
	out, err := eng.CheckOut(context.Background(), "benches", "")
	require.NoError(t, err)
	assert.Equal(t, in.EquipmentID, out.EquipmentID)
	assert.Equal(t, "alice", out.User)
}

func TestCheckOutMissingStartTime(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 1)
	eng := New(s, nil)

	_, err := eng.CheckIn(context.Background(), "benches", "alice")
	require.NoError(t, err)

	// Simulate a legacy row with no recorded start.
	require.NoError(t, s.DB().Model(&model.Equipment{}).
		Where("id = ?", "benches_01").
		Update("start_time", nil).Error)

	out, err := eng.CheckOut(context.Background(), "benches", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, out.DurationMinutes)
}

func TestAverageRecomputeAcrossSessions(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 1)
	eng := New(s, nil)

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	durations := []int{10, 20, 25}
	for _, d := range durations {
		eng.SetClock(func() time.Time { return now })
		_, err := eng.CheckIn(context.Background(), "benches", "alice")
		require.NoError(t, err)

		end := now.Add(time.Duration(d) * time.Minute)
		eng.SetClock(func() time.Time { return end })
		out, err := eng.CheckOut(context.Background(), "benches", "alice")
		require.NoError(t, err)
		assert.Equal(t, d, out.DurationMinutes)
		now = end.Add(5 * time.Minute)
	}

	// round((10+20+25)/3) = 18
	unit, err := s.GetEquipment(context.Background(), "benches_01")
	require.NoError(t, err)
	assert.Equal(t, 18, unit.AvgDuration)
	assert.Equal(t, int64(3), unit.UsageCount)
}

func TestConcurrentCheckInsSameUser(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 5)
	eng := New(s, nil)

	const n = 10
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.CheckIn(context.Background(), "benches", "alice")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		failures++
		var already *AlreadyCheckedInError
		var noUnit *NoAvailableUnitError
		if !errors.As(err, &already) && !errors.As(err, &noUnit) {
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent check-in may succeed")
	assert.Equal(t, n-1, failures)
	assertInvariants(t, s)

	// Exactly one unit is occupied afterwards.
	units, err := s.ListEquipment(context.Background())
	require.NoError(t, err)
	var inUse int
	for _, u := range units {
		if u.Status == model.StatusInUse {
			inUse++
		}
	}
	assert.Equal(t, 1, inUse)
}

func TestConcurrentCheckInsDistinctUsers(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 3)
	eng := New(s, nil)

	const n = 6
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		user := fmt.Sprintf("user%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.CheckIn(context.Background(), "benches", user)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			var noUnit *NoAvailableUnitError
			require.ErrorAs(t, err, &noUnit)
		}
	}
	// 3 units, 6 users: exactly the unit count succeeds, no double claims.
	assert.Equal(t, 3, successes)
	assertInvariants(t, s)
}

func TestSwitchZoneComposition(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 1)
	seedUnits(t, s, "cardio", 1)
	eng := New(s, nil)

	_, err := eng.CheckIn(context.Background(), "benches", "alice")
	require.NoError(t, err)

	// SwitchZone is checkout-then-checkin; no atomic primitive exists.
	_, err = eng.CheckOut(context.Background(), "benches", "alice")
	require.NoError(t, err)
	in2, err := eng.CheckIn(context.Background(), "cardio", "alice")
	require.NoError(t, err)
	assert.Equal(t, "cardio_01", in2.EquipmentID)
	assertInvariants(t, s)
}

func TestInvalidRequests(t *testing.T) {
	s := newTestStore(t)
	eng := New(s, nil)

	var invalid *InvalidRequestError
	_, err := eng.CheckIn(context.Background(), "", "alice")
	require.ErrorAs(t, err, &invalid)
	_, err = eng.CheckIn(context.Background(), "benches", "")
	require.ErrorAs(t, err, &invalid)
	_, err = eng.CheckOut(context.Background(), "", "alice")
	require.ErrorAs(t, err, &invalid)
}

type recordingNotifier struct {
	mu    sync.Mutex
	zones []string
}

func (r *recordingNotifier) Dispatch(zone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones = append(r.zones, zone)
}

func TestCheckOutNotifiesZone(t *testing.T) {
	s := newTestStore(t)
	seedUnits(t, s, "benches", 1)
	notifier := &recordingNotifier{}
	eng := New(s, notifier)

	_, err := eng.CheckIn(context.Background(), "benches", "alice")
	require.NoError(t, err)
	_, err = eng.CheckOut(context.Background(), "benches", "alice")
	require.NoError(t, err)

	assert.Equal(t, []string{"benches"}, notifier.zones)
}
