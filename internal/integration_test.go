package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gym-occupancy-backend/config"
	"gym-occupancy-backend/internal/analytics"
	"gym-occupancy-backend/internal/db"
	"gym-occupancy-backend/internal/engine"
	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

// TestSessionLifecycle walks one user through a complete gym visit and
// verifies the database and the analytics views at each step.
func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	// 1. Setup an in-memory SQLite database for testing.
	testDB, err := gorm.Open(sqlite.Open("file:lifecycletest?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, db.Migrate(testDB))

	// 2. Wire the store, engine and analytics with a controllable clock.
	s := store.NewGormStore(testDB)
	eng := engine.New(s, nil)

	now := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	eng.SetClock(func() time.Time { return now })

	analyticsCfg := config.AnalyticsConfig{
		DefaultAvgSessionMinutes: 15,
		ZoneAvgSessionMinutes:    map[string]float64{"benches": 20},
	}
	agg := analytics.New(s, analyticsCfg)

	// 3. Seed a small floor: two benches and one treadmill.
	for _, unit := range []model.Equipment{
		{ID: "benches_01", Name: "Bench 1", Zone: "benches", Status: model.StatusAvailable},
		{ID: "benches_02", Name: "Bench 2", Zone: "benches", Status: model.StatusAvailable},
		{ID: "treadmill_01", Name: "Treadmill 1", Zone: "treadmill", Status: model.StatusAvailable},
	} {
		require.NoError(t, s.CreateEquipment(ctx, &unit))
	}

	// 4. Alice checks in; one bench flips to in_use with her session on it.
	checkin, err := eng.CheckIn(ctx, "benches", "alice")
	require.NoError(t, err)
	assert.Equal(t, "benches", checkin.Zone)
	assert.Equal(t, now, checkin.StartTime)

	claimed, err := s.GetEquipment(ctx, checkin.EquipmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInUse, claimed.Status)
	assert.Equal(t, "alice", claimed.CurrentUser)
	require.NotNil(t, claimed.StartTime)

	// 5. She cannot hold a second unit anywhere, not even another zone.
	_, err = eng.CheckIn(ctx, "treadmill", "alice")
	var already *engine.AlreadyCheckedInError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, checkin.EquipmentID, already.EquipmentID)

	// 6. The heatmap reflects the claim immediately.
	heatmap, err := agg.Heatmap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, heatmap["benches"].InUse)
	assert.Equal(t, 1, heatmap["benches"].Available)
	assert.InDelta(t, 50.0, heatmap["benches"].UtilizationPercent, 0.01)
	assert.Equal(t, 0, heatmap["treadmill"].InUse)

	// 7. Forty minutes later she checks out.
	now = now.Add(40 * time.Minute)
	checkout, err := eng.CheckOut(ctx, "benches", "alice")
	require.NoError(t, err)
	assert.Equal(t, checkin.EquipmentID, checkout.EquipmentID)
	assert.Equal(t, 40, checkout.DurationMinutes)
	assert.Equal(t, 40, checkout.NewAvgDuration)

	released, err := s.GetEquipment(ctx, checkin.EquipmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, released.Status)
	assert.Empty(t, released.CurrentUser)
	assert.Nil(t, released.StartTime)
	assert.Equal(t, int64(1), released.UsageCount)
	assert.Equal(t, 40, released.AvgDuration)

	// 8. The visit landed in the ledger exactly once.
	records, err := s.UsageByEquipment(ctx, checkin.EquipmentID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].User)
	assert.Equal(t, "benches", records[0].Zone)
	assert.Equal(t, 40, records[0].DurationMinutes)
	assert.True(t, records[0].EndTime.Equal(now))

	// 9. A second checkout finds nothing to release.
	_, err = eng.CheckOut(ctx, "benches", "alice")
	var noSession *engine.NoActiveSessionError
	assert.ErrorAs(t, err, &noSession)

	// 10. With the floor idle again the wait estimate collapses to zero.
	eta, err := agg.ETA(ctx, "benches")
	require.NoError(t, err)
	assert.Equal(t, 0, eta)
}
