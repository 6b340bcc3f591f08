// Package analytics derives live utilization statistics and advisory wait
// estimates from the equipment registry and the session ledger.
package analytics

import (
	"context"
	"math"
	"time"

	"gym-occupancy-backend/config"
	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

// ZoneStats summarises one zone's live occupancy.
type ZoneStats struct {
	Available          int     `json:"available"`
	InUse              int     `json:"in_use"`
	Total              int     `json:"total"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// Blending and clamping constants for the wait estimator. The clamp keeps
// the estimate advisory: near-full zones with long averages would otherwise
// produce numbers nobody believes.
const (
	liveWeight       = 0.6
	historyWeight    = 0.4
	surgeThreshold   = 85.0
	surgeFactor      = 1.2
	maxWaitMinutes   = 30.0
	hoursPerDay      = 24
	minutesPerBucket = 60.0
)

// Aggregator computes heatmap and ETA answers on demand. Nothing is
// cached: a stale availability number misleads users directly.
type Aggregator struct {
	store store.Store
	cfg   config.AnalyticsConfig
	now   func() time.Time
}

// New creates an Aggregator.
func New(s store.Store, cfg config.AnalyticsConfig) *Aggregator {
	return &Aggregator{
		store: s,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the aggregator's clock. Tests only.
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

// Heatmap returns live per-zone occupancy, computed fresh from the
// registry on every call. Zones with zero units do not appear.
func (a *Aggregator) Heatmap(ctx context.Context) (map[string]ZoneStats, error) {
	units, err := a.store.ListEquipment(ctx)
	if err != nil {
		return nil, err
	}

	zones := make(map[string]ZoneStats)
	for _, u := range units {
		zone := u.Zone
		if zone == "" {
			zone = "unknown"
		}
		st := zones[zone]
		st.Total++
		if u.InUse() {
			st.InUse++
		} else {
			st.Available++
		}
		zones[zone] = st
	}

	for zone, st := range zones {
		if st.Total > 0 {
			st.UtilizationPercent = round1(100 * float64(st.InUse) / float64(st.Total))
		}
		zones[zone] = st
	}
	return zones, nil
}

// ETA estimates how many minutes until a unit frees up in the zone. The
// live utilization is blended with the historical mean for the current
// hour of day; a busy blend inflates the estimate, and the result is
// clamped to [0, maxWaitMinutes].
func (a *Aggregator) ETA(ctx context.Context, zone string) (int, error) {
	zones, err := a.Heatmap(ctx)
	if err != nil {
		return 0, err
	}
	st, ok := zones[zone]
	if !ok || st.Total == 0 {
		return 0, nil
	}
	current := st.UtilizationPercent

	historical, err := a.historicalUtilization(ctx, zone, st.Total, a.now().Hour())
	if err != nil {
		return 0, err
	}
	if historical < 0 {
		// No ledger history for this zone yet.
		historical = current
	}

	zoneAvg := a.cfg.DefaultAvgSessionMinutes
	if v, ok := a.cfg.ZoneAvgSessionMinutes[zone]; ok {
		zoneAvg = v
	}

	estimate := current / 100 * zoneAvg
	blended := liveWeight*current + historyWeight*historical
	if blended > surgeThreshold {
		estimate *= surgeFactor
	}
	if estimate < 0 {
		estimate = 0
	}
	if estimate > maxWaitMinutes {
		estimate = maxWaitMinutes
	}
	return int(math.Round(estimate)), nil
}

// historicalUtilization averages ledger-derived occupancy for one
// hour-of-day bucket: each record contributes the minutes it overlaps the
// bucket, normalised by observed days, bucket length and unit count.
// Returns -1 when the zone has no history.
func (a *Aggregator) historicalUtilization(ctx context.Context, zone string, unitCount, hour int) (float64, error) {
	recs, err := a.store.UsageByZone(ctx, zone)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 || unitCount == 0 {
		return -1, nil
	}

	busyMinutes := 0.0
	days := make(map[string]struct{})
	for _, r := range recs {
		days[r.EndTime.UTC().Format("2006-01-02")] = struct{}{}
		busyMinutes += overlapMinutes(r, hour)
	}
	if len(days) == 0 {
		return -1, nil
	}

	capacity := float64(len(days)) * minutesPerBucket * float64(unitCount)
	util := 100 * busyMinutes / capacity
	if util > 100 {
		util = 100
	}
	return util, nil
}

// overlapMinutes returns how many minutes of the record's interval fall
// inside the given hour-of-day bucket, summed across however many days the
// interval spans.
func overlapMinutes(r model.UsageRecord, hour int) float64 {
	start := r.StartTime.UTC()
	end := r.EndTime.UTC()
	if !end.After(start) {
		return 0
	}

	total := 0.0
	// Walk the bucket occurrence on each day the interval touches.
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for !day.After(end) {
		bucketStart := day.Add(time.Duration(hour) * time.Hour)
		bucketEnd := bucketStart.Add(time.Hour)
		lo := maxTime(start, bucketStart)
		hi := minTime(end, bucketEnd)
		if hi.After(lo) {
			total += hi.Sub(lo).Minutes()
		}
		day = day.Add(hoursPerDay * time.Hour)
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
