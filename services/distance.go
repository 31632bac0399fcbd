package services

import (
	"log/slog"

	"fleet-track/models"
	"fleet-track/utils"
)

// DistanceAccumulator computes cumulative GPS-derived distance over a
// device's event stream. It is a best-effort reporting aggregate: per-event
// failures degrade silently.
type DistanceAccumulator struct {
	engine *RangeQueryEngine
	logger *slog.Logger
}

// NewDistanceAccumulator creates an accumulator over the given query engine.
func NewDistanceAccumulator(engine *RangeQueryEngine, logger *slog.Logger) *DistanceAccumulator {
	return &DistanceAccumulator{
		engine: engine,
		logger: logger.With("component", "distance_accumulator"),
	}
}

// Accumulate streams the device's valid-fix events between timeStart and
// timeEnd in ascending order and sums the great-circle distance between
// consecutive fixes. When seedPoint is non-nil the distance from the seed to
// the first event is included. Returns seedOdometerKM plus the computed
// delta. No rows are materialized; the handler discards every record.
func (a *DistanceAccumulator) Accumulate(accountID, deviceID string, timeStart, timeEnd int64, seedPoint *models.GeoPoint, seedOdometerKM float64) (float64, error) {
	totalKM := seedOdometerKM
	var prev *models.GeoPoint
	if seedPoint != nil && seedPoint.IsValid() {
		p := *seedPoint
		prev = &p
	}

	_, err := a.engine.QueryRangeWithHandler(RangeCriteria{
		AccountID:    accountID,
		DeviceID:     deviceID,
		TimeStart:    timeStart,
		TimeEnd:      timeEnd,
		ValidGPSOnly: true,
		Ascending:    true,
	}, func(ev *models.EventRecord) (bool, error) {
		point := ev.GeoPoint()
		if prev != nil {
			totalKM += utils.HaversineKM(*prev, point)
		}
		prev = &point
		// The running sum is all this consumer needs.
		return false, nil
	})
	if err != nil {
		a.logger.Warn("Distance scan degraded",
			"account", accountID, "device", deviceID, "error", err)
		return totalKM, nil
	}
	return totalKM, nil
}
