package services

import (
	"log/slog"
	"time"

	"fleet-track/config"
	"fleet-track/geocode"
	"fleet-track/models"
	"fleet-track/repositories/interfaces"

	"gorm.io/gorm"
)

// EnrichmentOutcome classifies what the fast-path address attempt did.
type EnrichmentOutcome int

const (
	// EnrichmentSkipped means no address lookup was applicable.
	EnrichmentSkipped EnrichmentOutcome = iota
	// EnrichmentApplied means an address was resolved synchronously.
	EnrichmentApplied
	// EnrichmentDeferred means resolving the address would be slow; a
	// background job must finish the work.
	EnrichmentDeferred
)

// TransitionSink receives detected geozone transitions in emit order
// (DEPART strictly before ARRIVE).
type TransitionSink func(device *models.Device, t models.GeozoneTransition)

// IngestResult reports what Ingest did with one event and carries the work
// that must wait until the caller's transaction has committed.
type IngestResult struct {
	// Accepted is true when the event was consumed successfully, including
	// heartbeats that are consumed without being stored.
	Accepted bool

	stored      bool
	deferredJob *AddressEnrichmentJob
}

// IngestionPipeline validates, enriches and persists one decoded event for a
// tracked device. It never blocks the calling connection thread on slow
// network I/O: slow address lookups are handed to the background queue.
// Ingestion is two-phase: Ingest does everything up to and including the
// insert under the caller's transaction, and Finalize applies the
// side effects (deferred job submission, rules, device cache) once the
// caller has committed. Callers are responsible for serializing ingestion
// per device and for eventually saving the mutated device state.
type IngestionPipeline struct {
	events   interfaces.EventRepositoryInterface
	zones    interfaces.GeozoneRepositoryInterface
	geocoder geocode.ReverseGeocoder
	rules    NotificationRuleEngine
	queue    JobSubmitter
	logger   *slog.Logger

	futurePolicy  config.FutureEventPolicy
	futureMaxSec  int64
	geocoderMode  config.GeocoderMode
	maxOdometerKM float64

	transitionSink TransitionSink

	// now is swappable for tests.
	now func() int64
}

// NewIngestionPipeline wires a pipeline from explicit dependencies. geocoder,
// rules and queue may each be nil, which disables the corresponding step.
// Invalid policy/mode strings are logged once here and fail safe to
// "do nothing".
func NewIngestionPipeline(
	cfg *config.Config,
	events interfaces.EventRepositoryInterface,
	zones interfaces.GeozoneRepositoryInterface,
	geocoder geocode.ReverseGeocoder,
	rules NotificationRuleEngine,
	queue JobSubmitter,
	logger *slog.Logger,
) *IngestionPipeline {
	plLogger := logger.With("component", "ingestion_pipeline")

	policy := cfg.FutureEventPolicy
	switch policy {
	case config.FuturePolicyDisabled, config.FuturePolicyIgnore, config.FuturePolicyTruncate:
	default:
		plLogger.Error("Invalid future-event policy, check disabled", "policy", string(policy))
		policy = config.FuturePolicyDisabled
	}

	mode := cfg.GeocoderMode
	switch mode {
	case config.GeocoderModeNone, config.GeocoderModePartial, config.GeocoderModeFull:
	default:
		plLogger.Error("Invalid geocoder mode, reverse geocoding disabled", "mode", string(mode))
		mode = config.GeocoderModeNone
	}

	return &IngestionPipeline{
		events:        events,
		zones:         zones,
		geocoder:      geocoder,
		rules:         rules,
		queue:         queue,
		logger:        plLogger,
		futurePolicy:  policy,
		futureMaxSec:  cfg.FutureEventMaxSec,
		geocoderMode:  mode,
		maxOdometerKM: cfg.MaxOdometerKM,
		now:           func() int64 { return time.Now().Unix() },
	}
}

// SetTransitionSink installs a consumer for detected geozone transitions.
func (p *IngestionPipeline) SetTransitionSink(sink TransitionSink) {
	p.transitionSink = sink
}

// Ingest processes one decoded event. tx may be nil; when set, the persist
// step joins the caller's transaction. Returns a zero result with a nil
// error for validation rejections (nothing matched, nothing stored);
// persistence failures are returned as errors. Heartbeats (status code 0)
// report Accepted without persisting anything.
//
// Ingest stops at the persist step. Once the surrounding transaction has
// committed, pass the result to Finalize for the post-commit work; an
// aborted transaction simply never finalizes.
func (p *IngestionPipeline) Ingest(tx *gorm.DB, device *models.Device, ev *models.EventRecord) (IngestResult, error) {
	if device == nil || ev == nil {
		return IngestResult{}, nil
	}

	// Bind identity.
	if ev.AccountID == "" {
		ev.AccountID = device.AccountID
	}
	if ev.DeviceID == "" {
		ev.DeviceID = device.DeviceID
	}
	if ev.AccountID == "" || ev.DeviceID == "" ||
		ev.AccountID != device.AccountID || ev.DeviceID != device.DeviceID {
		return IngestResult{}, nil
	}

	logger := p.logger.With("account", ev.AccountID, "device", ev.DeviceID)

	// Timestamp guard.
	if p.futurePolicy != config.FuturePolicyDisabled {
		maxTime := p.now() + p.futureMaxSec
		if ev.Timestamp > maxTime {
			if p.futurePolicy == config.FuturePolicyIgnore {
				logger.Warn("Dropping future-dated event",
					"timestamp", ev.Timestamp, "max_time", maxTime)
				return IngestResult{}, nil
			}
			logger.Warn("Truncating future-dated event timestamp",
				"timestamp", ev.Timestamp, "max_time", maxTime)
			ev.Timestamp = maxTime
		}
	}

	// Status code 0 is a heartbeat: consumed, never persisted, never
	// enriched, never notified, and the device cache stays untouched.
	if ev.StatusCode == models.StatusNone {
		logger.Debug("Heartbeat consumed", "timestamp", ev.Timestamp)
		return IngestResult{Accepted: true}, nil
	}

	// Geozone transition detection against the previously cached position.
	p.detectTransitions(device, ev, logger)

	// Fast enrichment attempt.
	outcome := p.fastEnrich(ev, logger)

	// Persist. A save failure is a hard failure of this one event.
	if err := p.events.Insert(tx, ev); err != nil {
		return IngestResult{}, err
	}

	// The slow remainder of the address lookup is buffered on the result,
	// not submitted here: a worker picking the job up before the caller's
	// commit lands would look for a row it can not yet see.
	res := IngestResult{Accepted: true, stored: true}
	if outcome == EnrichmentDeferred {
		job := NewAddressEnrichmentJob(ev)
		res.deferredJob = &job
	}
	return res, nil
}

// Finalize runs the post-commit side of one stored event: deferred
// enrichment submission, rule evaluation and the in-memory device cache
// update. Call it after the transaction wrapping Ingest has committed, so
// background workers and rule actions only ever see events that are durable
// and queryable; callers ingesting without a transaction call it directly
// after Ingest. Heartbeats and rejected events finalize to nothing.
func (p *IngestionPipeline) Finalize(device *models.Device, ev *models.EventRecord, res IngestResult) {
	if !res.stored || device == nil || ev == nil {
		return
	}
	logger := p.logger.With("account", ev.AccountID, "device", ev.DeviceID)

	if res.deferredJob != nil && p.queue != nil {
		p.queue.Submit(*res.deferredJob)
		logger.Debug("Deferred address enrichment scheduled", "job_id", res.deferredJob.JobID)
	}

	p.evaluateRules(device, ev, logger)

	// Last-known state cache updates (in memory only; the eventual device
	// save is the caller's responsibility).
	if ev.HasValidFix() {
		device.SetLastValidLocation(ev.GeoPoint(), ev.Timestamp)
	}
	if ev.OdometerKM > 0 {
		if !device.UpdateOdometer(ev.OdometerKM, p.maxOdometerKM) {
			logger.Debug("Odometer proposal rejected",
				"proposed_km", ev.OdometerKM, "cached_km", device.LastOdometerKM)
		}
	}
}

// detectTransitions resolves the enclosing zones of the cached and new
// positions and emits ARRIVE/DEPART edges to the transition sink. Zone lookup
// failures are absorbed: transition detection is enrichment, not validation.
func (p *IngestionPipeline) detectTransitions(device *models.Device, ev *models.EventRecord, logger *slog.Logger) {
	if p.zones == nil || !ev.HasValidFix() {
		return
	}

	var prevZone *models.Geozone
	if device.LastValidPoint().IsValid() {
		z, err := p.zones.FindEnclosingZone(ev.AccountID, device.LastValidPoint())
		if err != nil {
			logger.Warn("Previous zone lookup failed", "error", err)
		} else {
			prevZone = z
		}
	}

	newZone, err := p.zones.FindEnclosingZone(ev.AccountID, ev.GeoPoint())
	if err != nil {
		logger.Warn("Current zone lookup failed", "error", err)
		newZone = nil
	}
	if newZone != nil && ev.GeozoneID == "" {
		ev.GeozoneID = newZone.GeozoneID
	}

	for _, t := range DetectTransitions(prevZone, newZone, ev.Timestamp) {
		logger.Info("Geozone transition detected",
			"transition", t.Type.String(),
			"zone", t.Zone.GeozoneID,
			"timestamp", t.Timestamp)
		if p.transitionSink != nil {
			p.transitionSink(device, t)
		}
	}
}

// fastEnrich attempts address resolution under the fast-only constraint.
// Geofence arrive/depart events pull their address straight from the zone
// named by the device-supplied zone index; that lookup is always fast and
// more precise than generic reverse geocoding. All enrichment failures are
// absorbed: the address simply stays blank.
func (p *IngestionPipeline) fastEnrich(ev *models.EventRecord, logger *slog.Logger) EnrichmentOutcome {
	if ev.HasAddress() || !ev.HasValidFix() {
		return EnrichmentSkipped
	}

	if models.IsGeofenceTransition(ev.StatusCode) && p.zones != nil {
		zone, err := p.zones.FindByClientIndex(ev.AccountID, ev.GeozoneIndex)
		if err != nil {
			logger.Warn("Zone index lookup failed", "zone_index", ev.GeozoneIndex, "error", err)
			return EnrichmentSkipped
		}
		if zone == nil {
			logger.Debug("No zone for client index", "zone_index", ev.GeozoneIndex)
			return EnrichmentSkipped
		}
		ev.ApplyAddress(zone.ReverseGeocode())
		if ev.GeozoneID == "" {
			ev.GeozoneID = zone.GeozoneID
		}
		logger.Info("Zone address applied",
			"zone", zone.GeozoneID,
			"latitude", ev.Latitude, "longitude", ev.Longitude,
			"address", ev.FullAddress)
		return EnrichmentApplied
	}

	switch p.geocoderMode {
	case config.GeocoderModeNone:
		return EnrichmentSkipped
	case config.GeocoderModePartial:
		if !models.IsHighPriority(ev.StatusCode) {
			return EnrichmentSkipped
		}
	}

	if p.geocoder == nil {
		return EnrichmentSkipped
	}
	if !p.geocoder.IsFastOperation() {
		return EnrichmentDeferred
	}

	rg, err := p.geocoder.ReverseGeocode(ev.AccountID, ev.GeoPoint())
	if err != nil {
		logger.Warn("Reverse geocoding failed", "error", err)
		return EnrichmentSkipped
	}
	if rg == nil || rg.FullAddress == "" {
		return EnrichmentSkipped
	}
	ev.ApplyAddress(rg)
	logger.Info("Address applied",
		"latitude", ev.Latitude, "longitude", ev.Longitude,
		"address", ev.FullAddress)
	return EnrichmentApplied
}

// evaluateRules runs the device's configured selector and the full rule set.
// Either may independently request that this event be remembered as the last
// notification; the device row itself is not saved here.
func (p *IngestionPipeline) evaluateRules(device *models.Device, ev *models.EventRecord, logger *slog.Logger) {
	if p.rules == nil || !device.AllowNotify {
		return
	}

	mask := ActionNone
	if device.NotifySelector != "" {
		m, err := p.rules.EvaluateSelector(device.NotifySelector, ev)
		if err != nil {
			logger.Warn("Notify selector failed to parse, ignoring",
				"selector", device.NotifySelector, "error", err)
		} else {
			mask |= m
		}
	}
	mask |= p.rules.ExecuteRules(ev)

	if mask&ActionSaveLast != 0 {
		device.LastNotifyTime = ev.Timestamp
		device.LastNotifyCode = ev.StatusCode
	}
}
