package services

import (
	"log/slog"
	"sync"

	"fleet-track/geocode"
	"fleet-track/models"
	"fleet-track/repositories/interfaces"

	"github.com/google/uuid"
)

// AddressEnrichmentJob names a persisted event whose address resolution was
// deferred off the ingestion hot path. Only the address columns of the row it
// names are ever updated; the key is never touched.
type AddressEnrichmentJob struct {
	JobID      string
	AccountID  string
	DeviceID   string
	Timestamp  int64
	StatusCode int
	Point      models.GeoPoint
}

// NewAddressEnrichmentJob builds a job for the event's composite key.
func NewAddressEnrichmentJob(ev *models.EventRecord) AddressEnrichmentJob {
	return AddressEnrichmentJob{
		JobID:      uuid.NewString(),
		AccountID:  ev.AccountID,
		DeviceID:   ev.DeviceID,
		Timestamp:  ev.Timestamp,
		StatusCode: ev.StatusCode,
		Point:      ev.GeoPoint(),
	}
}

// JobSubmitter is the narrow scheduling dependency of the ingestion pipeline.
type JobSubmitter interface {
	Submit(job AddressEnrichmentJob)
}

// EnrichmentQueue is a bounded worker pool executing deferred address
// enrichment after the fast path has committed. There is no job timeout and
// no cancellation of in-flight jobs; a permanently slow geocoder backs the
// queue up rather than dropping work. Shutdown is signaled on the done
// channel; the jobs channel is never closed, so a sender parked on a full
// buffer can never hit a closed channel.
type EnrichmentQueue struct {
	jobs     chan AddressEnrichmentJob
	done     chan struct{}
	events   interfaces.EventRepositoryInterface
	geocoder geocode.ReverseGeocoder
	logger   *slog.Logger
	workers  int
	wg       sync.WaitGroup
	stop     sync.Once
}

// NewEnrichmentQueue creates a queue with the given worker count and buffer.
func NewEnrichmentQueue(events interfaces.EventRepositoryInterface, geocoder geocode.ReverseGeocoder, workers, queueSize int, logger *slog.Logger) *EnrichmentQueue {
	if workers <= 0 {
		workers = 25
	}
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &EnrichmentQueue{
		jobs:     make(chan AddressEnrichmentJob, queueSize),
		done:     make(chan struct{}),
		events:   events,
		geocoder: geocoder,
		logger:   logger.With("component", "enrichment_queue"),
		workers:  workers,
	}
}

// Start launches the worker pool.
func (q *EnrichmentQueue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.logger.Info("Enrichment workers started", "workers", q.workers, "queue_size", cap(q.jobs))
}

func (q *EnrichmentQueue) run() {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			q.process(job)
		case <-q.done:
			q.drain()
			return
		}
	}
}

// drain finishes whatever is already buffered at shutdown.
func (q *EnrichmentQueue) drain() {
	for {
		select {
		case job := <-q.jobs:
			q.process(job)
		default:
			return
		}
	}
}

// Submit schedules a job without blocking the caller. When the buffer is full
// the handoff moves to a goroutine so the job queues instead of being dropped
// while the queue is running; handoffs still parked when Stop runs are
// discarded.
func (q *EnrichmentQueue) Submit(job AddressEnrichmentJob) {
	select {
	case <-q.done:
		q.logger.Warn("Job submitted after shutdown, discarding", "job_id", job.JobID)
		return
	default:
	}

	select {
	case q.jobs <- job:
	case <-q.done:
		q.logger.Warn("Job submitted after shutdown, discarding", "job_id", job.JobID)
	default:
		q.logger.Warn("Enrichment queue saturated, queueing asynchronously", "job_id", job.JobID)
		go func() {
			select {
			case q.jobs <- job:
			case <-q.done:
				q.logger.Warn("Queued job discarded at shutdown", "job_id", job.JobID)
			}
		}()
	}
}

// Stop signals shutdown and waits for the workers to finish the jobs already
// buffered. Safe to call more than once and concurrently with Submit.
func (q *EnrichmentQueue) Stop() {
	q.stop.Do(func() {
		close(q.done)
		q.wg.Wait()
		q.logger.Info("Enrichment workers stopped")
	})
}

// process re-attempts address resolution without the fast-only constraint and
// writes the result back to the persisted row's address columns.
func (q *EnrichmentQueue) process(job AddressEnrichmentJob) {
	logger := q.logger.With("job_id", job.JobID, "account", job.AccountID, "device", job.DeviceID)

	if q.geocoder == nil {
		return
	}
	rg, err := q.geocoder.ReverseGeocode(job.AccountID, job.Point)
	if err != nil {
		logger.Warn("Deferred reverse geocoding failed", "error", err)
		return
	}
	if rg == nil || rg.FullAddress == "" {
		logger.Debug("Deferred reverse geocoding returned no address",
			"latitude", job.Point.Latitude, "longitude", job.Point.Longitude)
		return
	}

	err = q.events.UpdateAddress(job.AccountID, job.DeviceID, job.Timestamp, job.StatusCode, rg, "")
	if err != nil {
		logger.Warn("Deferred address update failed", "error", err)
		return
	}

	// Audit the geopoint/address pair the same way the fast path does.
	logger.Info("Deferred address enrichment applied",
		"latitude", job.Point.Latitude,
		"longitude", job.Point.Longitude,
		"address", rg.FullAddress)
}
