package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"fleet-track/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPendingEvent(repo *fakeEventRepo) *models.EventRecord {
	repo.events = append(repo.events, models.EventRecord{
		AccountID:  "acme",
		DeviceID:   "truck-1",
		Timestamp:  900,
		StatusCode: models.StatusLocation,
		Latitude:   39.2,
		Longitude:  -77.3,
	})
	return &repo.events[len(repo.events)-1]
}

func TestEnrichmentQueueAppliesAddress(t *testing.T) {
	repo := &fakeEventRepo{}
	ev := seedPendingEvent(repo)
	gc := &fakeGeocoder{fast: false, result: &models.ReverseGeocode{FullAddress: "1 Main St", City: "Rockville"}}

	q := NewEnrichmentQueue(repo, gc, 2, 10, testLogger())
	q.Start()

	q.Submit(NewAddressEnrichmentJob(ev))
	q.Stop()

	require.Len(t, repo.updates, 1)
	assert.Equal(t, "acme", repo.updates[0].accountID)
	assert.Equal(t, int64(900), repo.updates[0].timestamp)
	assert.Equal(t, "1 Main St", repo.events[0].FullAddress)
	assert.Equal(t, "Rockville", repo.events[0].City)
	assert.Equal(t, "acme", gc.lastAcc)
}

func TestEnrichmentQueueGeocoderFailure(t *testing.T) {
	repo := &fakeEventRepo{}
	ev := seedPendingEvent(repo)
	gc := &fakeGeocoder{err: errors.New("provider timeout")}

	q := NewEnrichmentQueue(repo, gc, 1, 10, testLogger())
	q.Start()
	q.Submit(NewAddressEnrichmentJob(ev))
	q.Stop()

	assert.Empty(t, repo.updates, "failed lookups leave the row blank")
	assert.Empty(t, repo.events[0].FullAddress)
}

func TestEnrichmentQueueNilGeocoder(t *testing.T) {
	repo := &fakeEventRepo{}
	ev := seedPendingEvent(repo)

	q := NewEnrichmentQueue(repo, nil, 1, 10, testLogger())
	q.Start()
	q.Submit(NewAddressEnrichmentJob(ev))
	q.Stop()

	assert.Empty(t, repo.updates)
}

func TestEnrichmentQueueSubmitAfterStop(t *testing.T) {
	repo := &fakeEventRepo{}
	ev := seedPendingEvent(repo)
	gc := &fakeGeocoder{result: &models.ReverseGeocode{FullAddress: "addr"}}

	q := NewEnrichmentQueue(repo, gc, 1, 10, testLogger())
	q.Start()
	q.Stop()

	// Must not panic on the closed channel.
	q.Submit(NewAddressEnrichmentJob(ev))
	q.Stop()

	assert.Empty(t, repo.updates)
}

// lockedRepo guards the in-memory repo for tests where the worker pool and
// the test goroutine touch it concurrently.
type lockedRepo struct {
	mu sync.Mutex
	fakeEventRepo
}

func (r *lockedRepo) UpdateAddress(accountID, deviceID string, timestamp int64, statusCode int, rg *models.ReverseGeocode, geozoneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fakeEventRepo.UpdateAddress(accountID, deviceID, timestamp, statusCode, rg, geozoneID)
}

func (r *lockedRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func TestEnrichmentQueueStopWithParkedSubmissions(t *testing.T) {
	repo := &fakeEventRepo{}
	gc := &fakeGeocoder{result: &models.ReverseGeocode{FullAddress: "addr"}}

	// One-slot buffer and workers never started: the first submit fills the
	// buffer and every later one parks in a handoff goroutine.
	q := NewEnrichmentQueue(repo, gc, 1, 1, testLogger())
	for i := 0; i < 4; i++ {
		q.Submit(AddressEnrichmentJob{JobID: "parked", AccountID: "acme", DeviceID: "truck-1"})
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 100; i++ {
			q.Submit(AddressEnrichmentJob{JobID: "racing", AccountID: "acme", DeviceID: "truck-1"})
		}
	}()

	// Shutdown must release the parked senders without a panic, no matter
	// how many submissions are still in flight.
	q.Stop()
	<-finished
	q.Stop()
}

func TestEnrichmentQueueSaturation(t *testing.T) {
	repo := &lockedRepo{}
	gc := &fakeGeocoder{result: &models.ReverseGeocode{FullAddress: "addr"}}

	// A one-slot buffer with workers not yet started forces the async
	// handoff path; every job must still be processed.
	q := NewEnrichmentQueue(repo, gc, 1, 1, testLogger())
	jobs := make([]AddressEnrichmentJob, 0, 5)
	for i := 0; i < 5; i++ {
		ev := models.EventRecord{
			AccountID:  "acme",
			DeviceID:   "truck-1",
			Timestamp:  int64(900 + i),
			StatusCode: models.StatusLocation,
			Latitude:   39.2,
			Longitude:  -77.3,
		}
		repo.events = append(repo.events, ev)
		jobs = append(jobs, NewAddressEnrichmentJob(&ev))
	}
	for _, job := range jobs {
		q.Submit(job)
	}

	q.Start()

	assert.Eventually(t, func() bool {
		return repo.updateCount() == 5
	}, 5*time.Second, 10*time.Millisecond, "queue-not-drop: saturation never loses jobs")

	q.Stop()
}
