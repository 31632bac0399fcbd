package services

import (
	"log/slog"

	"fleet-track/models"
	"fleet-track/repositories/interfaces"
)

// LimitType selects which end of the time window a limit keeps.
type LimitType int

const (
	// LimitFirst keeps the chronologically earliest matching events.
	LimitFirst LimitType = iota
	// LimitLast keeps the chronologically latest matching events.
	LimitLast
)

// RangeCriteria describes one range query. TimeStart/TimeEnd of -1 mean
// unbounded on that side. Ascending is the order the caller wants results
// returned in, independent of how the engine fetches them.
type RangeCriteria struct {
	AccountID    string
	DeviceID     string
	TimeStart    int64
	TimeEnd      int64
	StatusCodes  []int
	ValidGPSOnly bool
	LimitType    LimitType
	Limit        int
	Ascending    bool
}

// RecordHandler receives one matching record during a streamed query. Return
// keep=false to drop the record from any materialized result; an error stops
// the scan.
type RecordHandler func(ev *models.EventRecord) (keep bool, err error)

// RangeQueryEngine answers bounded, ordered, filtered queries over the event
// log. It is the single read primitive behind reports, previous/next-event
// lookups and distance accumulation.
type RangeQueryEngine struct {
	events interfaces.EventRepositoryInterface
	logger *slog.Logger
}

// NewRangeQueryEngine creates an engine over the given event store.
func NewRangeQueryEngine(events interfaces.EventRepositoryInterface, logger *slog.Logger) *RangeQueryEngine {
	return &RangeQueryEngine{
		events: events,
		logger: logger.With("component", "range_query"),
	}
}

// validate reports whether the criteria can match anything. Invalid arguments
// (missing identity, inverted window) yield an empty result rather than an
// error since callers assemble windows from optional pieces.
func (e *RangeQueryEngine) validate(c RangeCriteria) bool {
	if c.AccountID == "" || c.DeviceID == "" {
		return false
	}
	if c.TimeStart >= 0 && c.TimeEnd >= 0 && c.TimeStart > c.TimeEnd {
		return false
	}
	return true
}

// storeCriteria translates the caller's criteria into the physical fetch the
// store should run. A LAST limit forces a descending fetch so the store can
// use a bounded scan; the returned flag says whether the fetched slice must
// be reversed afterwards to restore the caller's requested order.
func (e *RangeQueryEngine) storeCriteria(c RangeCriteria) (interfaces.EventRangeCriteria, bool) {
	sc := interfaces.EventRangeCriteria{
		AccountID:    c.AccountID,
		DeviceID:     c.DeviceID,
		TimeStart:    c.TimeStart,
		TimeEnd:      c.TimeEnd,
		StatusCodes:  c.StatusCodes,
		ValidGPSOnly: c.ValidGPSOnly,
		Limit:        c.Limit,
	}

	if c.Limit > 0 {
		sc.Descending = c.LimitType == LimitLast
	} else {
		sc.Descending = !c.Ascending
	}
	reverse := sc.Descending == c.Ascending
	return sc, reverse
}

// QueryRange returns up to Limit matching events in the order the caller
// asked for, regardless of the fetch order needed to honor a LAST+limit
// combination efficiently.
func (e *RangeQueryEngine) QueryRange(c RangeCriteria) ([]models.EventRecord, error) {
	if !e.validate(c) {
		return []models.EventRecord{}, nil
	}

	sc, reverse := e.storeCriteria(c)
	events, err := e.events.QueryRange(sc)
	if err != nil {
		return nil, err
	}
	if reverse {
		reverseEvents(events)
	}
	return events, nil
}

// QueryRangeWithHandler streams each matching record to the handler in the
// caller's requested order and returns only the records the handler kept.
// Consumers that only aggregate can discard every record and hold nothing.
func (e *RangeQueryEngine) QueryRangeWithHandler(c RangeCriteria, handler RecordHandler) ([]models.EventRecord, error) {
	if !e.validate(c) {
		return []models.EventRecord{}, nil
	}

	sc, reverse := e.storeCriteria(c)
	if reverse {
		// The physical order differs from the caller's order; materialize,
		// restore order, then feed the handler.
		events, err := e.events.QueryRange(sc)
		if err != nil {
			return nil, err
		}
		reverseEvents(events)
		kept := make([]models.EventRecord, 0, len(events))
		for i := range events {
			keep, err := handler(&events[i])
			if err != nil {
				return nil, err
			}
			if keep {
				kept = append(kept, events[i])
			}
		}
		return kept, nil
	}

	kept := []models.EventRecord{}
	err := e.events.StreamRange(sc, func(ev *models.EventRecord) error {
		keep, err := handler(ev)
		if err != nil {
			return err
		}
		if keep {
			kept = append(kept, *ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kept, nil
}

// CountRange counts the events matching the criteria using the same filter
// construction as QueryRange, so count and fetch never diverge.
func (e *RangeQueryEngine) CountRange(c RangeCriteria) (int64, error) {
	if !e.validate(c) {
		return 0, nil
	}
	sc, _ := e.storeCriteria(c)
	sc.Descending = false
	sc.Limit = 0
	return e.events.CountRange(sc)
}

// GetPreviousEvent returns the latest event at or before the given time, or
// nil when there is none.
func (e *RangeQueryEngine) GetPreviousEvent(accountID, deviceID string, before int64, validGPSOnly bool) (*models.EventRecord, error) {
	events, err := e.QueryRange(RangeCriteria{
		AccountID:    accountID,
		DeviceID:     deviceID,
		TimeStart:    -1,
		TimeEnd:      before,
		ValidGPSOnly: validGPSOnly,
		LimitType:    LimitLast,
		Limit:        1,
		Ascending:    true,
	})
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

// GetNextEvent returns the earliest event at or after the given time, or nil
// when there is none.
func (e *RangeQueryEngine) GetNextEvent(accountID, deviceID string, after int64, validGPSOnly bool) (*models.EventRecord, error) {
	events, err := e.QueryRange(RangeCriteria{
		AccountID:    accountID,
		DeviceID:     deviceID,
		TimeStart:    after,
		TimeEnd:      -1,
		ValidGPSOnly: validGPSOnly,
		LimitType:    LimitFirst,
		Limit:        1,
		Ascending:    true,
	})
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

// GetLastEvent returns the most recent event for the device, or nil.
func (e *RangeQueryEngine) GetLastEvent(accountID, deviceID string, validGPSOnly bool) (*models.EventRecord, error) {
	return e.GetPreviousEvent(accountID, deviceID, -1, validGPSOnly)
}

func reverseEvents(events []models.EventRecord) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}
