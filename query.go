package gaiacat

import (
	"math"
	"sync"
	"time"
)

// ConeParams describes a cone search: every record within Radius
// degrees of (RaCenter, DecCenter), optionally magnitude-filtered and
// capped.
type ConeParams struct {
	RaCenter, DecCenter float64
	Radius              float64 // degrees, > 0

	MinMagnitude float64 // default -Inf
	MaxMagnitude float64 // default +Inf
	Limit        int     // 0 means unbounded
}

// DefaultConeParams returns a ConeParams with the spec's documented
// defaults (unbounded magnitude range, unbounded limit).
func DefaultConeParams(ra, dec, radius float64) ConeParams {
	return ConeParams{
		RaCenter:     ra,
		DecCenter:    dec,
		Radius:       radius,
		MinMagnitude: math.Inf(-1),
		MaxMagnitude: math.Inf(1),
	}
}

// CorridorParams describes a corridor search: every record within
// Width degrees of the polyline Path.
type CorridorParams struct {
	Path  []CelestialPoint
	Width float64 // degrees, > 0

	MaxMagnitude float64 // default +Inf
	MaxResults   int     // default 1_000_000 per spec.md 4.E.2
}

// DefaultCorridorParams returns a CorridorParams with the spec's
// documented defaults.
func DefaultCorridorParams(path []CelestialPoint, width float64) CorridorParams {
	return CorridorParams{
		Path:         path,
		Width:        width,
		MaxMagnitude: math.Inf(1),
		MaxResults:   1_000_000,
	}
}

// QueryResult is the envelope returned by every query kernel: the
// matching records plus the bookkeeping the spec requires to report
// partial-coverage failures without turning them into hard errors.
type QueryResult struct {
	Records []Record

	// Incomplete is true if one or more chunks could not be read (I/O
	// error) or a deadline expired mid-query; ErroredPixels lists the
	// pixel ids whose chunks were skipped as a result.
	Incomplete    bool
	ErroredPixels []uint32
}

// Stats is a snapshot of the aggregate query statistics a catalog
// tracks since open; the facade reports its single catalog's Stats.
type Stats struct {
	TotalQueries       uint64
	AverageQueryTimeMs float64 // exact arithmetic mean, per spec.md section 9
	TotalStarsReturned uint64
	CacheHitRate       float64 // percentage, 0-100
	MemoryUsedMB       float64
	TotalStars         uint64
	CatalogName        string
	Version            uint32
	MagnitudeLimit     float64
	IsOnline           bool
}

// statsTracker accumulates the exact running mean of query latency and
// the running totals behind Stats, guarded by a plain mutex in the
// same small-synchronization-primitive style as the teacher's
// Database/Pagemaster (sync.RWMutex guarding a map).
type statsTracker struct {
	mu                 sync.Mutex
	totalQueries       uint64
	totalLatencyMs     float64
	totalStarsReturned uint64
}

// record folds one completed query's latency and result count into the
// running totals. Cancelled queries must not call this, per spec.md
// section 5.
func (s *statsTracker) record(latency time.Duration, starsReturned int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalQueries++
	ms := float64(latency) / float64(time.Millisecond)
	s.totalLatencyMs += ms
	s.totalStarsReturned += uint64(starsReturned)
}

func (s *statsTracker) snapshot() (totalQueries uint64, averageMs float64, totalStars uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.totalQueries == 0 {
		return 0, 0, 0
	}
	return s.totalQueries, s.totalLatencyMs / float64(s.totalQueries), s.totalStarsReturned
}
