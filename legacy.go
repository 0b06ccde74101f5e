package gaiacat

import (
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"
)

// legacyHeaderSize is the fixed size of the v1 single-file header:
// an 8-byte magic, a u32 version, and a u64 star count.
const legacyHeaderSize = 20

// legacyMagic is the 8-byte literal every v1 file begins with, after
// gzip decompression.
const legacyMagic = "GAIA1LEG"

// LegacyCatalog is the read-only v1 reader spec.md section 4 describes:
// a gzip-compressed concatenation of fixed-width records behind a
// simpler header, with no pixel index. Treated as "one giant chunk":
// every query is a full in-memory scan. Grounded on the teacher's
// Pagemaster, which also decompresses its whole backing store into
// memory up front rather than paging a legacy format it only reads.
type LegacyCatalog struct {
	mu    sync.RWMutex
	state CatalogState
	wg    sync.WaitGroup

	path    string
	records []Record
	stats   statsTracker
	logger  *Logger
}

// OpenLegacy decompresses and decodes path in full, validating the
// header's declared star count against the number of fixed-width
// records actually present.
func OpenLegacy(path string, logger *Logger) (*LegacyCatalog, error) {
	if logger == nil {
		logger = NewLogger(LogLevelInfo)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, NewInitFailedError(fmt.Sprintf("opening %s: %v", path, err))
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, NewCorruptCatalogError(fmt.Sprintf("not a gzip stream: %v", err))
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, NewIoError(path, err)
	}
	if len(data) < legacyHeaderSize {
		return nil, NewCorruptCatalogError("legacy header truncated")
	}
	if string(data[0:8]) != legacyMagic {
		return nil, NewCorruptCatalogError("legacy magic mismatch")
	}
	totalStars := binary.LittleEndian.Uint64(data[12:20])

	body := data[legacyHeaderSize:]
	records := decodeRecords(body)
	if uint64(len(records)) != totalStars {
		return nil, NewCorruptCatalogError(fmt.Sprintf(
			"legacy header declares %d stars, record array holds %d", totalStars, len(records)))
	}

	logger.Infof("opened legacy catalog %s: %d stars (full-scan, no pixel index)", path, totalStars)
	return &LegacyCatalog{
		path:    path,
		records: records,
		state:   StateReady,
		logger:  logger,
	}, nil
}

func (l *LegacyCatalog) enterQuery() error {
	l.mu.RLock()
	ready := l.state == StateReady
	if ready {
		l.wg.Add(1)
	}
	l.mu.RUnlock()
	if !ready {
		return ErrNotReady
	}
	return nil
}

func (l *LegacyCatalog) exitQuery() {
	l.wg.Done()
}

// QueryCone performs a full scan over every resident record, applying
// the exact predicate directly since there is no pixel index to narrow
// the candidate set first.
func (l *LegacyCatalog) QueryCone(ctx context.Context, params ConeParams) (QueryResult, error) {
	if err := l.enterQuery(); err != nil {
		return QueryResult{}, err
	}
	defer l.exitQuery()

	start := time.Now()
	center := CelestialPoint{Ra: params.RaCenter, Dec: params.DecCenter}
	result := QueryResult{}

	for i, r := range l.records {
		if i%4096 == 0 {
			select {
			case <-ctx.Done():
				if ctx.Err() == context.Canceled {
					return QueryResult{}, ErrCancelled
				}
				result.Incomplete = true
				l.stats.record(time.Since(start), len(result.Records))
				return result, nil
			default:
			}
		}
		if !passesMagnitude(r.GMag, params.MinMagnitude, params.MaxMagnitude) {
			continue
		}
		if !ConeContains(center, params.Radius, r.Point()) {
			continue
		}
		result.Records = append(result.Records, r)
		if params.Limit > 0 && len(result.Records) >= params.Limit {
			break
		}
	}

	l.stats.record(time.Since(start), len(result.Records))
	return result, nil
}

// QueryCorridor performs a full scan analogous to QueryCone.
func (l *LegacyCatalog) QueryCorridor(ctx context.Context, params CorridorParams) (QueryResult, error) {
	if err := l.enterQuery(); err != nil {
		return QueryResult{}, err
	}
	defer l.exitQuery()

	start := time.Now()
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 1_000_000
	}
	result := QueryResult{}

	for i, r := range l.records {
		if i%4096 == 0 {
			select {
			case <-ctx.Done():
				if ctx.Err() == context.Canceled {
					return QueryResult{}, ErrCancelled
				}
				result.Incomplete = true
				l.stats.record(time.Since(start), len(result.Records))
				return result, nil
			default:
			}
		}
		if !passesMagnitude(r.GMag, math.Inf(-1), params.MaxMagnitude) {
			continue
		}
		if !CorridorContains(params.Path, params.Width, r.Point()) {
			continue
		}
		result.Records = append(result.Records, r)
		if len(result.Records) >= maxResults {
			break
		}
	}

	l.stats.record(time.Since(start), len(result.Records))
	return result, nil
}

// QueryBySourceID performs a linear scan over the resident records.
func (l *LegacyCatalog) QueryBySourceID(ctx context.Context, id uint64) (Record, bool, error) {
	if err := l.enterQuery(); err != nil {
		return Record{}, false, err
	}
	defer l.exitQuery()

	for _, r := range l.records {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.Canceled {
				return Record{}, false, ErrCancelled
			}
			return Record{}, false, nil
		default:
		}
		if r.SourceID == id {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// Stats returns a snapshot of this catalog's aggregate statistics.
// There is no chunk cache, so CacheHitRate is always 0 and
// MemoryUsedMB reflects the whole resident record array.
func (l *LegacyCatalog) Stats() Stats {
	totalQueries, avgMs, totalStars := l.stats.snapshot()
	return Stats{
		TotalQueries:       totalQueries,
		AverageQueryTimeMs: avgMs,
		TotalStarsReturned: totalStars,
		CacheHitRate:       0,
		MemoryUsedMB:       float64(len(l.records)) * float64(RecordSize) / (1024 * 1024),
		TotalStars:         uint64(len(l.records)),
		CatalogName:        l.path,
		Version:            1,
		MagnitudeLimit:     0,
		IsOnline:           l.State() == StateReady,
	}
}

func (l *LegacyCatalog) State() CatalogState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *LegacyCatalog) Close() error {
	l.mu.Lock()
	if l.state == StateClosed || l.state == StateShuttingDown {
		l.mu.Unlock()
		return nil
	}
	l.state = StateShuttingDown
	l.mu.Unlock()

	l.wg.Wait()

	l.mu.Lock()
	l.records = nil
	l.state = StateClosed
	l.mu.Unlock()
	return nil
}
