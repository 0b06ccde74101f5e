package gaiacat

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MultifileCatalog is the primary, v2 on-disk catalog variant:
// metadata.dat (header + pixel index + chunk lists) plus chunks/ of
// fixed-size record arrays, per spec.md sections 4.C and 6. Grounded on
// the teacher's Database (database.go) for its lifecycle/lock shape,
// generalized from a named-table registry to a single catalog's
// pixel-indexed chunk store.
type MultifileCatalog struct {
	mu    sync.RWMutex
	state CatalogState
	wg    sync.WaitGroup

	dir       string
	chunksDir string
	header    Header
	index     *PixelIndex
	cache     *ChunkCache
	stats     statsTracker
	logger    *Logger
}

// MultifileOptions configures chunk caching behavior for OpenMultifile.
type MultifileOptions struct {
	MaxCachedChunks int           // default DefaultMaxCachedChunks
	CacheTimeout    time.Duration // 0 means wait forever on pin pressure
	Logger          *Logger       // default: info-level logger to stderr
}

// OpenMultifile opens and validates the multifile catalog rooted at
// dir, per spec.md section 4.C's validation rules: magic match,
// version == 2, total_chunks == ceil(total_stars/stars_per_chunk), and
// every pixel index entry's chunk run inside the chunk list array.
// Failing any of those returns a *CorruptCatalogError; a missing or
// unreadable metadata.dat returns a *InitFailedError.
func OpenMultifile(dir string, opts MultifileOptions) (*MultifileCatalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(LogLevelInfo)
	}

	metaPath := filepath.Join(dir, "metadata.dat")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, NewInitFailedError(fmt.Sprintf("reading %s: %v", metaPath, err))
	}
	if len(data) < HeaderSize {
		return nil, NewCorruptCatalogError("metadata.dat shorter than header")
	}
	if !checkMagic(data) {
		return nil, NewCorruptCatalogError("magic mismatch")
	}

	header, err := decodeHeader(data[:HeaderSize])
	if err != nil {
		return nil, err
	}
	if header.Version != FormatVersion {
		return nil, NewCorruptCatalogError(fmt.Sprintf("unsupported version %d", header.Version))
	}
	if header.StarsPerChunk == 0 {
		return nil, NewCorruptCatalogError("stars_per_chunk is zero")
	}
	expectedChunks := uint32((header.TotalStars + uint64(header.StarsPerChunk) - 1) / uint64(header.StarsPerChunk))
	if header.TotalChunks != expectedChunks {
		return nil, NewCorruptCatalogError(fmt.Sprintf(
			"total_chunks %d does not match ceil(total_stars/stars_per_chunk) %d", header.TotalChunks, expectedChunks))
	}

	if header.PixelIndexOffset+header.PixelIndexSize > uint64(len(data)) ||
		header.ChunkIndexOffset+header.ChunkIndexSize > uint64(len(data)) {
		return nil, NewCorruptCatalogError("index offsets overrun metadata.dat")
	}
	numPixelEntries := int(header.PixelIndexSize / pixelIndexEntrySize)
	chunkListLen := int(header.ChunkIndexSize / 4)

	indexBuf := make([]byte, 0, header.PixelIndexSize+header.ChunkIndexSize)
	indexBuf = append(indexBuf, data[header.PixelIndexOffset:header.PixelIndexOffset+header.PixelIndexSize]...)
	indexBuf = append(indexBuf, data[header.ChunkIndexOffset:header.ChunkIndexOffset+header.ChunkIndexSize]...)

	idx, err := decodePixelIndex(indexBuf, numPixelEntries, chunkListLen)
	if err != nil {
		return nil, err
	}

	m := &MultifileCatalog{
		dir:       dir,
		chunksDir: filepath.Join(dir, "chunks"),
		header:    header,
		index:     idx,
		state:     StateReady,
		logger:    logger,
	}
	maxCached := opts.MaxCachedChunks
	if maxCached <= 0 {
		maxCached = DefaultMaxCachedChunks
	}
	m.cache = NewChunkCache(maxCached, opts.CacheTimeout, m.loadChunk)

	logger.Infof("opened multifile catalog %s: %d stars, %d chunks, nside %d",
		dir, header.TotalStars, header.TotalChunks, header.Nside)
	return m, nil
}

// loadChunk reads and decodes chunk chunkID from chunks/chunk_%03d.dat,
// re-checking the pixel invariant for every record (spec.md section 3:
// "Loaders may assert this as a consistency check", and section 9's
// instruction to cross-check on load, including in polar caps). A
// violation surfaces as *CorruptCatalogError; the caller treats it the
// same as any other chunk-load error -- skip the chunk, keep going.
func (m *MultifileCatalog) loadChunk(chunkID uint32) ([]Record, error) {
	path := filepath.Join(m.chunksDir, fmt.Sprintf("chunk_%03d.dat", chunkID))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewIoError(path, err)
	}
	records := decodeRecords(data)
	for _, r := range records {
		if !r.checkPixelInvariant() {
			return nil, NewCorruptCatalogError(fmt.Sprintf(
				"record %d healpix_pixel %d does not match ang2pix_nest(ra=%f, dec=%f) in chunk %d",
				r.SourceID, r.HealpixPixel, r.Ra, r.Dec, chunkID))
		}
	}
	return records, nil
}

func (m *MultifileCatalog) enterQuery() error {
	m.mu.RLock()
	ready := m.state == StateReady
	if ready {
		m.wg.Add(1)
	}
	m.mu.RUnlock()
	if !ready {
		return ErrNotReady
	}
	return nil
}

func (m *MultifileCatalog) exitQuery() {
	m.wg.Done()
}

func passesMagnitude(mag float32, min, max float64) bool {
	if math.IsInf(min, -1) && math.IsInf(max, 1) {
		return true
	}
	m := float64(mag)
	return m >= min && m <= max
}

// pixelsForChunk returns the subset of pixels (from the query's pixel
// set) whose chunk list includes chunkID, used to attribute a
// chunk-load error back to the pixels it would have covered.
func (m *MultifileCatalog) pixelsForChunk(pixels map[uint32]struct{}, chunkID uint32) []uint32 {
	var affected []uint32
	for pixel := range pixels {
		for _, c := range m.index.ChunksForPixel(pixel) {
			if c == chunkID {
				affected = append(affected, pixel)
				break
			}
		}
	}
	return affected
}

// QueryCone implements spec.md section 4.E.1: resolve the disc's
// covering pixel set, resolve those pixels to a deduplicated chunk id
// set, visit chunks in ascending order, and apply the exact predicate
// plus magnitude filter and source_id dedup per record.
func (m *MultifileCatalog) QueryCone(ctx context.Context, params ConeParams) (QueryResult, error) {
	if err := m.enterQuery(); err != nil {
		return QueryResult{}, err
	}
	defer m.exitQuery()

	start := time.Now()
	center := CelestialPoint{Ra: params.RaCenter, Dec: params.DecCenter}
	pixels := QueryDisc(center, params.Radius)
	chunkIDs := m.index.ChunksForPixels(pixels)

	result := QueryResult{}
	seen := make(map[uint64]struct{})

chunkLoop:
	for _, chunkID := range chunkIDs {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.Canceled {
				return QueryResult{}, ErrCancelled
			}
			result.Incomplete = true
			break chunkLoop
		default:
		}

		records, release, err := m.cache.Acquire(chunkID)
		if err != nil {
			m.logger.Warnf("cone query: chunk %d unavailable: %v", chunkID, err)
			result.Incomplete = true
			result.ErroredPixels = append(result.ErroredPixels, m.pixelsForChunk(pixels, chunkID)...)
			continue
		}

		limitHit := false
		for _, r := range records {
			if _, ok := pixels[r.HealpixPixel]; !ok {
				continue
			}
			if !passesMagnitude(r.GMag, params.MinMagnitude, params.MaxMagnitude) {
				continue
			}
			if !ConeContains(center, params.Radius, r.Point()) {
				continue
			}
			if _, dup := seen[r.SourceID]; dup {
				continue
			}
			seen[r.SourceID] = struct{}{}
			result.Records = append(result.Records, r)
			if params.Limit > 0 && len(result.Records) >= params.Limit {
				limitHit = true
				break
			}
		}
		release()
		if limitHit {
			break chunkLoop
		}
	}

	m.stats.record(time.Since(start), len(result.Records))
	return result, nil
}

// QueryCorridor implements spec.md section 4.E.2: structurally
// identical to QueryCone with query_polyline/corridor_contains in
// place of query_disc/cone_contains. Streaming: each chunk is scanned
// and released before the next is acquired, never holding a combined
// candidate list across chunks.
func (m *MultifileCatalog) QueryCorridor(ctx context.Context, params CorridorParams) (QueryResult, error) {
	if err := m.enterQuery(); err != nil {
		return QueryResult{}, err
	}
	defer m.exitQuery()

	start := time.Now()
	pixels := QueryPolyline(params.Path, params.Width)
	chunkIDs := m.index.ChunksForPixels(pixels)

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 1_000_000
	}

	result := QueryResult{}
	seen := make(map[uint64]struct{})

chunkLoop:
	for _, chunkID := range chunkIDs {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.Canceled {
				return QueryResult{}, ErrCancelled
			}
			result.Incomplete = true
			break chunkLoop
		default:
		}

		records, release, err := m.cache.Acquire(chunkID)
		if err != nil {
			m.logger.Warnf("corridor query: chunk %d unavailable: %v", chunkID, err)
			result.Incomplete = true
			result.ErroredPixels = append(result.ErroredPixels, m.pixelsForChunk(pixels, chunkID)...)
			continue
		}

		limitHit := false
		for _, r := range records {
			if _, ok := pixels[r.HealpixPixel]; !ok {
				continue
			}
			if !passesMagnitude(r.GMag, math.Inf(-1), params.MaxMagnitude) {
				continue
			}
			if !CorridorContains(params.Path, params.Width, r.Point()) {
				continue
			}
			if _, dup := seen[r.SourceID]; dup {
				continue
			}
			seen[r.SourceID] = struct{}{}
			result.Records = append(result.Records, r)
			if len(result.Records) >= maxResults {
				limitHit = true
				break
			}
		}
		release()
		if limitHit {
			break chunkLoop
		}
	}

	m.stats.record(time.Since(start), len(result.Records))
	return result, nil
}

// QueryBySourceID performs the O(total_stars) linear scan spec.md
// section 4.E.3 documents as a debugging aid: the catalog carries no
// source_id index, so callers wanting efficient lookup must use
// QueryCone/QueryCorridor instead.
func (m *MultifileCatalog) QueryBySourceID(ctx context.Context, id uint64) (Record, bool, error) {
	if err := m.enterQuery(); err != nil {
		return Record{}, false, err
	}
	defer m.exitQuery()

	for chunkID := uint32(0); chunkID < m.header.TotalChunks; chunkID++ {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.Canceled {
				return Record{}, false, ErrCancelled
			}
			return Record{}, false, nil
		default:
		}

		records, release, err := m.cache.Acquire(chunkID)
		if err != nil {
			m.logger.Warnf("source id scan: chunk %d unavailable: %v", chunkID, err)
			continue
		}
		for _, r := range records {
			if r.SourceID == id {
				release()
				return r, true, nil
			}
		}
		release()
	}
	return Record{}, false, nil
}

// Stats returns a snapshot of this catalog's aggregate statistics, per
// spec.md section 4.F / 9.
func (m *MultifileCatalog) Stats() Stats {
	totalQueries, avgMs, totalStars := m.stats.snapshot()
	memMB := float64(m.cache.Len()) * float64(m.header.StarsPerChunk) * float64(RecordSize) / (1024 * 1024)
	return Stats{
		TotalQueries:       totalQueries,
		AverageQueryTimeMs: avgMs,
		TotalStarsReturned: totalStars,
		CacheHitRate:       m.cache.HitRate() * 100,
		MemoryUsedMB:       memMB,
		TotalStars:         m.header.TotalStars,
		CatalogName:        filepath.Base(m.dir),
		Version:            m.header.Version,
		MagnitudeLimit:     float64(m.header.MagCutoff),
		IsOnline:           m.State() == StateReady,
	}
}

// IndexedPixels returns the ascending-sorted set of HEALPix pixel ids
// with at least one record, per the loaded pixel index.
func (m *MultifileCatalog) IndexedPixels() []uint32 {
	return m.index.Pixels()
}

// State returns the catalog's current lifecycle state.
func (m *MultifileCatalog) State() CatalogState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Close transitions Ready -> ShuttingDown -> Closed, blocking until
// every in-flight query finishes before releasing resources, per
// spec.md section 4.E.4.
func (m *MultifileCatalog) Close() error {
	m.mu.Lock()
	if m.state == StateClosed || m.state == StateShuttingDown {
		m.mu.Unlock()
		return nil
	}
	m.state = StateShuttingDown
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	m.state = StateClosed
	m.mu.Unlock()
	return nil
}
