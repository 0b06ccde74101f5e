package gaiacat

import (
	"encoding/binary"
	"sort"

	"golang.org/x/exp/maps"
)

// pixelIndexEntrySize is the fixed size of one PixelIndexEntry: u32
// pixel_id, u32 num_chunks, u64 chunk_list_offset.
const pixelIndexEntrySize = 16

// PixelIndexEntry maps one HEALPix pixel id to the run of chunk ids (in
// chunkLists) that hold records for that pixel.
type PixelIndexEntry struct {
	PixelID         uint32
	NumChunks       uint32
	ChunkListOffset uint64 // in entries (u32) into the chunk lists array
}

// PixelIndex is the decoded pixel_index[] + chunk_lists[] pair from a
// multifile catalog's metadata.dat, sorted by PixelID.
type PixelIndex struct {
	Entries    []PixelIndexEntry
	ChunkLists []uint32

	byPixel map[uint32]int // index into Entries, built on load
}

// ChunksForPixel returns the chunk ids holding records for pixel, or
// nil if the pixel has no records.
func (p *PixelIndex) ChunksForPixel(pixel uint32) []uint32 {
	i, ok := p.byPixel[pixel]
	if !ok {
		return nil
	}
	e := p.Entries[i]
	return p.ChunkLists[e.ChunkListOffset : e.ChunkListOffset+uint64(e.NumChunks)]
}

// ChunksForPixels returns the deduplicated, ascending-sorted union of
// chunk ids holding records for any pixel in pixels.
func (p *PixelIndex) ChunksForPixels(pixels map[uint32]struct{}) []uint32 {
	seen := make(map[uint32]struct{})
	for pixel := range pixels {
		for _, chunk := range p.ChunksForPixel(pixel) {
			seen[chunk] = struct{}{}
		}
	}
	chunks := make([]uint32, 0, len(seen))
	for c := range seen {
		chunks = append(chunks, c)
	}
	sortUint32s(chunks)
	return chunks
}

// Pixels returns the ascending-sorted set of pixel ids this index
// covers, exposed for diagnostics via MultifileCatalog.IndexedPixels.
func (p *PixelIndex) Pixels() []uint32 {
	pixels := maps.Keys(p.byPixel)
	sortUint32s(pixels)
	return pixels
}

func (p *PixelIndex) buildLookup() {
	p.byPixel = make(map[uint32]int, len(p.Entries))
	for i, e := range p.Entries {
		p.byPixel[e.PixelID] = i
	}
}

// encodePixelIndex serializes idx's entries and chunk lists, in that
// order, ready to be written after the header in metadata.dat.
func encodePixelIndex(idx *PixelIndex) []byte {
	buf := make([]byte, len(idx.Entries)*pixelIndexEntrySize+len(idx.ChunkLists)*4)
	off := 0
	for _, e := range idx.Entries {
		binary.LittleEndian.PutUint32(buf[off:off+4], e.PixelID)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], e.NumChunks)
		binary.LittleEndian.PutUint64(buf[off+8:off+16], e.ChunkListOffset)
		off += pixelIndexEntrySize
	}
	for _, c := range idx.ChunkLists {
		binary.LittleEndian.PutUint32(buf[off:off+4], c)
		off += 4
	}
	return buf
}

// decodePixelIndex parses numEntries PixelIndexEntry records followed
// by chunkListLen u32 chunk ids out of buf, validating that every
// entry's run lies within the chunk list array.
func decodePixelIndex(buf []byte, numEntries int, chunkListLen int) (*PixelIndex, error) {
	entriesBytes := numEntries * pixelIndexEntrySize
	need := entriesBytes + chunkListLen*4
	if len(buf) < need {
		return nil, NewCorruptCatalogError("pixel index truncated")
	}

	entries := make([]PixelIndexEntry, numEntries)
	off := 0
	for i := 0; i < numEntries; i++ {
		entries[i] = PixelIndexEntry{
			PixelID:         binary.LittleEndian.Uint32(buf[off : off+4]),
			NumChunks:       binary.LittleEndian.Uint32(buf[off+4 : off+8]),
			ChunkListOffset: binary.LittleEndian.Uint64(buf[off+8 : off+16]),
		}
		off += pixelIndexEntrySize
	}

	chunkLists := make([]uint32, chunkListLen)
	for i := 0; i < chunkListLen; i++ {
		chunkLists[i] = binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
	}

	idx := &PixelIndex{Entries: entries, ChunkLists: chunkLists}
	for _, e := range entries {
		if e.ChunkListOffset+uint64(e.NumChunks) > uint64(len(chunkLists)) {
			return nil, NewCorruptCatalogError("pixel index entry overruns chunk list array")
		}
	}
	idx.buildLookup()
	return idx, nil
}

// buildPixelIndex constructs a PixelIndex from a pixel id -> sorted
// chunk id set mapping, used by the rebuild tool and by tests that
// synthesize catalogs in memory.
func buildPixelIndex(pixelToChunks map[uint32][]uint32) *PixelIndex {
	pixels := make([]uint32, 0, len(pixelToChunks))
	for p := range pixelToChunks {
		pixels = append(pixels, p)
	}
	sortUint32s(pixels)

	idx := &PixelIndex{}
	offset := uint64(0)
	for _, p := range pixels {
		chunks := pixelToChunks[p]
		idx.Entries = append(idx.Entries, PixelIndexEntry{
			PixelID:         p,
			NumChunks:       uint32(len(chunks)),
			ChunkListOffset: offset,
		})
		idx.ChunkLists = append(idx.ChunkLists, chunks...)
		offset += uint64(len(chunks))
	}
	idx.buildLookup()
	return idx
}

func sortUint32s(s []uint32) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
