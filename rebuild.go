package gaiacat

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// RebuildPixelIndex rescans every chunk file under dir/chunks, recomputes
// the pixel -> chunk-id mapping from each record's stored healpix_pixel
// field, and writes the rebuilt pixel index and chunk lists to
// dir/metadata_new.dat, leaving the live metadata.dat untouched. Used by
// cmd/rebuild_healpix_index when chunk files have been added, removed, or
// regenerated out of band. The operator atomically swaps metadata_new.dat
// into place once satisfied; a crash or interrupt mid-write never corrupts
// the only copy of the index. Returns the number of distinct pixels
// covered by the rebuilt index.
func RebuildPixelIndex(dir string) (int, error) {
	metaPath := filepath.Join(dir, "metadata.dat")
	newMetaPath := filepath.Join(dir, "metadata_new.dat")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return 0, NewInitFailedError(fmt.Sprintf("reading %s: %v", metaPath, err))
	}
	if len(data) < HeaderSize {
		return 0, NewCorruptCatalogError("metadata.dat shorter than header")
	}
	header, err := decodeHeader(data[:HeaderSize])
	if err != nil {
		return 0, err
	}

	chunksDir := filepath.Join(dir, "chunks")
	entries, err := os.ReadDir(chunksDir)
	if err != nil {
		return 0, NewInitFailedError(fmt.Sprintf("reading %s: %v", chunksDir, err))
	}

	pixelToChunkSet := make(map[uint32]map[uint32]struct{})
	maxChunkID := uint32(0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var chunkID uint32
		if _, err := fmt.Sscanf(e.Name(), "chunk_%03d.dat", &chunkID); err != nil {
			continue
		}
		if chunkID > maxChunkID {
			maxChunkID = chunkID
		}
		buf, err := os.ReadFile(filepath.Join(chunksDir, e.Name()))
		if err != nil {
			return 0, NewIoError(e.Name(), err)
		}
		for _, r := range decodeRecords(buf) {
			set, ok := pixelToChunkSet[r.HealpixPixel]
			if !ok {
				set = make(map[uint32]struct{})
				pixelToChunkSet[r.HealpixPixel] = set
			}
			set[chunkID] = struct{}{}
		}
	}

	pixelToChunks := make(map[uint32][]uint32, len(pixelToChunkSet))
	for pixel, set := range pixelToChunkSet {
		chunks := make([]uint32, 0, len(set))
		for c := range set {
			chunks = append(chunks, c)
		}
		sort.Slice(chunks, func(i, j int) bool { return chunks[i] < chunks[j] })
		pixelToChunks[pixel] = chunks
	}

	idx := buildPixelIndex(pixelToChunks)
	encoded := encodePixelIndex(idx)

	pixelIndexSize := uint64(len(idx.Entries) * pixelIndexEntrySize)
	chunkIndexSize := uint64(len(idx.ChunkLists) * 4)

	header.PixelIndexOffset = HeaderSize
	header.PixelIndexSize = pixelIndexSize
	header.ChunkIndexOffset = HeaderSize + pixelIndexSize
	header.ChunkIndexSize = chunkIndexSize
	header.TotalChunks = maxChunkID + 1

	out := append(encodeHeader(header), encoded...)
	if err := os.WriteFile(newMetaPath, out, 0o644); err != nil {
		return 0, NewIoError(newMetaPath, err)
	}
	return len(idx.Entries), nil
}
