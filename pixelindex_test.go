package gaiacat

import "testing"

func TestBuildPixelIndexAndLookup(t *testing.T) {
	pixelToChunks := map[uint32][]uint32{
		100: {0, 2},
		50:  {1},
		200: {0, 1, 2},
	}

	idx := buildPixelIndex(pixelToChunks)

	if len(idx.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(idx.Entries))
	}
	// Entries must come out sorted by pixel id.
	for i := 1; i < len(idx.Entries); i++ {
		if idx.Entries[i-1].PixelID >= idx.Entries[i].PixelID {
			t.Errorf("expected entries sorted ascending by pixel id, got %+v", idx.Entries)
		}
	}

	testCases := []struct {
		pixel    uint32
		expected []uint32
	}{
		{100, []uint32{0, 2}},
		{50, []uint32{1}},
		{200, []uint32{0, 1, 2}},
		{999, nil},
	}
	for _, tc := range testCases {
		got := idx.ChunksForPixel(tc.pixel)
		if !equalUint32(got, tc.expected) {
			t.Errorf("pixel %d: expected %v, got %v", tc.pixel, tc.expected, got)
		}
	}
}

func TestChunksForPixelsDedupesAndSorts(t *testing.T) {
	idx := buildPixelIndex(map[uint32][]uint32{
		1: {5, 2},
		2: {2, 9},
		3: {5},
	})

	pixels := map[uint32]struct{}{1: {}, 2: {}, 3: {}}
	got := idx.ChunksForPixels(pixels)
	want := []uint32{2, 5, 9}
	if !equalUint32(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPixelIndexEncodeDecodeRoundTrip(t *testing.T) {
	idx := buildPixelIndex(map[uint32][]uint32{
		10: {1, 2, 3},
		20: {4},
	})

	buf := encodePixelIndex(idx)
	decoded, err := decodePixelIndex(buf, len(idx.Entries), len(idx.ChunkLists))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if !equalUint32(decoded.ChunkLists, idx.ChunkLists) {
		t.Errorf("chunk lists mismatch: got %v, want %v", decoded.ChunkLists, idx.ChunkLists)
	}
	for _, e := range idx.Entries {
		got := decoded.ChunksForPixel(e.PixelID)
		if !equalUint32(got, idx.ChunkLists[e.ChunkListOffset:e.ChunkListOffset+uint64(e.NumChunks)]) {
			t.Errorf("pixel %d chunks mismatch after decode: %v", e.PixelID, got)
		}
	}
}

func TestDecodePixelIndexRejectsOverrunEntry(t *testing.T) {
	buf := make([]byte, pixelIndexEntrySize+4)
	// pixel_id=0, num_chunks=5, chunk_list_offset=0, but chunkListLen=1.
	buf[4] = 5
	_, err := decodePixelIndex(buf, 1, 1)
	if err == nil {
		t.Errorf("expected an error for an entry whose run overruns the chunk list array")
	}
}

func equalUint32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
