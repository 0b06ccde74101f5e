package gaiacat

import (
	"testing"
	"time"
)

func sampleHeader() Header {
	return Header{
		Version:          FormatVersion,
		FormatFlags:      0,
		TotalStars:       1_500_000,
		TotalChunks:      15,
		StarsPerChunk:    100_000,
		Nside:            Nside,
		MagCutoff:        20.5,
		RaMin:            0,
		RaMax:            360,
		DecMin:           -90,
		DecMax:           90,
		PixelIndexOffset: HeaderSize,
		PixelIndexSize:   4096,
		ChunkIndexOffset: HeaderSize + 4096,
		ChunkIndexSize:   2048,
		DataOffset:       0,
		DataSize:         0,
		CreatedAt:        time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		SourceLabel:      "gaia-dr3-subset",
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	buf := encodeHeader(h)
	if len(buf) != HeaderSize {
		t.Fatalf("expected encoded header of size %d, got %d", HeaderSize, len(buf))
	}

	got, err := decodeHeader(buf)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if got.Version != h.Version || got.TotalStars != h.TotalStars || got.TotalChunks != h.TotalChunks ||
		got.StarsPerChunk != h.StarsPerChunk || got.Nside != h.Nside || got.MagCutoff != h.MagCutoff ||
		got.RaMin != h.RaMin || got.RaMax != h.RaMax || got.DecMin != h.DecMin || got.DecMax != h.DecMax ||
		got.PixelIndexOffset != h.PixelIndexOffset || got.PixelIndexSize != h.PixelIndexSize ||
		got.ChunkIndexOffset != h.ChunkIndexOffset || got.ChunkIndexSize != h.ChunkIndexSize ||
		got.SourceLabel != h.SourceLabel {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, h)
	}
	if !got.CreatedAt.Equal(h.CreatedAt) {
		t.Errorf("expected CreatedAt %v, got %v", h.CreatedAt, got.CreatedAt)
	}
}

func TestHeaderMagicCheck(t *testing.T) {
	h := sampleHeader()
	buf := encodeHeader(h)
	if !checkMagic(buf) {
		t.Errorf("expected a freshly encoded header to pass the magic check")
	}

	corrupted := append([]byte(nil), buf...)
	corrupted[0] = 'X'
	if checkMagic(corrupted) {
		t.Errorf("expected a corrupted magic to fail the check")
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	_, err := decodeHeader(make([]byte, HeaderSize-1))
	if err == nil {
		t.Errorf("expected an error decoding a truncated header")
	}
}

func TestFixedStringRoundTrip(t *testing.T) {
	dst := make([]byte, 32)
	writeFixedString(dst, "gaia-dr3-subset")
	got := readFixedString(dst)
	if got != "gaia-dr3-subset" {
		t.Errorf("expected round trip, got %q", got)
	}
}

func TestFixedStringEmpty(t *testing.T) {
	dst := make([]byte, 16)
	writeFixedString(dst, "")
	if got := readFixedString(dst); got != "" {
		t.Errorf("expected empty string round trip, got %q", got)
	}
}
