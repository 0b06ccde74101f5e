package gaiacat

import (
	"encoding/binary"
	"math"
	"strings"
	"time"
)

// HeaderSize is the fixed on-disk size of the catalog header in bytes.
const HeaderSize = 256

// Magic is the 8-byte literal every multifile v2 metadata.dat must
// begin with.
const Magic = "GAIA18V2"

// FormatVersion is the only header version this engine accepts.
const FormatVersion = 2

// Header is the fixed 256-byte metadata.dat header, decoded.
type Header struct {
	Version      uint32
	FormatFlags  uint32
	TotalStars   uint64
	TotalChunks  uint32
	StarsPerChunk uint32
	Nside        uint32
	MagCutoff    float32
	RaMin, RaMax   float64
	DecMin, DecMax float64

	PixelIndexOffset uint64
	PixelIndexSize   uint64
	ChunkIndexOffset uint64
	ChunkIndexSize   uint64
	DataOffset       uint64
	DataSize         uint64

	CreatedAt    time.Time
	SourceLabel  string
}

// encodeHeader serializes h into a fresh HeaderSize-byte buffer.
func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], Magic)
	binary.LittleEndian.PutUint32(buf[8:12], h.Version)
	binary.LittleEndian.PutUint32(buf[12:16], h.FormatFlags)
	binary.LittleEndian.PutUint64(buf[16:24], h.TotalStars)
	binary.LittleEndian.PutUint32(buf[24:28], h.TotalChunks)
	binary.LittleEndian.PutUint32(buf[28:32], h.StarsPerChunk)
	binary.LittleEndian.PutUint32(buf[32:36], h.Nside)
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(h.MagCutoff))
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(h.RaMin))
	binary.LittleEndian.PutUint64(buf[48:56], math.Float64bits(h.RaMax))
	binary.LittleEndian.PutUint64(buf[56:64], math.Float64bits(h.DecMin))
	binary.LittleEndian.PutUint64(buf[64:72], math.Float64bits(h.DecMax))
	binary.LittleEndian.PutUint64(buf[72:80], h.PixelIndexOffset)
	binary.LittleEndian.PutUint64(buf[80:88], h.PixelIndexSize)
	binary.LittleEndian.PutUint64(buf[88:96], h.ChunkIndexOffset)
	binary.LittleEndian.PutUint64(buf[96:104], h.ChunkIndexSize)
	binary.LittleEndian.PutUint64(buf[104:112], h.DataOffset)
	binary.LittleEndian.PutUint64(buf[112:120], h.DataSize)

	created, _ := h.CreatedAt.UTC().MarshalText()
	writeFixedString(buf[120:152], string(created))
	writeFixedString(buf[152:248], h.SourceLabel)
	// buf[248:256] reserved, left zero.
	return buf
}

// decodeHeader parses a HeaderSize-byte buffer into a Header, without
// validating it; OpenMultifile performs that validation.
func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, NewCorruptCatalogError("header truncated")
	}
	h := Header{
		Version:       binary.LittleEndian.Uint32(buf[8:12]),
		FormatFlags:   binary.LittleEndian.Uint32(buf[12:16]),
		TotalStars:    binary.LittleEndian.Uint64(buf[16:24]),
		TotalChunks:   binary.LittleEndian.Uint32(buf[24:28]),
		StarsPerChunk: binary.LittleEndian.Uint32(buf[28:32]),
		Nside:         binary.LittleEndian.Uint32(buf[32:36]),
		MagCutoff:     math.Float32frombits(binary.LittleEndian.Uint32(buf[36:40])),
		RaMin:         math.Float64frombits(binary.LittleEndian.Uint64(buf[40:48])),
		RaMax:         math.Float64frombits(binary.LittleEndian.Uint64(buf[48:56])),
		DecMin:        math.Float64frombits(binary.LittleEndian.Uint64(buf[56:64])),
		DecMax:        math.Float64frombits(binary.LittleEndian.Uint64(buf[64:72])),

		PixelIndexOffset: binary.LittleEndian.Uint64(buf[72:80]),
		PixelIndexSize:   binary.LittleEndian.Uint64(buf[80:88]),
		ChunkIndexOffset: binary.LittleEndian.Uint64(buf[88:96]),
		ChunkIndexSize:   binary.LittleEndian.Uint64(buf[96:104]),
		DataOffset:       binary.LittleEndian.Uint64(buf[104:112]),
		DataSize:         binary.LittleEndian.Uint64(buf[112:120]),

		SourceLabel: readFixedString(buf[152:248]),
	}
	createdText := readFixedString(buf[120:152])
	if createdText != "" {
		if t, err := time.Parse(time.RFC3339, createdText); err == nil {
			h.CreatedAt = t
		}
	}
	return h, nil
}

func checkMagic(buf []byte) bool {
	if len(buf) < 8 {
		return false
	}
	return string(buf[0:8]) == Magic
}

func writeFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func readFixedString(src []byte) string {
	n := strings.IndexByte(string(src), 0)
	if n < 0 {
		n = len(src)
	}
	return string(src[:n])
}
