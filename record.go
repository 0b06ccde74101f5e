package gaiacat

import (
	"encoding/binary"
	"math"
)

// RecordSize is the fixed, packed on-disk size of a Record in bytes.
const RecordSize = 84

// nan32/nan64 are the sentinel values used for absent magnitudes,
// matching the spec's "quiet NaN" convention.
var (
	nan32 = float32(math.NaN())
	nan64 = math.NaN()
)

// Record is one star, decoded from its fixed 84-byte on-disk layout.
// Field order and widths mirror spec.md section 3 and section 6
// exactly; see record.go's encode/decode pair for the byte-for-byte
// layout.
type Record struct {
	SourceID uint64

	Ra  float64
	Dec float64

	GMag  float32
	BpMag float32
	RpMag float32

	GMagError float32
	BpMagErr  float32
	RpMagErr  float32
	BpRp      float32

	Parallax      float32
	ParallaxError float32
	Pmra          float32
	Pmdec         float32
	PmraError     float32

	Ruwe float32

	PhotBpNObs uint16
	PhotRpNObs uint16

	HealpixPixel uint32
}

// encodeRecord writes r into buf (which must be at least RecordSize
// bytes) in the little-endian packed layout spec.md section 6 defines.
func encodeRecord(r Record, buf []byte) {
	_ = buf[:RecordSize]
	binary.LittleEndian.PutUint64(buf[0:8], r.SourceID)
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(r.Ra))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(r.Dec))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(r.GMag))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(r.BpMag))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(r.RpMag))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(r.GMagError))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(r.BpMagErr))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(r.RpMagErr))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(r.BpRp))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(r.Parallax))
	binary.LittleEndian.PutUint32(buf[56:60], math.Float32bits(r.ParallaxError))
	binary.LittleEndian.PutUint32(buf[60:64], math.Float32bits(r.Pmra))
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(r.Pmdec))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(r.PmraError))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(r.Ruwe))
	binary.LittleEndian.PutUint16(buf[76:78], r.PhotBpNObs)
	binary.LittleEndian.PutUint16(buf[78:80], r.PhotRpNObs)
	binary.LittleEndian.PutUint32(buf[80:84], r.HealpixPixel)
}

// decodeRecord reads a Record out of buf, which must be at least
// RecordSize bytes, per the little-endian packed layout.
func decodeRecord(buf []byte) Record {
	_ = buf[:RecordSize]
	return Record{
		SourceID:      binary.LittleEndian.Uint64(buf[0:8]),
		Ra:            math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		Dec:           math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		GMag:          math.Float32frombits(binary.LittleEndian.Uint32(buf[24:28])),
		BpMag:         math.Float32frombits(binary.LittleEndian.Uint32(buf[28:32])),
		RpMag:         math.Float32frombits(binary.LittleEndian.Uint32(buf[32:36])),
		GMagError:     math.Float32frombits(binary.LittleEndian.Uint32(buf[36:40])),
		BpMagErr:      math.Float32frombits(binary.LittleEndian.Uint32(buf[40:44])),
		RpMagErr:      math.Float32frombits(binary.LittleEndian.Uint32(buf[44:48])),
		BpRp:          math.Float32frombits(binary.LittleEndian.Uint32(buf[48:52])),
		Parallax:      math.Float32frombits(binary.LittleEndian.Uint32(buf[52:56])),
		ParallaxError: math.Float32frombits(binary.LittleEndian.Uint32(buf[56:60])),
		Pmra:          math.Float32frombits(binary.LittleEndian.Uint32(buf[60:64])),
		Pmdec:         math.Float32frombits(binary.LittleEndian.Uint32(buf[64:68])),
		PmraError:     math.Float32frombits(binary.LittleEndian.Uint32(buf[68:72])),
		Ruwe:          math.Float32frombits(binary.LittleEndian.Uint32(buf[72:76])),
		PhotBpNObs:    binary.LittleEndian.Uint16(buf[76:78]),
		PhotRpNObs:    binary.LittleEndian.Uint16(buf[78:80]),
		HealpixPixel:  binary.LittleEndian.Uint32(buf[80:84]),
	}
}

// decodeRecords decodes every RecordSize-byte slice in buf in order.
func decodeRecords(buf []byte) []Record {
	n := len(buf) / RecordSize
	records := make([]Record, n)
	for i := 0; i < n; i++ {
		records[i] = decodeRecord(buf[i*RecordSize : (i+1)*RecordSize])
	}
	return records
}

// Point returns r's position as a CelestialPoint for use with the
// geometry and HEALPix functions.
func (r Record) Point() CelestialPoint {
	return CelestialPoint{Ra: r.Ra, Dec: r.Dec}
}

// checkPixelInvariant verifies that r.HealpixPixel matches
// RaDecToPix(r.Ra, r.Dec), the redundancy invariant spec.md section 3
// requires every record to satisfy.
func (r Record) checkPixelInvariant() bool {
	return r.HealpixPixel == RaDecToPix(r.Ra, r.Dec)
}
