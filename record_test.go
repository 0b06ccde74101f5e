package gaiacat

import (
	"encoding/binary"
	"math"
	"testing"
)

func sampleRecord() Record {
	ra, dec := 123.456, -45.678
	return Record{
		SourceID:      1234567890123,
		Ra:            ra,
		Dec:           dec,
		GMag:          12.34,
		GMagError:     0.01,
		BpMag:         12.9,
		BpMagErr:      0.02,
		RpMag:         11.5,
		RpMagErr:      0.015,
		BpRp:          1.4,
		Parallax:      2.5,
		ParallaxError: 0.1,
		Pmra:          3.2,
		Pmdec:         -1.1,
		PmraError:     0.05,
		Ruwe:          1.02,
		PhotBpNObs:    14,
		PhotRpNObs:    12,
		HealpixPixel:  RaDecToPix(ra, dec),
	}
}

func TestRecordRoundTrip(t *testing.T) {
	r := sampleRecord()
	buf := make([]byte, RecordSize)
	encodeRecord(r, buf)
	got := decodeRecord(buf)

	if got != r {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, r)
	}
}

func TestRecordRoundTripWithNaNMagnitudes(t *testing.T) {
	r := sampleRecord()
	r.BpMag = nan32
	r.BpMagErr = nan32

	buf := make([]byte, RecordSize)
	encodeRecord(r, buf)
	got := decodeRecord(buf)

	if !math.IsNaN(float64(got.BpMag)) || !math.IsNaN(float64(got.BpMagErr)) {
		t.Errorf("expected absent bp magnitude fields to round-trip as NaN, got %+v", got)
	}
}

func TestDecodeRecordsSlicesConcatenatedBuffer(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	b.SourceID = a.SourceID + 1

	buf := make([]byte, 2*RecordSize)
	encodeRecord(a, buf[:RecordSize])
	encodeRecord(b, buf[RecordSize:])

	records := decodeRecords(buf)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].SourceID != a.SourceID || records[1].SourceID != b.SourceID {
		t.Errorf("decoded records out of order or corrupted: %+v", records)
	}
}

func TestRecordPixelInvariant(t *testing.T) {
	r := sampleRecord()
	if !r.checkPixelInvariant() {
		t.Errorf("expected constructed record to satisfy the pixel invariant")
	}

	r.HealpixPixel++
	if r.checkPixelInvariant() {
		t.Errorf("expected mutated healpix_pixel to fail the invariant check")
	}
}

func TestRecordPoint(t *testing.T) {
	r := sampleRecord()
	p := r.Point()
	if p.Ra != r.Ra || p.Dec != r.Dec {
		t.Errorf("expected Point() to mirror Ra/Dec, got %+v", p)
	}
}

// TestDecodeRecordFieldOffsets builds an 84-byte buffer by hand, using
// offsets independent of encodeRecord, matching the original
// Mag18RecordV2 layout: g_mag, bp_mag, rp_mag grouped, then their three
// errors grouped, not interleaved. This catches a field-order bug that
// a plain encode/decode round trip can't, since both sides of a round
// trip would share the same wrong layout.
func TestDecodeRecordFieldOffsets(t *testing.T) {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], 42)
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(10))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(20))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(1)) // g_mag
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(2)) // bp_mag
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(3)) // rp_mag
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(4)) // g_mag_error
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(5)) // bp_mag_error
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(6)) // rp_mag_error
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(7)) // bp_rp
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(8))
	binary.LittleEndian.PutUint32(buf[56:60], math.Float32bits(9))
	binary.LittleEndian.PutUint32(buf[60:64], math.Float32bits(10))
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(11))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(12))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(13))
	binary.LittleEndian.PutUint16(buf[76:78], 7)
	binary.LittleEndian.PutUint16(buf[78:80], 8)
	binary.LittleEndian.PutUint32(buf[80:84], 99)

	got := decodeRecord(buf)
	if got.GMag != 1 || got.BpMag != 2 || got.RpMag != 3 {
		t.Errorf("magnitude fields not grouped correctly: GMag=%v BpMag=%v RpMag=%v", got.GMag, got.BpMag, got.RpMag)
	}
	if got.GMagError != 4 || got.BpMagErr != 5 || got.RpMagErr != 6 {
		t.Errorf("magnitude error fields not grouped correctly: GMagError=%v BpMagErr=%v RpMagErr=%v", got.GMagError, got.BpMagErr, got.RpMagErr)
	}
}
