package gaiacat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRebuildPixelIndexLeavesLiveMetadataUntouched(t *testing.T) {
	records := []Record{
		makeTestRecord(1, 10, 10, 15),
		makeTestRecord(2, 10.1, 10.1, 16),
		makeTestRecord(3, 50, -20, 14),
		makeTestRecord(4, 50.1, -20.1, 13),
	}
	dir := buildTestMultifileCatalog(t, records, 2)

	metaPath := filepath.Join(dir, "metadata.dat")
	before, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatal(err)
	}

	n, err := RebuildPixelIndex(dir)
	if err != nil {
		t.Fatalf("RebuildPixelIndex: %v", err)
	}
	if n == 0 {
		t.Errorf("expected at least one covered pixel, got 0")
	}

	after, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("RebuildPixelIndex modified the live metadata.dat; it must only write metadata_new.dat")
	}

	newPath := filepath.Join(dir, "metadata_new.dat")
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("expected metadata_new.dat to exist: %v", err)
	}
}

func TestRebuildPixelIndexTwiceIsNoOpOnSecondRun(t *testing.T) {
	records := []Record{
		makeTestRecord(1, 10, 10, 15),
		makeTestRecord(2, 10.1, 10.1, 16),
		makeTestRecord(3, 50, -20, 14),
		makeTestRecord(4, 50.1, -20.1, 13),
		makeTestRecord(5, 200, 40, 12),
	}
	dir := buildTestMultifileCatalog(t, records, 2)

	if _, err := RebuildPixelIndex(dir); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	newPath := filepath.Join(dir, "metadata_new.dat")
	firstOut, err := os.ReadFile(newPath)
	if err != nil {
		t.Fatal(err)
	}

	// Operator swaps the rebuilt index into place, as documented.
	metaPath := filepath.Join(dir, "metadata.dat")
	if err := os.Rename(newPath, metaPath); err != nil {
		t.Fatal(err)
	}

	if _, err := RebuildPixelIndex(dir); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	secondOut, err := os.ReadFile(newPath)
	if err != nil {
		t.Fatal(err)
	}

	if string(firstOut) != string(secondOut) {
		t.Errorf("rebuilding an already-rebuilt catalog should be a no-op, got different output bytes")
	}
}

func TestRebuildPixelIndexReopensCleanlyAfterSwap(t *testing.T) {
	records := []Record{
		makeTestRecord(1, 10, 10, 15),
		makeTestRecord(2, 10.1, 10.1, 16),
	}
	dir := buildTestMultifileCatalog(t, records, 1)

	if _, err := RebuildPixelIndex(dir); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	newPath := filepath.Join(dir, "metadata_new.dat")
	metaPath := filepath.Join(dir, "metadata.dat")
	if err := os.Rename(newPath, metaPath); err != nil {
		t.Fatal(err)
	}

	cat, err := OpenMultifile(dir, MultifileOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("reopen after swap: %v", err)
	}
	defer cat.Close()

	pixels := cat.IndexedPixels()
	if len(pixels) == 0 {
		t.Errorf("expected indexed pixels after rebuild+swap, got none")
	}
}
