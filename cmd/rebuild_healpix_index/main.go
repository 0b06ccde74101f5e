// rebuild_healpix_index rewrites a multifile catalog's pixel_index and
// chunk_lists arrays by scanning every chunk file and recomputing each
// chunk's set of healpix pixels, per spec.md section 6's "rebuild
// tool" maintenance path. It writes metadata_new.dat alongside the live
// metadata.dat and never touches the original; the operator is left to
// atomically swap the files in once satisfied with the result.
//
// Usage:
//
//	go run ./cmd/rebuild_healpix_index -dir /path/to/catalog
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/owlpinetech/gaiacat"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "", "path to the multifile catalog directory")
	flag.Parse()
	if *dir == "" {
		return fmt.Errorf("-dir is required")
	}

	logger := gaiacat.NewLogger(gaiacat.LogLevelInfo)
	cat, err := gaiacat.OpenMultifile(*dir, gaiacat.MultifileOptions{Logger: logger})
	if err != nil {
		return fmt.Errorf("open %s: %w", *dir, err)
	}
	cat.Close()

	rebuilt, err := gaiacat.RebuildPixelIndex(*dir)
	if err != nil {
		return fmt.Errorf("rebuild pixel index: %w", err)
	}

	metaPath := filepath.Join(filepath.Clean(*dir), "metadata.dat")
	newMetaPath := filepath.Join(filepath.Clean(*dir), "metadata_new.dat")
	fmt.Printf("rebuilt pixel index for %s: %d distinct pixels covered\n", filepath.Clean(*dir), rebuilt)
	fmt.Printf("wrote %s; live %s was not modified\n", newMetaPath, metaPath)
	fmt.Printf("once satisfied, swap it in:\n\tmv %s %s\n", newMetaPath, metaPath)
	return nil
}
