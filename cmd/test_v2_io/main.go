// test_v2_io opens a multifile catalog, runs a cone query (and, with
// -source-id, a source_id lookup) against it, and prints the cone
// query's timing and result count plus the catalog stats. A thin
// smoke-test harness over the library, not an independent implementation.
//
// Usage:
//
//	go run ./cmd/test_v2_io -dir /path/to/catalog -ra 10.5 -dec -3.2 -radius 0.5
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

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
	ra := flag.Float64("ra", 0, "cone center right ascension, degrees")
	dec := flag.Float64("dec", 0, "cone center declination, degrees")
	radius := flag.Float64("radius", 1.0, "cone search radius, degrees")
	sourceID := flag.Uint64("source-id", 0, "if nonzero, also look up this source_id")
	flag.Parse()

	if *dir == "" {
		return fmt.Errorf("-dir is required")
	}

	logger := gaiacat.NewLogger(gaiacat.LogLevelDebug)
	cat, err := gaiacat.OpenMultifile(*dir, gaiacat.MultifileOptions{Logger: logger})
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	result, err := cat.QueryCone(ctx, gaiacat.DefaultConeParams(*ra, *dec, *radius))
	if err != nil {
		return fmt.Errorf("cone query: %w", err)
	}
	fmt.Printf("cone (%.4f, %.4f) r=%.4f deg: %d stars in %v (incomplete=%v)\n",
		*ra, *dec, *radius, len(result.Records), time.Since(start), result.Incomplete)

	if *sourceID != 0 {
		rec, found, err := cat.QueryBySourceID(ctx, *sourceID)
		if err != nil {
			return fmt.Errorf("source id lookup: %w", err)
		}
		if !found {
			fmt.Printf("source_id %d: not found\n", *sourceID)
		} else {
			fmt.Printf("source_id %d: ra=%.6f dec=%.6f g_mag=%.3f\n", *sourceID, rec.Ra, rec.Dec, rec.GMag)
		}
	}

	stats := cat.Stats()
	fmt.Printf("stats: queries=%d avg_ms=%.3f cache_hit_rate=%.1f%%\n",
		stats.TotalQueries, stats.AverageQueryTimeMs, stats.CacheHitRate)
	return nil
}
