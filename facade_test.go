package gaiacat

import (
	"context"
	"testing"
)

func TestFacadeLifecycle(t *testing.T) {
	dir := buildTestMultifileCatalog(t, []Record{makeTestRecord(1, 10, 10, 15)}, 1)
	t.Cleanup(func() { Shutdown() })

	if _, err := GetInstance(); err != ErrNotInitialized {
		t.Errorf("expected ErrNotInitialized before Initialize, got %v", err)
	}

	cfg := Config{CatalogType: CatalogTypeMultifile, MultifileDirectory: dir, LogLevel: "error"}
	if err := Initialize(cfg); err != nil {
		t.Fatalf("unexpected error initializing: %v", err)
	}

	if err := Initialize(cfg); err != ErrAlreadyInitialized {
		t.Errorf("expected ErrAlreadyInitialized on double init, got %v", err)
	}

	cat, err := GetInstance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := cat.QueryBySourceID(context.Background(), 1); err != nil {
		t.Errorf("unexpected error querying through the facade: %v", err)
	}

	if err := Shutdown(); err != nil {
		t.Fatalf("unexpected error shutting down: %v", err)
	}
	if _, err := GetInstance(); err != ErrNotInitialized {
		t.Errorf("expected ErrNotInitialized after shutdown, got %v", err)
	}

	// Re-initialize should now succeed.
	if err := Initialize(cfg); err != nil {
		t.Fatalf("unexpected error re-initializing after shutdown: %v", err)
	}
}

func TestFacadeRejectsInvalidConfig(t *testing.T) {
	t.Cleanup(func() { Shutdown() })
	err := Initialize(Config{CatalogType: "bogus"})
	if err == nil {
		t.Fatalf("expected an error for an invalid catalog_type")
	}
	if _, ok := err.(*InitFailedError); !ok {
		t.Errorf("expected *InitFailedError, got %T: %v", err, err)
	}
}
