package gaiacat

import (
	"sync"
)

// facade is the process-wide singleton state, guarded by facadeMu.
// Adapted from the teacher's Database, which played an analogous
// single-instance front-door role over a map of named tables; here
// there is exactly one active Catalog, selected by Config.CatalogType.
var (
	facadeMu  sync.Mutex
	facade    Catalog
	facadeCfg Config
)

// Initialize validates cfg and opens the catalog variant it selects,
// installing it as the process singleton. Fails with ErrAlreadyInitialized
// if a catalog is already installed and has not been Shutdown.
func Initialize(cfg Config) error {
	facadeMu.Lock()
	defer facadeMu.Unlock()

	if facade != nil {
		return ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := NewLogger(ParseLogLevel(cfg.LogLevel))

	var cat Catalog
	var err error
	switch cfg.CatalogType {
	case CatalogTypeMultifile:
		cat, err = OpenMultifile(cfg.MultifileDirectory, MultifileOptions{
			MaxCachedChunks: cfg.MaxCachedChunks,
			CacheTimeout:    cfg.cacheTimeout(),
			Logger:          logger,
		})
	case CatalogTypeSingle:
		cat, err = OpenLegacy(cfg.FilePath, logger)
	default:
		return NewInitFailedError("unknown catalog_type: " + cfg.CatalogType)
	}
	if err != nil {
		return err
	}

	facade = cat
	facadeCfg = cfg
	return nil
}

// GetInstance returns the process singleton installed by Initialize, or
// ErrNotInitialized if Initialize has not yet succeeded (or was
// Shutdown since).
func GetInstance() (Catalog, error) {
	facadeMu.Lock()
	defer facadeMu.Unlock()
	if facade == nil {
		return nil, ErrNotInitialized
	}
	return facade, nil
}

// Shutdown closes the singleton catalog and clears it, allowing a
// subsequent Initialize call. Shutting down when nothing is
// initialized is a no-op.
func Shutdown() error {
	facadeMu.Lock()
	cat := facade
	facade = nil
	facadeCfg = Config{}
	facadeMu.Unlock()

	if cat == nil {
		return nil
	}
	return cat.Close()
}

// FacadeStats returns the singleton catalog's aggregate statistics, or
// ErrNotInitialized if none is installed.
func FacadeStats() (Stats, error) {
	cat, err := GetInstance()
	if err != nil {
		return Stats{}, err
	}
	return cat.Stats(), nil
}
