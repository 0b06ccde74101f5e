package gaiacat

import (
	"encoding/json"
	"time"
)

// Config is the JSON configuration blob spec.md section 4.F describes,
// unmarshalled with encoding/json in the same plain-struct style as the
// teacher's Store/Table metadata sidecars -- no schema or config
// framework library, since none appears anywhere else in this pack.
type Config struct {
	CatalogType        string `json:"catalog_type"`        // "multifile_v2" or "single_v1"
	MultifileDirectory string `json:"multifile_directory"` // used when CatalogType == "multifile_v2"
	FilePath           string `json:"file_path"`           // used when CatalogType == "single_v1"
	MaxCachedChunks    int    `json:"max_cached_chunks"`   // default 200
	CacheTimeoutMs     int    `json:"cache_timeout_ms"`    // default 0 (wait forever)
	LogLevel           string `json:"log_level"`           // debug|info|warn|error, default info
}

const (
	CatalogTypeMultifile = "multifile_v2"
	CatalogTypeSingle    = "single_v1"
)

// ParseConfig unmarshals a JSON configuration blob into a Config,
// applying spec.md's documented defaults for omitted fields.
func ParseConfig(blob []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(blob, &cfg); err != nil {
		return Config{}, NewInitFailedError("malformed configuration json: " + err.Error())
	}
	if cfg.MaxCachedChunks <= 0 {
		cfg.MaxCachedChunks = DefaultMaxCachedChunks
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// Validate checks cfg against the rules spec.md section 5 flags as
// fatal InitFailed conditions: unknown catalog_type or a missing
// directory/file path for the selected type.
func (cfg Config) Validate() error {
	switch cfg.CatalogType {
	case CatalogTypeMultifile:
		if cfg.MultifileDirectory == "" {
			return NewInitFailedError("catalog_type multifile_v2 requires multifile_directory")
		}
	case CatalogTypeSingle:
		if cfg.FilePath == "" {
			return NewInitFailedError("catalog_type single_v1 requires file_path")
		}
	default:
		return NewInitFailedError("unknown catalog_type: " + cfg.CatalogType)
	}
	return nil
}

func (cfg Config) cacheTimeout() time.Duration {
	if cfg.CacheTimeoutMs <= 0 {
		return 0
	}
	return time.Duration(cfg.CacheTimeoutMs) * time.Millisecond
}
