package gaiacat

import "context"

// CatalogState is the lifecycle state machine every Catalog
// implementation drives itself through, per spec.md section 4.E.4.
// Queries are rejected outside Ready.
type CatalogState int

const (
	StateUninitialised CatalogState = iota
	StateOpening
	StateReady
	StateShuttingDown
	StateClosed
)

func (s CatalogState) String() string {
	switch s {
	case StateUninitialised:
		return "uninitialised"
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting-down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Catalog is the capability set spec.md section 9 asks every catalog
// variant to expose behind a common interface, so new on-disk formats
// slot in without touching the facade: query_cone, query_corridor,
// query_by_source_id, stats, info. Adapted from the teacher's Backend
// interface (backend.go), which played the same "statement in, result
// out" role for a generic SQL-like store.
type Catalog interface {
	// QueryCone returns every record within params.Radius degrees of
	// (params.RaCenter, params.DecCenter), magnitude-filtered and
	// capped per params. ctx's deadline and cancellation are polled
	// between chunks, not between records.
	QueryCone(ctx context.Context, params ConeParams) (QueryResult, error)

	// QueryCorridor returns every record within params.Width degrees of
	// the polyline params.Path. Streaming: never materialises a single
	// candidate list across chunks.
	QueryCorridor(ctx context.Context, params CorridorParams) (QueryResult, error)

	// QueryBySourceID performs a linear O(total_stars) scan for id,
	// documented by spec.md section 4.E.3 as a debugging aid, not the
	// primary access path.
	QueryBySourceID(ctx context.Context, id uint64) (Record, bool, error)

	// Stats returns a snapshot of this catalog's aggregate statistics.
	Stats() Stats

	// State returns the catalog's current lifecycle state.
	State() CatalogState

	// Close transitions the catalog to ShuttingDown then Closed,
	// draining outstanding queries before releasing file handles.
	Close() error
}
