package buildingModel

import (
	"errors"
	"fmt"
)

// Error taxonomy for the ingestion pipeline and the online path. Fatal ones
// stop the stage for the affected shard; per-record problems go through
// RunSummary.Skip instead.
var (
	// ErrSourceUnavailable covers a dataset mirror that cannot be reached or
	// an archive that is missing the requested department.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaMismatch means the fetched data does not carry the columns the
	// loader requires. Always fatal for the shard.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrIndexing wraps a shard-level failure to write embeddings after the
	// retry budget is exhausted.
	ErrIndexing = errors.New("indexing failed")

	// ErrUpstreamService marks an embedding or generation backend failure at
	// query time, surfaced to the client as 502.
	ErrUpstreamService = errors.New("upstream service error")
)

func SchemaMismatchError(missing []string) error {
	return fmt.Errorf("%w: missing required columns %v", ErrSchemaMismatch, missing)
}

func SourceError(department string, cause error) error {
	return fmt.Errorf("%w: departement %s: %v", ErrSourceUnavailable, department, cause)
}

func IndexingShardError(department string, cause error) error {
	return fmt.Errorf("%w: shard %s: %v", ErrIndexing, department, cause)
}

func UpstreamError(service string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstreamService, service, cause)
}
