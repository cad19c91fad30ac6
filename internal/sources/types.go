package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/marketplace-sync/internal/catalog"
	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/provenance"
)

var (
	// ErrFetch is returned when a source repository cannot be materialized
	ErrFetch = errors.New("failed to fetch source")

	// ErrMissingDescriptor is returned when a marketplace repository has no descriptor
	ErrMissingDescriptor = errors.New("marketplace descriptor not found")

	// ErrInvalidDescriptor is returned when a marketplace descriptor cannot be parsed
	ErrInvalidDescriptor = catalog.ErrInvalidDescriptor

	// ErrCopy is returned when a skill tree cannot be written to its target
	ErrCopy = errors.New("failed to copy skill")

	// ErrUnsupportedType is returned for sources of an unknown type
	ErrUnsupportedType = errors.New("unsupported source type")

	// ErrInvalidSource is returned when a source lacks fields its type requires
	ErrInvalidSource = errors.New("invalid source")
)

// Reasons a source can fail
const (
	ReasonFetchFailed       = "FetchFailed"
	ReasonDescriptorMissing = "DescriptorMissing"
	ReasonDescriptorInvalid = "DescriptorInvalid"
	ReasonCopyFailed        = "CopyFailed"
	ReasonUnsupportedType   = "UnsupportedType"
	ReasonInvalidSource     = "InvalidSource"
)

// Status is the outcome of processing one source
type Status int

const (
	// StatusOK means the source was processed and its entries are in the result
	StatusOK Status = iota
	// StatusSkippedAlreadyProcessed means the same repository and branch was already processed in this run
	StatusSkippedAlreadyProcessed
	// StatusFailed means the source contributed nothing; Result.Err says why
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkippedAlreadyProcessed:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Error represents a source processing error with the reason it is reported under
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ProcessedSet remembers which repository fetches already happened in a run
type ProcessedSet interface {
	// MarkProcessed records key and reports whether it was new
	MarkProcessed(key string) bool
}

// Request carries everything a handler needs to process one source
type Request struct {
	Source *config.SourceConfig

	// Chain holds the identifiers of the sources enclosing Source; empty at top level
	Chain provenance.Chain

	Settings *config.SyncSettings

	// WorkDir is the scratch directory repositories are cloned under
	WorkDir string

	// OutputRoot is the directory skill target paths are resolved against
	OutputRoot string

	// OutputPath is the catalog file; no skill target may contain its directory
	OutputPath string

	Processed ProcessedSet
}

// Entry is a plugin produced by a source together with its provenance tag
type Entry struct {
	Plugin catalog.Plugin
	Tag    string
}

// Result is the outcome of processing one source
type Result struct {
	Source  *config.SourceConfig
	Status  Status
	Entries []Entry

	// Skipped lists plugin names left out by the denylist
	Skipped []string

	// Err is set when Status is StatusFailed
	Err *Error
}

func okResult(src *config.SourceConfig, entries []Entry, skipped []string) *Result {
	return &Result{Source: src, Status: StatusOK, Entries: entries, Skipped: skipped}
}

func failedResult(src *config.SourceConfig, reason, message string, err error) *Result {
	return &Result{
		Source: src,
		Status: StatusFailed,
		Err:    &Error{Err: err, Message: message, Reason: reason},
	}
}

//go:generate mockgen -destination=mocks/mock_source_handler.go -package=mocks -source=types.go SourceHandler,SourceHandlerFactory

// SourceHandler turns one configured source into catalog entries
type SourceHandler interface {
	// Validate validates the source configuration
	Validate(source *config.SourceConfig) error

	// Process fetches the source and returns its outcome. Failures are
	// reported in the result, never panicked or returned separately.
	Process(ctx context.Context, req *Request) *Result
}

// SourceHandlerFactory creates source handlers based on source type
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}
