package carrier

import "errors"

// ---------------------------------------------------------------------------
// Carrier Catalog Errors
// ---------------------------------------------------------------------------

var (
	// ErrTransportFailure is returned when the feed cannot be retrieved
	// (network error or non-2xx status).
	ErrTransportFailure = errors.New("carrier: feed transport failure")

	// ErrMalformedDocument is returned when the feed body is not valid JSON.
	ErrMalformedDocument = errors.New("carrier: malformed feed document")

	// ErrMissingCarrierList is returned when the feed has no usable carriers array.
	ErrMissingCarrierList = errors.New("carrier: feed contains no carrier list")

	// ErrValidationFailure is returned when any feed entry fails field checks.
	// The whole batch is discarded.
	ErrValidationFailure = errors.New("carrier: invalid carrier record")

	// ErrWriteFailure marks a single failed insert or update during a sync pass.
	ErrWriteFailure = errors.New("carrier: record write failed")

	// ErrEmptyKeepSet is returned when a soft-delete sweep is requested with no IDs to keep.
	ErrEmptyKeepSet = errors.New("carrier: refusing to mark all carriers deleted")

	// ErrNotFound is returned when no carrier exists for the given ID.
	ErrNotFound = errors.New("carrier: not found")
)

// IsParseFailure reports whether err means the feed body could not be turned
// into a carrier list.
func IsParseFailure(err error) bool {
	return errors.Is(err, ErrMalformedDocument) || errors.Is(err, ErrMissingCarrierList)
}
