package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown     = "ERR_UNKNOWN"
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidationFormat is used when a path or query parameter has an invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Carrier sync error codes
const (
	// ErrCodeFeedUnavailable is used when the provider feed could not be downloaded
	ErrCodeFeedUnavailable = "ERR_FEED_UNAVAILABLE"
	// ErrCodeFeedMalformed is used when the feed body is not valid JSON
	ErrCodeFeedMalformed = "ERR_FEED_MALFORMED"
	// ErrCodeFeedInvalid is used when the feed has no usable carrier list
	ErrCodeFeedInvalid = "ERR_FEED_INVALID"
	// ErrCodeSyncStore is used when the catalog could not be written
	ErrCodeSyncStore = "ERR_SYNC_STORE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeValidationFormat: http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeFeedUnavailable: http.StatusBadGateway,
	ErrCodeFeedMalformed:   http.StatusUnprocessableEntity,
	ErrCodeFeedInvalid:     http.StatusUnprocessableEntity,
	ErrCodeSyncStore:       http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
