package gbfs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFeedNotAdvertised is wrapped by FetchError when the discovery document has
// no URL for the requested feed in the effective language
var ErrFeedNotAdvertised = errors.New("feed not advertised by discovery document")

// InitializationError reports a discovery document that could not be fetched or parsed
type InitializationError struct {
	URL string
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("failed to initialize GBFS feeds from %s: %v", e.URL, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// FetchError reports a feed that could not be retrieved
type FetchError struct {
	Feed string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("failed to retrieve %s feed: %v", e.Feed, e.Err)
	}
	return fmt.Sprintf("failed to retrieve %s feed from %s: %v", e.Feed, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UnsupportedLanguageError reports a preferred language the discovery document does not list
type UnsupportedLanguageError struct {
	Requested string
	Available []string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("feed language %q is not supported by this system, available languages: %s",
		e.Requested, strings.Join(e.Available, ", "))
}

// NotFoundError reports a station ID absent from a station feed
type NotFoundError struct {
	Feed      string
	StationID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("station with ID %s not found in %s feed", e.StationID, e.Feed)
}

// InvalidResponseError reports a feed payload that is not shaped like GBFS
type InvalidResponseError struct {
	Feed   string
	Reason string
	Err    error
}

func (e *InvalidResponseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s response: %s", e.Feed, e.Reason)
	}
	return fmt.Sprintf("invalid %s response: %s: %v", e.Feed, e.Reason, e.Err)
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}
