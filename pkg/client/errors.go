package client

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures and non-2xx responses.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout represents requests exceeding the per-call timeout.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassGraphQL represents responses carrying a GraphQL errors array.
	ErrorClassGraphQL ErrorClass = "graphql"

	// ErrorClassShape represents responses without the seriesState root object.
	ErrorClassShape ErrorClass = "shape"

	// ErrorClassDecode represents response bodies that are not valid JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// Failure reasons recorded in progress.json.
const (
	// ReasonVersionUnavailable is recorded when the version probe fails.
	ReasonVersionUnavailable = "Could not fetch version"

	// ReasonTimeout is recorded when the data pull times out.
	ReasonTimeout = "Request timeout"

	// ReasonUnknownGraphQL is recorded when a GraphQL error carries no message.
	ReasonUnknownGraphQL = "Unknown error"
)

// ErrMissingSeriesState is wrapped by shape-class failures.
var ErrMissingSeriesState = errors.New("missing seriesState in response")

// FetchError describes a failed GRID call for one series.
type FetchError struct {
	// Class is the failure classification.
	Class ErrorClass

	// Reason is the human-readable text recorded against the series.
	Reason string

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GRID %s error (status %d): %s", e.Class, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("GRID %s error: %s", e.Class, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReasonOf returns the progress reason for err. Errors that are not a
// *FetchError are reported as unexpected.
func ReasonOf(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return fmt.Sprintf("Unexpected error: %v", err)
}

func networkError(status int, detail string, err error) *FetchError {
	return &FetchError{
		Class:      ErrorClassNetwork,
		Reason:     "Network error: " + detail,
		StatusCode: status,
		Err:        err,
	}
}

func timeoutError(err error) *FetchError {
	return &FetchError{Class: ErrorClassTimeout, Reason: ReasonTimeout, Err: err}
}

func graphQLError(errs []GraphQLError) *FetchError {
	reason := ReasonUnknownGraphQL
	if len(errs) > 0 && errs[0].Message != "" {
		reason = errs[0].Message
	}
	return &FetchError{Class: ErrorClassGraphQL, Reason: reason}
}

func shapeError() *FetchError {
	return &FetchError{
		Class:  ErrorClassShape,
		Reason: "Network error: " + ErrMissingSeriesState.Error(),
		Err:    ErrMissingSeriesState,
	}
}

func decodeError(err error) *FetchError {
	return &FetchError{
		Class:  ErrorClassDecode,
		Reason: fmt.Sprintf("Unexpected error: %v", err),
		Err:    err,
	}
}
