package client

import (
	"errors"
	"testing"
)

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *FetchError
		expected string
	}{
		{
			name:     "with status",
			err:      networkError(500, "500 Internal Server Error", nil),
			expected: "GRID network error (status 500): Network error: 500 Internal Server Error",
		},
		{
			name:     "without status",
			err:      timeoutError(nil),
			expected: "GRID timeout error: Request timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	err := shapeError()
	if !errors.Is(err, ErrMissingSeriesState) {
		t.Error("Expected shape error to wrap ErrMissingSeriesState")
	}

	var fe *FetchError
	wrapped := errors.Join(errors.New("outer"), err)
	if !errors.As(wrapped, &fe) {
		t.Fatal("Expected errors.As to find FetchError")
	}
	if fe.Class != ErrorClassShape {
		t.Errorf("Class = %s, want %s", fe.Class, ErrorClassShape)
	}
}

func TestGraphQLError_Reason(t *testing.T) {
	tests := []struct {
		name     string
		errs     []GraphQLError
		expected string
	}{
		{"first message", []GraphQLError{{Message: "Series not found"}, {Message: "second"}}, "Series not found"},
		{"empty message", []GraphQLError{{}}, ReasonUnknownGraphQL},
		{"empty array", nil, ReasonUnknownGraphQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := graphQLError(tt.errs).Reason; got != tt.expected {
				t.Errorf("Reason = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestReasonOf(t *testing.T) {
	if got := ReasonOf(timeoutError(nil)); got != ReasonTimeout {
		t.Errorf("ReasonOf(timeout) = %q", got)
	}
	if got := ReasonOf(errors.New("disk full")); got != "Unexpected error: disk full" {
		t.Errorf("ReasonOf(plain) = %q", got)
	}
}
