// Package source carries per-upstream fetch outcomes through the aggregation
// pipeline so that "the source returned nothing" and "the fetch failed" stay
// distinguishable even though both degrade to an empty collection for callers.
package source

import (
	"errors"
	"fmt"
)

// ErrNotConfigured marks a source whose credentials are absent. Unlike a
// failed fetch this is fatal for the endpoints that depend on the source.
var ErrNotConfigured = errors.New("not configured")

// FetchError records a failed fetch from one named upstream.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result holds either a fetched value or the error that prevented fetching it.
type Result[T any] struct {
	Value T
	Err   *FetchError
}

// OK wraps a successful fetch.
func OK[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Fail wraps a failed fetch for the named source.
func Fail[T any](src string, err error) Result[T] {
	return Result[T]{Err: &FetchError{Source: src, Err: err}}
}

// Failed reports whether the fetch failed.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// OrZero returns the value on success and the zero value on failure.
func (r Result[T]) OrZero() T {
	if r.Err != nil {
		var zero T
		return zero
	}
	return r.Value
}
