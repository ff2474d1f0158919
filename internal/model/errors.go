package model

import "fmt"

// ParseError reports malformed parameter text. It is recoverable: the engine
// surfaces it verbatim with the offending parameter name and computes nothing.
type ParseError struct {
	Param  string
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("parameter %q: cannot parse %q: %s", e.Param, e.Input, e.Reason)
}

// ExpansionError reports that the requested parameter grid exceeds the
// configured safety ceiling. Recoverable; nothing is computed.
type ExpansionError struct {
	Size    int
	Ceiling int
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("design space has %d points, exceeding the ceiling of %d", e.Size, e.Ceiling)
}

// InstantiationError reports that a designer could not build a concrete design
// from one point's parameter assignment. It is captured per point and never
// aborts the batch.
type InstantiationError struct {
	Point string
	Cause error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("cannot instantiate design at %s: %v", e.Point, e.Cause)
}

func (e *InstantiationError) Unwrap() error { return e.Cause }

// StoreError reports a cache persistence failure. The computed result is still
// returned to the caller; the entry is simply not memoized.
type StoreError struct {
	Key   CacheKey
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cannot persist cache entry %s: %v", e.Key, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }
