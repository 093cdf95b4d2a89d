package dftl

import "github.com/pkg/errors"

// Sentinel errors for the "Fatal" tier of spec.md section 7's error
// taxonomy: "no free line available when advancing a write pointer, CMT
// used-count exceeds capacity, invalid assertion on page/block/line
// counters. These abort the process; they indicate a bug, not an
// operational failure." They are never returned across the request-loop
// boundary -- the only thing that crosses is req.ReqLat (spec.md section
// 6) -- so the idiomatic shape for "abort the process" in Go is a panic
// carrying a wrapped error, not an error return.
var (
	ErrNoFreeLine  = errors.New("dftl: no free line available")
	ErrCMTOverflow = errors.New("dftl: cmt used-entry count exceeds capacity")
	ErrInvariant   = errors.New("dftl: invariant violated")
)

// fatal panics with err wrapped by context, matching spec.md section 7's
// Fatal tier.
func fatal(err error, format string, args ...interface{}) {
	panic(errors.Wrapf(err, format, args...))
}
