// ABOUTME: Error kinds surfaced by the session
// ABOUTME: Sentinels are wrapped with context and matched with errors.Is
package game

import "errors"

var (
	// ErrPrecondition is returned when an operation is invoked in a
	// lifecycle state that does not allow it
	ErrPrecondition = errors.New("precondition failed")

	// ErrFetch reports an unreachable song text or audio resource
	ErrFetch = errors.New("fetch failed")

	// ErrParse reports a malformed song description
	ErrParse = errors.New("parse failed")

	// ErrDecode reports audio bytes that could not be decoded
	ErrDecode = errors.New("decode failed")

	// ErrDisplay reports a display that could not be constructed
	ErrDisplay = errors.New("display failed")
)
