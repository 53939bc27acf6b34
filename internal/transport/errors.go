package transport

import "errors"

// Route-loading and handoff error kinds (spec.md §7). The loading errors
// are non-fatal: the registry returns them, the caller logs and skips
// the offending entry, and startup continues for the rest.
// ErrInstancedMultiMap and ErrMapUnavailable are returned by Handoff.
var (
	ErrMissingTemplate    = errors.New("transport: no game-object template for entry")
	ErrWrongTemplateType  = errors.New("transport: template is not MO_TRANSPORT")
	ErrBadPathID          = errors.New("transport: taxiPathId out of range")
	ErrEmptyPath          = errors.New("transport: path has fewer than 2 usable nodes")
	ErrDegenerateSegment  = errors.New("transport: compiled segment has near-zero length")
	ErrInstancedMultiMap  = errors.New("transport: multi-map handoff is not supported on instanceable maps")
	ErrMapUnavailable     = errors.New("transport: map manager could not materialise the target map")
)

// Runtime error kinds that degrade gracefully rather than aborting a tick.
var (
	ErrAlreadyBoarded = errors.New("transport: passenger already boarded")
	ErrOutOfBounds    = errors.New("transport: local offset exceeds transport bounds")
	ErrTeleportRefused = errors.New("transport: destination map refused the teleport")
)
