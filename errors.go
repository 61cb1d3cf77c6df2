package frontend

import (
	"errors"

	"github.com/gogpu/frontend/backend"
)

// Context errors.
var (
	// ErrCommandBufferFull is returned by Submit when a command could not
	// be recorded during the frame. The frame was replayed without it.
	ErrCommandBufferFull = errors.New("frontend: command buffer full")

	// ErrUnknownResource is returned when an ID does not name a live
	// resource of the Context. It is the sentinel backends report for
	// unresolvable IDs.
	ErrUnknownResource = backend.ErrUnknownResource

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("frontend: context closed")
)
