package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidRadius indicates a non-positive or non-finite particle radius.
	ErrInvalidRadius = errors.New("dynamo: radius must be positive")

	// ErrInvalidScreen indicates a non-positive simulation area.
	ErrInvalidScreen = errors.New("dynamo: screen dimensions must be positive")

	// ErrRadiusTooLarge indicates a spawn radius above the grid's design radius.
	ErrRadiusTooLarge = errors.New("dynamo: radius exceeds largest particle radius")

	// ErrInvalidHandle indicates a handle that does not address a live particle.
	ErrInvalidHandle = errors.New("dynamo: invalid particle handle")

	// ErrInvalidTimestep indicates a non-positive frame or sub-step duration.
	ErrInvalidTimestep = errors.New("dynamo: timestep must be positive")

	// ErrUnknownStrategy indicates an unrecognised collision strategy name.
	ErrUnknownStrategy = errors.New("dynamo: unknown collision strategy")

	// ErrUnknownHost indicates an unrecognised kernel host name.
	ErrUnknownHost = errors.New("dynamo: unknown kernel host")

	// ErrKernelLoad indicates the collision kernel could not be loaded or compiled.
	ErrKernelLoad = errors.New("dynamo: kernel load failed")

	// ErrDispatch indicates a kernel dispatch failed.
	ErrDispatch = errors.New("dynamo: kernel dispatch failed")

	// ErrBarrierRequired indicates buffers were read back before the
	// dispatch that writes them completed.
	ErrBarrierRequired = errors.New("dynamo: read before completion barrier")
)

// FrameError wraps a failure that halted a frame.
type FrameError struct {
	Frame   int
	SubStep int
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d sub-step %d: %v", e.Frame, e.SubStep, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
