package tracker

import "github.com/pkg/errors"

var (
	// ErrOutOfRange is returned when a calibration point lies outside the frame.
	ErrOutOfRange = errors.New("calibration point out of range")

	// ErrNoRegionFound is returned by Track when no connected region reaches
	// the minimal area. It is the normal outcome for frames without the object.
	ErrNoRegionFound = errors.New("no region found")

	// ErrEmptyFrame is returned when a nil frame is passed in.
	ErrEmptyFrame = errors.New("empty frame")
)
