// Package overlay turns tracking results into annotated RGBA frames. It only
// reads what the tracker already computed; nothing here feeds back into
// tracking.
package overlay

import (
	"fmt"
	"strings"
)

// Mode selects what Render draws.
type Mode int

const (
	// ModeCenter marks the centroid on the color frame.
	ModeCenter Mode = iota
	// ModeMask shows the binary mask.
	ModeMask
	// ModeDilated shows the dilated mask.
	ModeDilated
	// ModeBounds draws the bounding box on the color frame.
	ModeBounds
	// ModeCenterMask marks the centroid on the dilated mask.
	ModeCenterMask
	// ModeContours draws every extracted region outline on the color frame.
	ModeContours
	// ModePath draws the accumulated centroid path on the color frame.
	ModePath
)

var modeNames = [...]string{
	ModeCenter:     "center",
	ModeMask:       "mask",
	ModeDilated:    "dilated",
	ModeBounds:     "bounds",
	ModeCenterMask: "center-mask",
	ModeContours:   "contours",
	ModePath:       "path",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a mode name to a Mode. The empty string selects ModeCenter.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeCenter, nil
	}
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return ModeCenter, fmt.Errorf("unknown overlay mode %q (available: %s)", s, strings.Join(Modes(), ", "))
}

// Modes lists the mode names in menu order.
func Modes() []string {
	out := make([]string, len(modeNames))
	copy(out, modeNames[:])
	return out
}
