package config

import (
	"fmt"
	"strings"
)

// Mode selects the component framework major version a build targets.
type Mode string

const (
	ModeVue2 Mode = "vue2"
	ModeVue3 Mode = "vue3"
)

// Modes returns every supported build mode.
func Modes() []Mode {
	return []Mode{ModeVue2, ModeVue3}
}

// ParseMode validates a mode token supplied on the command line.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.TrimSpace(s))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownMode, s, joinModes())
	}
	return m, nil
}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeVue2, ModeVue3:
		return true
	default:
		return false
	}
}

// Segment is the output directory segment for the mode, e.g. "v3".
// Unknown modes have no segment.
func (m Mode) Segment() string {
	switch m {
	case ModeVue2:
		return "v2"
	case ModeVue3:
		return "v3"
	default:
		return ""
	}
}

func (m Mode) String() string {
	return string(m)
}

func joinModes() string {
	names := make([]string, 0, len(Modes()))
	for _, m := range Modes() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

// Format is a bundle output module format.
type Format string

const (
	FormatES   Format = "es"
	FormatIIFE Format = "iife"
	FormatCJS  Format = "cjs"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimSpace(s))
	switch f {
	case FormatES, FormatIIFE, FormatCJS:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}
