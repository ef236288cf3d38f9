package formulation

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

// Mode selects how the big-M constants are computed.
type Mode int

const (
	// ModeFast uses interval propagation only.
	ModeFast Mode = iota
	// ModeStandard tightens every hidden neuron against the partial model
	// before emitting its constraints.
	ModeStandard
	// ModeOutput encodes with propagated bounds, adds the output range and
	// then re-tightens every hidden layer from the last to the first.
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeFast:
		return "fast"
	case ModeStandard:
		return "standard"
	case ModeOutput:
		return "output"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "fast", "standard" or "output".
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fast", "":
		return ModeFast, nil
	case "standard":
		return ModeStandard, nil
	case "output":
		return ModeOutput, nil
	default:
		return 0, errors.NewValidationError("mode", "unknown tightening mode", name)
	}
}

func (m Mode) valid() bool {
	switch m {
	case ModeFast, ModeStandard, ModeOutput:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, errors.NewValidationError("mode", "unknown tightening mode", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
