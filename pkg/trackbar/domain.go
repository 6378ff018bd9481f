package trackbar

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jax-b/trackbar/pkg/trackbar/util"
)

// Mode selects how a slider treats its value domain
type Mode int

const (
	// ModeDiscrete snaps the slider to N+1 evenly spaced positions
	ModeDiscrete Mode = iota

	// ModeContinuous accepts any percentage, position is only derived from it
	ModeContinuous
)

// ValueMapping selects how a domain value is turned back into a percentage
type ValueMapping int

const (
	// ValueMappingLegacy maps x to x/(max-min), ignoring the lower bound
	ValueMappingLegacy ValueMapping = iota

	// ValueMappingOffset maps x to (x-min)/(max-min), the true inverse of PercentageToValue
	ValueMappingOffset
)

const (
	modeNameDiscrete   = "discrete"
	modeNameContinuous = "continuous"

	valueMappingNameLegacy = "legacy"
	valueMappingNameOffset = "offset"
)

var (
	// ErrUnknownMode is returned for any mode outside of discrete/continuous
	ErrUnknownMode = errors.New("unknown mode")

	// ErrInvalidDomain is returned when the configured bounds or step count can't form a slider
	ErrInvalidDomain = errors.New("invalid slider domain")

	// ErrUnknownValueMapping is returned for an unrecognized value mapping name
	ErrUnknownValueMapping = errors.New("unknown value mapping")
)

// ParseMode turns a configuration string into a Mode. An empty string means discrete
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", modeNameDiscrete:
		return ModeDiscrete, nil
	case modeNameContinuous:
		return ModeContinuous, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeDiscrete:
		return modeNameDiscrete
	case ModeContinuous:
		return modeNameContinuous
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseValueMapping turns a configuration string into a ValueMapping. An empty string means legacy
func ParseValueMapping(s string) (ValueMapping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", valueMappingNameLegacy:
		return ValueMappingLegacy, nil
	case valueMappingNameOffset:
		return ValueMappingOffset, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownValueMapping, s)
	}
}

func (vm ValueMapping) String() string {
	if vm == ValueMappingOffset {
		return valueMappingNameOffset
	}

	return valueMappingNameLegacy
}

// Domain is the immutable description of a slider's value range.
//
// Consider the range [min..max] divided into N pieces. A discrete slider can then
// take the N+1 values {min + 0*stepSize, min + 1*stepSize, ..., min + N*stepSize}
// where stepSize = (max-min)/N.
//
// Positions are k, percentages are p and values are x.
type Domain struct {
	Min   float64
	Max   float64
	Steps int

	Mode         Mode
	ValueMapping ValueMapping
}

// NewDomain validates the given bounds and returns a usable Domain
func NewDomain(min, max float64, steps int, mode Mode, mapping ValueMapping) (Domain, error) {
	d := Domain{
		Min:          min,
		Max:          max,
		Steps:        steps,
		Mode:         mode,
		ValueMapping: mapping,
	}

	if err := d.Validate(); err != nil {
		return Domain{}, err
	}

	return d, nil
}

// Validate reports whether the domain can back a slider
func (d Domain) Validate() error {
	if math.IsNaN(d.Min) || math.IsNaN(d.Max) || d.Max <= d.Min {
		return fmt.Errorf("%w: max (%v) must be greater than min (%v)", ErrInvalidDomain, d.Max, d.Min)
	}

	switch d.Mode {
	case ModeDiscrete:
		if d.Steps < 1 {
			return fmt.Errorf("%w: discrete mode needs at least 1 step, got %d", ErrInvalidDomain, d.Steps)
		}
	case ModeContinuous:
		if d.Steps < 0 {
			return fmt.Errorf("%w: step count can't be negative, got %d", ErrInvalidDomain, d.Steps)
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownMode, d.Mode)
	}

	if d.ValueMapping != ValueMappingLegacy && d.ValueMapping != ValueMappingOffset {
		return fmt.Errorf("%w: %d", ErrUnknownValueMapping, int(d.ValueMapping))
	}

	return nil
}

// StepSize is the distance in value between two neighboring positions
func (d Domain) StepSize() float64 {
	return (d.Max - d.Min) / float64(d.Steps)
}

// PositionToPercentage maps k to k/N
func (d Domain) PositionToPercentage(k int) float64 {
	return float64(k) / float64(d.Steps)
}

// PercentageToPosition maps p to round(p*N), rounding half away from zero
func (d Domain) PercentageToPosition(p float64) int {
	return int(math.Round(p * float64(d.Steps)))
}

// PositionToValue maps k to min + k*stepSize
func (d Domain) PositionToValue(k int) float64 {
	return d.Min + float64(k)*d.StepSize()
}

// PercentageToValue linearly scales p from [0, 1] onto [min, max]
func (d Domain) PercentageToValue(p float64) float64 {
	return d.Min + p*(d.Max-d.Min)
}

// ValueToPercentage maps x back onto [0, 1] according to the domain's value mapping
func (d Domain) ValueToPercentage(x float64) float64 {
	if d.ValueMapping == ValueMappingOffset {
		return util.Clamp01((x - d.Min) / (d.Max - d.Min))
	}

	return util.Clamp01(x / (d.Max - d.Min))
}

func (d Domain) String() string {
	return fmt.Sprintf("<%s [%v..%v] in %d steps, %s mapping>", d.Mode, d.Min, d.Max, d.Steps, d.ValueMapping)
}
