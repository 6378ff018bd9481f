package trackbar

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrDefaultPositionOutOfRange is returned when a discrete slider's default position lies outside [0, N]
var ErrDefaultPositionOutOfRange = errors.New("default position out of range")

// Subscriber receives every change of a slider's selection, in subscription order
type Subscriber func(value float64, position int, percentage float64)

// SliderOptions configures a new Slider. Discrete sliders start at DefaultPosition,
// continuous ones at DefaultValue - the other field is ignored
type SliderOptions struct {
	Domain Domain

	DefaultPosition int
	DefaultValue    float64

	// log every state change, not just setup
	Verbose bool
}

// Validate reports whether a slider can be built from these options
func (opts SliderOptions) Validate() error {
	if err := opts.Domain.Validate(); err != nil {
		return err
	}

	if opts.Domain.Mode == ModeDiscrete &&
		(opts.DefaultPosition < 0 || opts.DefaultPosition > opts.Domain.Steps) {

		return fmt.Errorf("%w: %d not in [0, %d]", ErrDefaultPositionOutOfRange,
			opts.DefaultPosition, opts.Domain.Steps)
	}

	return nil
}

// dragReference is the pointer coordinate and percentage captured when a drag starts
type dragReference struct {
	pointerX   float64
	percentage float64
}

// Slider owns the selection state of a single slider and keeps its
// position and percentage coordinates consistent as input arrives.
// It is not safe for concurrent use: all calls are expected to come from one event loop
type Slider struct {
	logger *zap.SugaredLogger

	domain          Domain
	defaultPosition int
	defaultValue    float64
	verbose         bool

	sink RenderSink

	currentPosition    int
	progressPercentage float64

	dragging bool
	focused  bool
	dragRef  *dragReference

	subscribers []Subscriber
}

// NewSlider validates the given options and creates a Slider drawing to sink.
// The slider has no selection until SetInitialPosition is called
func NewSlider(logger *zap.SugaredLogger, opts SliderOptions, sink RenderSink) (*Slider, error) {
	logger = logger.Named("slider")

	if err := opts.Validate(); err != nil {
		logger.Warnw("Invalid slider options", "domain", opts.Domain, "error", err)
		return nil, fmt.Errorf("validate slider options: %w", err)
	}

	if sink == nil {
		sink = NewLogSink(logger)
	}

	s := &Slider{
		logger:          logger,
		domain:          opts.Domain,
		defaultPosition: opts.DefaultPosition,
		defaultValue:    opts.DefaultValue,
		verbose:         opts.Verbose,
		sink:            sink,
		subscribers:     []Subscriber{},
	}

	logger.Debugw("Created slider instance", "domain", s.domain)

	return s, nil
}

// SetInitialPosition derives the starting selection from the configured default,
// draws it and hands the initial value to every subscriber
func (s *Slider) SetInitialPosition() {
	switch s.domain.Mode {
	case ModeDiscrete:
		s.currentPosition = s.defaultPosition
		s.progressPercentage = s.domain.PositionToPercentage(s.defaultPosition)
	case ModeContinuous:
		s.progressPercentage = s.domain.ValueToPercentage(s.defaultValue)
		s.currentPosition = s.domain.PercentageToPosition(s.progressPercentage)
	default:
		panic(fmt.Errorf("set initial position: %w: %v", ErrUnknownMode, s.domain.Mode))
	}

	s.logger.Infow("Set initial position",
		"position", s.currentPosition,
		"percentage", s.progressPercentage,
		"value", s.Value())

	s.render()
	s.notify()
}

// SetProgressPosition moves a slider to position k, which must lie in [0, N].
// Moving to the current position does nothing: no render and no notification
func (s *Slider) SetProgressPosition(k int) {
	if k == s.currentPosition {
		return
	}

	s.currentPosition = k
	s.progressPercentage = s.domain.PositionToPercentage(k)

	if s.verbose {
		s.logger.Debugw("Position changed", "position", k, "percentage", s.progressPercentage)
	}

	s.render()
	s.notify()
}

// SetProgressPercentage moves a slider to percentage p. Unlike SetProgressPosition,
// this always renders and notifies, even if p is unchanged
func (s *Slider) SetProgressPercentage(p float64) {
	s.progressPercentage = p
	s.currentPosition = s.domain.PercentageToPosition(p)

	if s.verbose {
		s.logger.Debugw("Percentage changed", "position", s.currentPosition, "percentage", p)
	}

	s.render()
	s.notify()
}

// SetProgress moves a slider to percentage p according to its mode:
// discrete sliders snap to the nearest position
func (s *Slider) SetProgress(p float64) {
	switch s.domain.Mode {
	case ModeDiscrete:
		s.SetProgressPosition(s.domain.PercentageToPosition(p))
	case ModeContinuous:
		s.SetProgressPercentage(p)
	default:
		panic(fmt.Errorf("set progress: %w: %v", ErrUnknownMode, s.domain.Mode))
	}
}

// Subscribe adds a callback that's invoked synchronously on every change
func (s *Slider) Subscribe(f Subscriber) {
	s.subscribers = append(s.subscribers, f)
}

// Value returns the domain value of the current selection
func (s *Slider) Value() float64 {
	if s.domain.Mode == ModeDiscrete {
		return s.domain.PositionToValue(s.currentPosition)
	}

	return s.domain.PercentageToValue(s.progressPercentage)
}

// Position returns the current position. In continuous mode this is derived from the percentage
func (s *Slider) Position() int {
	return s.currentPosition
}

// Percentage returns the current normalized offset along the track
func (s *Slider) Percentage() float64 {
	return s.progressPercentage
}

// Dragging returns whether a pointer drag is in progress
func (s *Slider) Dragging() bool {
	return s.dragging
}

// Focused returns whether the slider's track currently has focus
func (s *Slider) Focused() bool {
	return s.focused
}

// Domain returns the slider's value domain
func (s *Slider) Domain() Domain {
	return s.domain
}

func (s *Slider) render() {
	s.sink.Render(s.progressPercentage*100, s.progressPercentage*100)
}

func (s *Slider) notify() {
	value := s.Value()

	for _, f := range s.subscribers {
		f(value, s.currentPosition, s.progressPercentage)
	}
}
