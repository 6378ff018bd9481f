package trackbar

import (
	"github.com/jax-b/trackbar/pkg/trackbar/util"
)

// Key is a platform-independent slider key
type Key int

const (
	// KeyNone is any key the slider doesn't react to
	KeyNone Key = iota
	KeyDecrease
	KeyIncrease
)

// Track is the on-screen extent of a slider's track, in the same unit as pointer coordinates
type Track struct {
	Left  float64
	Width float64
}

// Fraction returns where x falls along the track, clamped to [0, 1]
func (t Track) Fraction(x float64) float64 {
	return util.Clamp01((x - t.Left) / t.Width)
}

// PointerDown jumps to the pointer's location on the track and starts a drag from there
func (s *Slider) PointerDown(x float64, track Track) {
	if track.Width <= 0 {
		s.logger.Warnw("Ignoring pointer down on a track without width", "track", track)
		return
	}

	s.SetProgress(track.Fraction(x))

	s.dragging = true
	s.dragRef = &dragReference{
		pointerX:   x,
		percentage: s.progressPercentage,
	}

	s.setSelected(true)
}

// PointerMove updates the selection by the pointer's offset from where the drag started.
// It does nothing unless a drag is in progress
func (s *Slider) PointerMove(x float64, track Track) {
	if !s.dragging || s.dragRef == nil {
		return
	}

	if track.Width <= 0 {
		s.logger.Warnw("Ignoring pointer move on a track without width", "track", track)
		return
	}

	deltaP := (x - s.dragRef.pointerX) / track.Width
	s.SetProgress(util.Clamp01(s.dragRef.percentage + deltaP))
}

// PointerUp ends any drag in progress. It's safe to call when not dragging
func (s *Slider) PointerUp() {
	if s.dragging {
		s.setSelected(false)
	}

	s.dragging = false
	s.dragRef = nil
}

// FocusIn marks the slider's track as focused, enabling keyboard input
func (s *Slider) FocusIn() {
	s.focused = true
}

// FocusOut removes focus from the slider's track
func (s *Slider) FocusOut() {
	s.focused = false
}

// KeyDown moves a focused slider one position down or up, staying within [0, N]
func (s *Slider) KeyDown(key Key) {
	if !s.focused {
		return
	}

	switch key {
	case KeyDecrease:
		s.SetProgressPosition(max(s.currentPosition-1, 0))
	case KeyIncrease:
		s.SetProgressPosition(min(s.currentPosition+1, s.domain.Steps))
	}
}

// Step moves a slider one position down (negative delta) or up (positive delta),
// regardless of focus. Remote and hardware controls use this in place of KeyDown
func (s *Slider) Step(delta int) {
	switch {
	case delta < 0:
		s.SetProgressPosition(max(s.currentPosition-1, 0))
	case delta > 0:
		s.SetProgressPosition(min(s.currentPosition+1, s.domain.Steps))
	}
}

func (s *Slider) setSelected(selected bool) {
	if ss, ok := s.sink.(SelectionSink); ok {
		ss.SetSelected(selected)
	}
}
