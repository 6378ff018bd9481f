package trackbar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Fraction(t *testing.T) {
	track := Track{Left: 10, Width: 100}

	assert.Equal(t, 0.0, track.Fraction(0))
	assert.Equal(t, 0.0, track.Fraction(10))
	assert.Equal(t, 0.3, track.Fraction(40))
	assert.Equal(t, 1.0, track.Fraction(110))
	assert.Equal(t, 1.0, track.Fraction(500))
}

func TestSlider_DragContinuous(t *testing.T) {
	s, sink, notifications := newTestSlider(t, continuousOptions(t, 0, 1, 100, ValueMappingLegacy, 0))
	track := Track{Left: 0, Width: 200}

	s.PointerDown(60, track)
	assert.True(t, s.Dragging())
	assert.InDelta(t, 0.3, s.Percentage(), 1e-9)

	s.PointerMove(80, track)
	assert.InDelta(t, 0.4, s.Percentage(), 1e-9)

	// movement is relative to where the drag started, and clamped
	s.PointerMove(-500, track)
	assert.Equal(t, 0.0, s.Percentage())

	s.PointerMove(1000, track)
	assert.Equal(t, 1.0, s.Percentage())

	s.PointerUp()
	assert.False(t, s.Dragging())

	// moves after the drag ended are ignored
	s.PointerMove(0, track)
	assert.Equal(t, 1.0, s.Percentage())

	assert.Len(t, *notifications, 5)
	assert.Equal(t, []bool{true, false}, sink.selections)
}

func TestSlider_DragDiscreteSnaps(t *testing.T) {
	s, _, _ := newTestSlider(t, discreteOptions(t, 0, 10, 10, 0))
	track := Track{Left: 100, Width: 100}

	s.PointerDown(131, track)
	assert.Equal(t, 3, s.Position())
	assert.Equal(t, 0.3, s.Percentage())

	// the drag reference is the snapped percentage, not the raw pointer fraction
	s.PointerMove(141, track)
	assert.Equal(t, 4, s.Position())

	s.PointerMove(500, track)
	assert.Equal(t, 10, s.Position())
	assert.Equal(t, 10.0, s.Value())
}

func TestSlider_PointerUpIsIdempotent(t *testing.T) {
	s, sink, _ := newTestSlider(t, discreteOptions(t, 0, 10, 10, 0))

	s.PointerUp()
	s.PointerUp()

	assert.False(t, s.Dragging())
	assert.Empty(t, sink.selections)
}

func TestSlider_PointerOnEmptyTrackIsIgnored(t *testing.T) {
	s, sink, notifications := newTestSlider(t, discreteOptions(t, 0, 10, 10, 5))

	s.PointerDown(10, Track{Left: 0, Width: 0})

	assert.False(t, s.Dragging())
	assert.Len(t, *notifications, 1)
	assert.Len(t, sink.renders, 1)
}

func TestSlider_KeyboardRequiresFocus(t *testing.T) {
	s, _, notifications := newTestSlider(t, discreteOptions(t, 0, 10, 10, 5))

	s.KeyDown(KeyIncrease)
	assert.Equal(t, 5, s.Position())

	s.FocusIn()
	assert.True(t, s.Focused())

	s.KeyDown(KeyIncrease)
	assert.Equal(t, 6, s.Position())

	s.KeyDown(KeyDecrease)
	s.KeyDown(KeyDecrease)
	assert.Equal(t, 4, s.Position())

	s.KeyDown(KeyNone)
	assert.Equal(t, 4, s.Position())

	s.FocusOut()
	s.KeyDown(KeyDecrease)
	assert.Equal(t, 4, s.Position())

	assert.Len(t, *notifications, 4)
}

func TestSlider_KeyboardClampsAtEdges(t *testing.T) {
	low, _, lowNotifications := newTestSlider(t, discreteOptions(t, 0, 10, 10, 0))
	low.FocusIn()
	low.KeyDown(KeyDecrease)

	assert.Equal(t, 0, low.Position())
	assert.Len(t, *lowNotifications, 1)

	high, _, highNotifications := newTestSlider(t, discreteOptions(t, 0, 10, 10, 10))
	high.FocusIn()
	high.KeyDown(KeyIncrease)

	assert.Equal(t, 10, high.Position())
	assert.Len(t, *highNotifications, 1)
}

func TestSlider_KeyboardInContinuousModeStepsPosition(t *testing.T) {
	s, _, _ := newTestSlider(t, continuousOptions(t, 0, 1, 10, ValueMappingLegacy, 0.42))
	s.FocusIn()

	assert.Equal(t, 4, s.Position())

	s.KeyDown(KeyIncrease)
	assert.Equal(t, 5, s.Position())
	assert.Equal(t, 0.5, s.Percentage())
}

func TestSlider_Step(t *testing.T) {
	s, _, _ := newTestSlider(t, discreteOptions(t, 0, 4, 4, 3))

	s.Step(1)
	s.Step(1)
	assert.Equal(t, 4, s.Position())

	s.Step(-3)
	assert.Equal(t, 3, s.Position())

	s.Step(0)
	assert.Equal(t, 3, s.Position())
}
