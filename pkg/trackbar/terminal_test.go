package trackbar

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testTerminalSettings(trackWidth int) Settings {
	settings := Settings{}
	settings.Terminal.TrackWidth = trackWidth
	settings.Keys.Decrease = []string{"Left"}
	settings.Keys.Increase = []string{"Right", "l"}

	return settings
}

func newTestTerminal(t *testing.T, defaultPosition int) (*TerminalView, tcell.SimulationScreen, *Slider) {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	tv := NewTerminalView(zap.NewNop().Sugar(), screen, testTerminalSettings(11))
	require.NoError(t, tv.Init())
	t.Cleanup(tv.Shutdown)

	s, err := NewSlider(zap.NewNop().Sugar(), discreteOptions(t, 0, 10, 10, defaultPosition), tv)
	require.NoError(t, err)

	s.Subscribe(tv.ShowStatus)
	s.SetInitialPosition()

	return tv, screen, s
}

func rowText(screen tcell.SimulationScreen, row int, from int, to int) string {
	var sb strings.Builder

	for x := from; x < to; x++ {
		r, _, _, _ := screen.GetContent(x, row) //nolint:staticcheck // simulation screen readback
		sb.WriteRune(r)
	}

	return sb.String()
}

func TestTerminalView_RendersTrackAndThumb(t *testing.T) {
	_, screen, _ := newTestTerminal(t, 5)

	// track spans columns 2..12, thumb is centered on column 7
	assert.Equal(t, "====[#]----", rowText(screen, trackRow, trackLeft, trackLeft+11))
	assert.Contains(t, rowText(screen, statusRow, trackLeft, 60), "value=5 position=5 percentage=50.00%")
}

func TestTerminalView_ThumbHangsOverTrackEdges(t *testing.T) {
	_, screen, s := newTestTerminal(t, 0)

	assert.Equal(t, "[#]---------", rowText(screen, trackRow, trackLeft-1, trackLeft+11))

	s.SetProgressPosition(10)
	assert.Equal(t, " =========[#]", rowText(screen, trackRow, trackLeft-1, trackLeft+12))
}

func TestTerminalView_MouseDrag(t *testing.T) {
	tv, _, s := newTestTerminal(t, 5)

	assert.False(t, tv.HandleEvent(tcell.NewEventMouse(trackLeft+3, trackRow, tcell.Button1, tcell.ModNone), s))
	assert.True(t, s.Dragging())
	assert.True(t, s.Focused())
	assert.Equal(t, 3, s.Position())

	tv.HandleEvent(tcell.NewEventMouse(trackLeft+7, trackRow+2, tcell.Button1, tcell.ModNone), s)
	assert.Equal(t, 7, s.Position())

	tv.HandleEvent(tcell.NewEventMouse(trackLeft+7, trackRow+2, tcell.ButtonNone, tcell.ModNone), s)
	assert.False(t, s.Dragging())
	assert.Equal(t, 7, s.Position())
}

func TestTerminalView_PressOffTrackRemovesFocus(t *testing.T) {
	tv, _, s := newTestTerminal(t, 5)
	s.FocusIn()

	tv.HandleEvent(tcell.NewEventMouse(0, helpRow, tcell.Button1, tcell.ModNone), s)

	assert.False(t, s.Focused())
	assert.False(t, s.Dragging())
	assert.Equal(t, 5, s.Position())
}

func TestTerminalView_Keys(t *testing.T) {
	tv, _, s := newTestTerminal(t, 5)

	// not focused yet
	tv.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), s)
	assert.Equal(t, 5, s.Position())

	tv.HandleEvent(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), s)
	assert.True(t, s.Focused())

	tv.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), s)
	tv.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone), s)
	assert.Equal(t, 7, s.Position())

	tv.HandleEvent(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), s)
	assert.Equal(t, 6, s.Position())

	assert.True(t, tv.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), s))
}

func TestTerminalView_FocusEvents(t *testing.T) {
	tv, _, s := newTestTerminal(t, 5)

	tv.HandleEvent(tcell.NewEventFocus(true), s)
	assert.True(t, s.Focused())

	tv.HandleEvent(tcell.NewEventFocus(false), s)
	assert.False(t, s.Focused())
}

func TestTerminalView_ReconfigureKeepsSliderState(t *testing.T) {
	tv, screen, s := newTestTerminal(t, 5)
	s.FocusIn()

	settings := testTerminalSettings(21)
	settings.Keys.Increase = []string{"k"}
	tv.Reconfigure(settings, s)

	// half of a 21 cell track, thumb centered on its 11th cell
	assert.Equal(t, "=========[#]---------", rowText(screen, trackRow, trackLeft, trackLeft+21))

	tv.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone), s)
	assert.Equal(t, 6, s.Position())

	tv.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), s)
	assert.Equal(t, 6, s.Position())
}
