package trackbar

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

const (
	trackLeft   = 2
	trackRow    = 1
	statusRow   = 3
	helpRow     = 4
	thumbGlyph  = "[#]"
	fillRune    = '='
	emptyRune   = '-'
	quitRune    = 'q'
	helpMessage = "drag the track, tab to focus, arrows to step, q to quit"
)

// TerminalView renders a slider into a terminal screen and translates the
// terminal's mouse, keyboard and focus events into slider input
type TerminalView struct {
	logger *zap.SugaredLogger
	screen tcell.Screen

	trackWidth int

	// how far the thumb is shifted left so it's centered on its percentage
	thumbShift int

	decreaseKeys []string
	increaseKeys []string

	fillPercent  float64
	thumbPercent float64
	selected     bool
	focused      bool
	status       string
}

// NewTerminalView creates a TerminalView drawing to the given screen
func NewTerminalView(logger *zap.SugaredLogger, screen tcell.Screen, settings Settings) *TerminalView {
	logger = logger.Named("terminal")

	tv := &TerminalView{
		logger:       logger,
		screen:       screen,
		trackWidth:   settings.Terminal.TrackWidth,
		thumbShift:   len(thumbGlyph) / 2,
		decreaseKeys: settings.Keys.Decrease,
		increaseKeys: settings.Keys.Increase,
	}

	logger.Debugw("Created terminal view", "trackWidth", tv.trackWidth)

	return tv
}

// Init takes over the terminal and enables mouse and focus reporting
func (tv *TerminalView) Init() error {
	if err := tv.screen.Init(); err != nil {
		tv.logger.Warnw("Failed to initialize terminal screen", "error", err)
		return fmt.Errorf("init terminal screen: %w", err)
	}

	tv.screen.EnableMouse()
	tv.screen.EnableFocus()
	tv.screen.Clear()

	tv.logger.Debug("Initialized terminal screen")

	return nil
}

// Shutdown hands the terminal back
func (tv *TerminalView) Shutdown() {
	tv.logger.Debug("Shutting down terminal screen")
	tv.screen.Fini()
}

// PollEvent waits for the next terminal event. It returns nil once the view is shut down
func (tv *TerminalView) PollEvent() tcell.Event {
	return tv.screen.PollEvent()
}

// Reconfigure picks up a new track width and key bindings after a config reload,
// then redraws the given slider
func (tv *TerminalView) Reconfigure(settings Settings, s *Slider) {
	tv.trackWidth = settings.Terminal.TrackWidth
	tv.decreaseKeys = settings.Keys.Decrease
	tv.increaseKeys = settings.Keys.Increase
	tv.selected = s.Dragging()
	tv.focused = s.Focused()
	tv.fillPercent = s.Percentage() * 100
	tv.thumbPercent = tv.fillPercent

	tv.screen.Clear()
	tv.draw()
}

// Track is the on-screen extent of the track, in cells.
// Cell i of the track stands for the percentage i/(width-1)
func (tv *TerminalView) Track() Track {
	return Track{Left: trackLeft, Width: float64(tv.trackWidth - 1)}
}

// Render draws the fill up to fillPercent and the thumb centered on thumbPercent
func (tv *TerminalView) Render(fillPercent float64, thumbPercent float64) {
	tv.fillPercent = fillPercent
	tv.thumbPercent = thumbPercent

	tv.draw()
}

// SetSelected highlights the track while it's being dragged
func (tv *TerminalView) SetSelected(selected bool) {
	tv.selected = selected

	tv.draw()
}

// ShowStatus is a Subscriber printing the slider's current selection below the track
func (tv *TerminalView) ShowStatus(value float64, position int, percentage float64) {
	tv.status = fmt.Sprintf("value=%.4g position=%d percentage=%.2f%%", value, position, percentage*100)

	tv.draw()
}

// HandleEvent applies a terminal event to the slider and reports whether the user asked to quit
func (tv *TerminalView) HandleEvent(ev tcell.Event, s *Slider) bool {
	switch e := ev.(type) {
	case *tcell.EventMouse:
		tv.handleMouse(e, s)

	case *tcell.EventKey:
		if e.Key() == tcell.KeyCtrlC || (e.Key() == tcell.KeyRune && e.Rune() == quitRune) {
			tv.logger.Info("Quit key pressed")
			return true
		}

		tv.handleKey(e, s)

	case *tcell.EventFocus:
		if e.Focused {
			s.FocusIn()
		} else {
			s.FocusOut()
		}

	case *tcell.EventResize:
		tv.screen.Sync()
	}

	tv.focused = s.Focused()
	tv.draw()

	return false
}

func (tv *TerminalView) handleMouse(e *tcell.EventMouse, s *Slider) {
	x, y := e.Position()
	track := tv.Track()

	if e.Buttons()&tcell.Button1 == 0 {
		s.PointerUp()
		return
	}

	if s.Dragging() {
		s.PointerMove(float64(x), track)
		return
	}

	// a press anywhere but the track takes focus away from it
	if !tv.onTrack(x, y) {
		s.FocusOut()
		return
	}

	s.FocusIn()
	s.PointerDown(float64(x), track)
}

func (tv *TerminalView) handleKey(e *tcell.EventKey, s *Slider) {
	if e.Key() == tcell.KeyTab || e.Key() == tcell.KeyBacktab {
		if s.Focused() {
			s.FocusOut()
		} else {
			s.FocusIn()
		}

		return
	}

	name := keyName(e)

	switch {
	case funk.ContainsString(tv.decreaseKeys, name):
		s.KeyDown(KeyDecrease)
	case funk.ContainsString(tv.increaseKeys, name):
		s.KeyDown(KeyIncrease)
	}
}

func (tv *TerminalView) onTrack(x, y int) bool {
	return y == trackRow && x >= trackLeft && x < trackLeft+tv.trackWidth
}

// thumbColumn is the leftmost cell of the thumb for the current thumb percentage
func (tv *TerminalView) thumbColumn() int {
	center := trackLeft + int(math.Round(tv.thumbPercent/100*float64(tv.trackWidth-1)))
	return center - tv.thumbShift
}

func (tv *TerminalView) draw() {
	trackStyle := tcell.StyleDefault
	if tv.focused {
		trackStyle = trackStyle.Bold(true)
	}

	fillStyle := trackStyle.Foreground(tcell.ColorGreen)
	thumbStyle := trackStyle
	if tv.selected {
		thumbStyle = thumbStyle.Reverse(true)
	}

	filledCells := int(math.Round(tv.fillPercent / 100 * float64(tv.trackWidth-1)))

	for i := 1; i <= tv.thumbShift; i++ {
		tv.screen.SetContent(trackLeft-i, trackRow, ' ', nil, tcell.StyleDefault)
		tv.screen.SetContent(trackLeft+tv.trackWidth-1+i, trackRow, ' ', nil, tcell.StyleDefault)
	}

	for i := 0; i < tv.trackWidth; i++ {
		if i <= filledCells && tv.fillPercent > 0 {
			tv.screen.SetContent(trackLeft+i, trackRow, fillRune, nil, fillStyle)
		} else {
			tv.screen.SetContent(trackLeft+i, trackRow, emptyRune, nil, trackStyle)
		}
	}

	// the thumb may hang over either end of the track, but never off the screen
	width, _ := tv.screen.Size()
	for i, r := range thumbGlyph {
		x := tv.thumbColumn() + i
		if x >= 0 && x < width {
			tv.screen.SetContent(x, trackRow, r, nil, thumbStyle)
		}
	}

	tv.drawText(statusRow, tv.status)
	tv.drawText(helpRow, helpMessage)

	tv.screen.Show()
}

func (tv *TerminalView) drawText(row int, text string) {
	width, _ := tv.screen.Size()

	col := trackLeft
	for _, r := range text {
		if col >= width {
			break
		}

		tv.screen.SetContent(col, row, r, nil, tcell.StyleDefault)
		col++
	}

	// blank out whatever a longer previous text left behind
	for ; col < width; col++ {
		tv.screen.SetContent(col, row, ' ', nil, tcell.StyleDefault)
	}
}

// keyName names a key event the way it's written in the config file, e.g. "Left" or "h"
func keyName(e *tcell.EventKey) string {
	if e.Key() == tcell.KeyRune {
		return string(e.Rune())
	}

	if name, ok := tcell.KeyNames[e.Key()]; ok {
		return name
	}

	return ""
}
