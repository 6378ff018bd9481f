package trackbar

import (
	"fmt"

	"go.uber.org/zap"
)

// RenderSink draws a slider's progress. Both arguments are percentages scaled to 0-100
type RenderSink interface {
	Render(fillPercent float64, thumbPercent float64)
}

// SelectionSink is implemented by render sinks that highlight the slider while it's being dragged
type SelectionSink interface {
	SetSelected(selected bool)
}

// LogSink is a headless RenderSink that only logs what would've been drawn
type LogSink struct {
	logger *zap.SugaredLogger

	lastFill  float64
	lastThumb float64
	selected  bool
}

// NewLogSink creates a LogSink
func NewLogSink(logger *zap.SugaredLogger) *LogSink {
	logger = logger.Named("render")

	ls := &LogSink{logger: logger}
	logger.Debug("Created log render sink")

	return ls
}

// Render records and logs the given fill and thumb percentages
func (ls *LogSink) Render(fillPercent float64, thumbPercent float64) {
	ls.lastFill = fillPercent
	ls.lastThumb = thumbPercent

	ls.logger.Infow("Rendering slider",
		"fill", fmt.Sprintf("%.2f%%", fillPercent),
		"thumb", fmt.Sprintf("%.2f%%", thumbPercent))
}

// SetSelected records whether the slider is currently being dragged
func (ls *LogSink) SetSelected(selected bool) {
	ls.selected = selected
	ls.logger.Debugw("Selection changed", "selected", selected)
}

// Last returns the most recently rendered fill and thumb percentages
func (ls *LogSink) Last() (float64, float64) {
	return ls.lastFill, ls.lastThumb
}
