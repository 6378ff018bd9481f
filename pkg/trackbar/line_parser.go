package trackbar

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jax-b/trackbar/pkg/trackbar/util"
)

// the largest raw reading a slider can report (10-bit ADC)
const maxRawSliderValue = 1023

var expectedLinePattern = regexp.MustCompile(`^\d{1,4}(\|\d{1,4})*$`)

// InputOptions controls how raw hardware readings become slider percentages
type InputOptions struct {
	Channel             int
	Invert              bool
	NoiseReductionLevel string
}

// lineParser turns pipe-separated raw readings ("123|456|1023") into move events,
// remembering the last reported value of every slider to filter out noise
type lineParser struct {
	logger  *zap.SugaredLogger
	verbose bool

	options func() InputOptions

	lastKnownNumSliders        int
	currentSliderPercentValues []float32
}

func newLineParser(logger *zap.SugaredLogger, verbose bool, options func() InputOptions) *lineParser {
	return &lineParser{
		logger:  logger,
		verbose: verbose,
		options: options,
	}
}

// reset forgets the known slider count, making the next line emit events for all sliders
func (lp *lineParser) reset() {
	lp.lastKnownNumSliders = 0
}

func (lp *lineParser) parse(line string) []SliderMoveEvent {

	// lines come in unsanitized and usually end with CRLF. they may also have garbage
	// instead of properly formatted values, so we must check for that! just ignore bad ones
	line = strings.TrimRight(line, "\r\n")
	if !expectedLinePattern.MatchString(line) {
		return nil
	}

	// split on pipe (|), this gives a slice of numerical strings between "0" and "1023"
	splitLine := strings.Split(line, "|")
	numSliders := len(splitLine)

	// update our slider count, if needed - this will send slider move events for all
	if numSliders != lp.lastKnownNumSliders {
		lp.logger.Infow("Detected sliders", "amount", numSliders)
		lp.lastKnownNumSliders = numSliders
		lp.currentSliderPercentValues = make([]float32, numSliders)

		// reset everything to be an impossible value to force the slider move event later
		for idx := range lp.currentSliderPercentValues {
			lp.currentSliderPercentValues[idx] = -1.0
		}
	}

	opts := lp.options()

	moveEvents := []SliderMoveEvent{}
	for sliderIdx, stringValue := range splitLine {

		// the pattern guarantees at most 4 digits, so this can't fail
		number, _ := strconv.Atoi(stringValue)

		// turns out the first line could come out dirty sometimes (i.e. "4558|925|41|643|220")
		// so let's check the first number for correctness just in case
		if sliderIdx == 0 && number > maxRawSliderValue {
			lp.logger.Debugw("Got malformed line, ignoring", "line", line)
			return nil
		}

		// map the value from raw to a "dirty" float between 0 and 1 (e.g. 0.15451...)
		dirtyFloat := float32(number) / maxRawSliderValue

		// normalize it to a scalar between 0.0 and 1.0 with 2 points of precision
		normalizedScalar := util.NormalizeScalar(dirtyFloat)

		if opts.Invert {
			normalizedScalar = 1 - normalizedScalar
		}

		// check if it changes the desired state (could just be a jumpy raw slider value)
		if util.SignificantlyDifferent(lp.currentSliderPercentValues[sliderIdx], normalizedScalar, opts.NoiseReductionLevel) {
			lp.currentSliderPercentValues[sliderIdx] = normalizedScalar

			moveEvents = append(moveEvents, SliderMoveEvent{
				SliderID:     sliderIdx,
				PercentValue: normalizedScalar,
			})

			if lp.verbose {
				lp.logger.Debugw("Slider moved", "event", moveEvents[len(moveEvents)-1])
			}
		}
	}

	return moveEvents
}

// requestParserReset asks a read loop to reset its parser. Pending requests
// collapse into one, so reloading never blocks on a busy or stopped loop
func requestParserReset(resetChannel chan bool) {
	select {
	case resetChannel <- true:
	default:
	}
}

// deliverMoveEvents fans move events out to every consumer
func deliverMoveEvents(consumers []chan SliderMoveEvent, moveEvents []SliderMoveEvent) {
	for _, consumer := range consumers {
		for _, moveEvent := range moveEvents {
			consumer <- moveEvent
		}
	}
}
