package trackbar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/jax-b/trackbar/pkg/trackbar/util"
)

// SerialIO reads slider values from a serial-connected controller board
type SerialIO struct {
	config  *CanonicalConfig
	logger  *zap.SugaredLogger
	verbose bool

	stopChannel  chan bool
	resetChannel chan bool

	// guards the connection state, which is touched by Start, Stop and the read loop
	lock        sync.Mutex
	connected   bool
	connOptions serial.OpenOptions
	conn        io.ReadWriteCloser

	// only ever used from the read loop
	parser *lineParser

	sliderMoveConsumers []chan SliderMoveEvent
}

// NewSerialIO creates a SerialIO instance that uses the provided config's
// connection info to establish communications with the controller
func NewSerialIO(config *CanonicalConfig, logger *zap.SugaredLogger, verbose bool) (*SerialIO, error) {
	logger = logger.Named("serial")

	sio := &SerialIO{
		config:              config,
		logger:              logger,
		verbose:             verbose,
		stopChannel:         make(chan bool),
		resetChannel:        make(chan bool, 1),
		connected:           false,
		conn:                nil,
		sliderMoveConsumers: []chan SliderMoveEvent{},
	}

	sio.parser = newLineParser(logger, verbose, config.InputOptions)

	logger.Debug("Created serial i/o instance")

	// respond to config changes
	sio.setupOnConfigReload()

	return sio, nil
}

// Start attempts to connect to the controller board
func (sio *SerialIO) Start() error {
	sio.lock.Lock()
	defer sio.lock.Unlock()

	// don't allow multiple concurrent connections
	if sio.connected {
		sio.logger.Warn("Already connected, can't start another without closing first")
		return errors.New("serial: connection already active")
	}

	// set minimum read size according to platform (0 for windows, 1 for linux)
	// this prevents a rare bug on windows where serial reads get congested,
	// resulting in significant lag
	minimumReadSize := 0
	if util.Linux() {
		minimumReadSize = 1
	}

	connectionInfo := sio.config.Settings().ConnectionInfo

	sio.connOptions = serial.OpenOptions{
		PortName:        connectionInfo.COMPort,
		BaudRate:        uint(connectionInfo.BaudRate),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: uint(minimumReadSize),
	}

	sio.logger.Debugw("Attempting serial connection",
		"comPort", sio.connOptions.PortName,
		"baudRate", sio.connOptions.BaudRate,
		"minReadSize", minimumReadSize)

	conn, err := serial.Open(sio.connOptions)
	if err != nil {
		sio.logger.Warnw("Failed to open serial connection", "error", err)
		return fmt.Errorf("open serial connection: %w", err)
	}

	namedLogger := sio.logger.Named(strings.ToLower(sio.connOptions.PortName))

	namedLogger.Infow("Connected", "conn", conn)
	sio.conn = conn
	sio.connected = true

	// read lines or await a stop
	go func() {
		sio.readLoop(sio.readLine(namedLogger, bufio.NewReader(conn)))
		sio.close(namedLogger, conn)
	}()

	return nil
}

// Stop signals us to shut down our serial connection, if one is active
func (sio *SerialIO) Stop() {
	sio.lock.Lock()
	connected := sio.connected
	sio.lock.Unlock()

	if connected {
		sio.logger.Debug("Shutting down serial connection")
		sio.stopChannel <- true
	} else {
		sio.logger.Debug("Not currently connected, nothing to stop")
	}
}

// SubscribeToSliderMoveEvents returns an unbuffered channel that receives
// a SliderMoveEvent struct every time a slider moves
func (sio *SerialIO) SubscribeToSliderMoveEvents() chan SliderMoveEvent {
	ch := make(chan SliderMoveEvent)
	sio.sliderMoveConsumers = append(sio.sliderMoveConsumers, ch)

	return ch
}

func (sio *SerialIO) setupOnConfigReload() {
	configReloadedChannel := sio.config.SubscribeToChanges()

	const stopDelay = 50 * time.Millisecond

	go func() {
		for range configReloadedChannel {

			// make any config reload unset our slider number so the next read line
			// emits move events for all sliders and the rebuilt slider catches up
			requestParserReset(sio.resetChannel)

			connectionInfo := sio.config.Settings().ConnectionInfo
			if !connectionInfo.Enabled {
				continue
			}

			sio.lock.Lock()
			changed := connectionInfo.COMPort != sio.connOptions.PortName ||
				uint(connectionInfo.BaudRate) != sio.connOptions.BaudRate
			sio.lock.Unlock()

			// if connection params have changed, attempt to stop and start the connection
			if changed {
				sio.logger.Info("Detected change in connection parameters, attempting to renew connection")
				sio.Stop()

				// let the connection close
				<-time.After(stopDelay)

				if err := sio.Start(); err != nil {
					sio.logger.Warnw("Failed to renew connection after parameter change", "error", err)
				} else {
					sio.logger.Debug("Renewed connection successfully")
				}
			}
		}
	}()
}

// readLoop owns the parser: lines and parser resets are handled here, one at a time, until stopped
func (sio *SerialIO) readLoop(lineChannel <-chan string) {
	for {
		select {
		case <-sio.stopChannel:
			return
		case <-sio.resetChannel:
			sio.parser.reset()
		case line := <-lineChannel:
			sio.handleLine(line)
		}
	}
}

func (sio *SerialIO) close(logger *zap.SugaredLogger, conn io.ReadWriteCloser) {
	if err := conn.Close(); err != nil {
		logger.Warnw("Failed to close serial connection", "error", err)
	} else {
		logger.Debug("Serial connection closed")
	}

	sio.lock.Lock()
	defer sio.lock.Unlock()

	sio.conn = nil
	sio.connected = false
}

func (sio *SerialIO) readLine(logger *zap.SugaredLogger, reader *bufio.Reader) chan string {
	ch := make(chan string)

	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if sio.verbose {
					logger.Warnw("Failed to read line from serial", "error", err, "line", line)
				}

				// just ignore the line, the read loop will stop after this
				return
			}

			if sio.verbose {
				logger.Debugw("Read new line", "line", line)
			}

			// deliver the line to the channel
			ch <- line
		}
	}()

	return ch
}

func (sio *SerialIO) handleLine(line string) {
	moveEvents := sio.parser.parse(line)

	// deliver move events if there are any, towards all potential consumers
	if len(moveEvents) > 0 {
		deliverMoveEvents(sio.sliderMoveConsumers, moveEvents)
	}
}
