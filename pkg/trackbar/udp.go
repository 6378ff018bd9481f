package trackbar

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// UdpIO reads slider values sent as UDP datagrams by a networked controller
type UdpIO struct {
	config  *CanonicalConfig
	logger  *zap.SugaredLogger
	verbose bool

	stopChannel  chan bool
	resetChannel chan bool

	// only ever used from the read loop
	parser *lineParser

	lock       sync.Mutex
	connection *net.UDPConn

	sliderMoveConsumers []chan SliderMoveEvent
}

// NewUdpIO creates a UdpIO instance that listens on the provided config's UDP port
func NewUdpIO(config *CanonicalConfig, logger *zap.SugaredLogger, verbose bool) (*UdpIO, error) {
	logger = logger.Named("udp")

	udpio := &UdpIO{
		config:              config,
		logger:              logger,
		verbose:             verbose,
		stopChannel:         make(chan bool),
		resetChannel:        make(chan bool, 1),
		sliderMoveConsumers: []chan SliderMoveEvent{},
	}

	udpio.parser = newLineParser(logger, verbose, config.InputOptions)

	logger.Debug("Created UDP i/o instance")

	// respond to config changes
	udpio.setupOnConfigReload()

	return udpio, nil
}

// Start creates a UDP listener server
func (udpio *UdpIO) Start() error {
	udpio.lock.Lock()
	defer udpio.lock.Unlock()

	if udpio.connection != nil {
		udpio.logger.Warn("Already listening, can't start another without closing first")
		return errors.New("udp: listener already active")
	}

	port := udpio.config.Settings().UdpConnectionInfo.UdpPort

	s, err := net.ResolveUDPAddr("udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		udpio.logger.Warnw("Failed to resolve UDP address", "error", err)
		return fmt.Errorf("resolve udp address: %w", err)
	}

	connection, err := net.ListenUDP("udp4", s)
	if err != nil {
		udpio.logger.Warnw("Failed to start UDP listener", "error", err)
		return fmt.Errorf("start udp listener: %w", err)
	}

	udpio.connection = connection

	namedLogger := udpio.logger.Named(connection.LocalAddr().String())
	namedLogger.Infow("Listening", "conn", connection.LocalAddr())

	// read packets or await a stop
	go func() {
		udpio.readLoop(udpio.readPacket(namedLogger, connection))
		udpio.close(namedLogger, connection)
	}()

	return nil
}

// Stop signals us to shut down our UDP listener, if one is active
func (udpio *UdpIO) Stop() {
	udpio.lock.Lock()
	listening := udpio.connection != nil
	udpio.lock.Unlock()

	if listening {
		udpio.logger.Debug("Shutting down UDP listener")
		udpio.stopChannel <- true
	} else {
		udpio.logger.Debug("Not currently listening, nothing to stop")
	}
}

// SubscribeToSliderMoveEvents returns an unbuffered channel that receives
// a SliderMoveEvent struct every time a slider moves
func (udpio *UdpIO) SubscribeToSliderMoveEvents() chan SliderMoveEvent {
	ch := make(chan SliderMoveEvent)
	udpio.sliderMoveConsumers = append(udpio.sliderMoveConsumers, ch)

	return ch
}

func (udpio *UdpIO) setupOnConfigReload() {
	configReloadedChannel := udpio.config.SubscribeToChanges()

	go func() {
		for range configReloadedChannel {
			requestParserReset(udpio.resetChannel)
		}
	}()
}

// readLoop owns the parser: packets and parser resets are handled here, one at a time, until stopped
func (udpio *UdpIO) readLoop(packetChannel <-chan string) {
	for {
		select {
		case <-udpio.stopChannel:
			return
		case <-udpio.resetChannel:
			udpio.parser.reset()
		case packet := <-packetChannel:
			udpio.handlePacket(packet)
		}
	}
}

func (udpio *UdpIO) readPacket(logger *zap.SugaredLogger, connection *net.UDPConn) chan string {
	packetChannel := make(chan string)

	go func() {
		for {
			packet := make([]byte, 4096)
			bytesRead, _, err := connection.ReadFromUDP(packet)
			if err != nil {
				if udpio.verbose {
					logger.Warnw("Failed to read UDP packet", "error", err)
				}

				return
			}

			stringData := string(packet[:bytesRead])

			if udpio.verbose {
				logger.Debugw("Read new packet", "packet", stringData)
			}

			packetChannel <- stringData
		}
	}()

	return packetChannel
}

func (udpio *UdpIO) close(logger *zap.SugaredLogger, connection *net.UDPConn) {
	if err := connection.Close(); err != nil {
		logger.Warnw("Failed to close UDP connection", "error", err)
	} else {
		logger.Debug("UDP connection closed")
	}

	udpio.lock.Lock()
	defer udpio.lock.Unlock()

	udpio.connection = nil
}

func (udpio *UdpIO) handlePacket(packet string) {
	moveEvents := udpio.parser.parse(packet)

	if len(moveEvents) > 0 {
		deliverMoveEvents(udpio.sliderMoveConsumers, moveEvents)
	}
}
