// Package trackbar provides a single range-selection slider with discrete and
// continuous value domains, driven from a terminal, hardware controllers or a
// websocket feed
package trackbar

import (
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/jax-b/trackbar/pkg/trackbar/util"
)

const (

	// when this is set to anything, trackbar won't take over the terminal
	envHeadless = "TRACKBAR_HEADLESS"
)

// Trackbar is the main entity managing access to all sub-components
type Trackbar struct {
	logger   *zap.SugaredLogger
	notifier Notifier
	config   *CanonicalConfig

	// the settings the components were last built from, only touched by the run loop
	settings Settings

	view   *TerminalView
	sink   RenderSink
	slider *Slider

	controllers []SliderController
	feed        *Feed
	volume      *VolumeTarget

	terminalEvents chan tcell.Event
	moveEvents     chan SliderMoveEvent
	reloadChannel  chan bool

	stopChannel chan bool
	done        chan struct{}

	version  string
	verbose  bool
	headless bool
}

// NewTrackbar creates a Trackbar instance reading its configuration from configFilepath
func NewTrackbar(logger *zap.SugaredLogger, verbose bool, configFilepath string) (*Trackbar, error) {
	logger = logger.Named("trackbar")

	notifier, err := NewToastNotifier(logger)
	if err != nil {
		logger.Errorw("Failed to create ToastNotifier", "error", err)
		return nil, fmt.Errorf("create new ToastNotifier: %w", err)
	}

	config, err := NewConfig(logger, notifier, configFilepath)
	if err != nil {
		logger.Errorw("Failed to create Config", "error", err)
		return nil, fmt.Errorf("create new Config: %w", err)
	}

	tb := &Trackbar{
		logger:         logger,
		notifier:       notifier,
		config:         config,
		terminalEvents: make(chan tcell.Event),
		moveEvents:     make(chan SliderMoveEvent),
		stopChannel:    make(chan bool),
		done:           make(chan struct{}),
		verbose:        verbose,
		headless:       Headless(),
	}

	// must subscribe before anyone starts watching the config file
	tb.reloadChannel = config.SubscribeToChanges()

	logger.Debug("Created trackbar instance")

	return tb, nil
}

// Headless returns whether trackbar runs without taking over the terminal
func Headless() bool {
	_, headless := os.LookupEnv(envHeadless)
	return headless
}

// SetVersion records a version string to be logged when Initialize is called
func (tb *Trackbar) SetVersion(version string) {
	tb.version = version
}

// Verbose returns a boolean indicating whether trackbar is running in verbose mode
func (tb *Trackbar) Verbose() bool {
	return tb.verbose
}

// Initialize sets up all components and runs until stopped. Configuration errors
// are returned before anything is drawn
func (tb *Trackbar) Initialize() error {
	tb.logger.Debugw("Initializing", "version", tb.version)

	// load the config for the first time
	if err := tb.config.Load(); err != nil {
		tb.logger.Errorw("Failed to load config during initialization", "error", err)
		return fmt.Errorf("load config during init: %w", err)
	}

	tb.settings = tb.config.Settings()

	if err := tb.setupSink(); err != nil {
		return err
	}

	if tb.settings.Feed.Enabled {
		tb.feed = NewFeed(tb.logger, tb.settings.Feed.Address)
	}

	if tb.settings.Volume.Enabled {
		volume, err := NewVolumeTarget(tb.logger)
		if err != nil {
			tb.logger.Warnw("Failed to create volume target, continuing without it", "error", err)
			tb.notifier.Notify("Can't reach PulseAudio!", "The slider won't control your volume this time.")
		} else {
			tb.volume = volume
		}
	}

	if err := tb.buildSlider(); err != nil {
		tb.shutdownView()
		return fmt.Errorf("build slider during init: %w", err)
	}

	if err := tb.setupControllers(); err != nil {
		tb.shutdownView()
		return fmt.Errorf("set up slider controllers: %w", err)
	}

	tb.setupInterruptHandler()

	return tb.run()
}

func (tb *Trackbar) setupSink() error {
	if tb.headless {
		tb.logger.Debugw("Running without terminal view", "reason", "envvar set")
		tb.sink = NewLogSink(tb.logger)

		return nil
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		tb.logger.Errorw("Failed to create terminal screen", "error", err)
		return fmt.Errorf("create terminal screen: %w", err)
	}

	view := NewTerminalView(tb.logger, screen, tb.settings)
	if err := view.Init(); err != nil {
		return fmt.Errorf("init terminal view: %w", err)
	}

	tb.view = view
	tb.sink = view

	return nil
}

// buildSlider creates a fresh slider from the current config and pushes its initial selection
func (tb *Trackbar) buildSlider() error {
	opts := tb.settings.Slider
	opts.Verbose = tb.verbose

	slider, err := NewSlider(tb.logger, opts, tb.sink)
	if err != nil {
		tb.logger.Errorw("Failed to create slider", "error", err)
		tb.notifier.Notify("Invalid slider configuration!", err.Error())

		return fmt.Errorf("create slider: %w", err)
	}

	if tb.view != nil {
		slider.Subscribe(tb.view.ShowStatus)
	}

	if tb.feed != nil {
		slider.Subscribe(tb.feed.Broadcast)
	}

	if tb.volume != nil {
		slider.Subscribe(tb.volume.Apply)
	}

	slider.Subscribe(func(value float64, position int, percentage float64) {
		tb.logger.Infow("Slider changed", "value", value, "position", position, "percentage", percentage)
	})

	tb.slider = slider
	slider.SetInitialPosition()

	return nil
}

func (tb *Trackbar) setupControllers() error {
	if tb.settings.ConnectionInfo.Enabled {
		serial, err := NewSerialIO(tb.config, tb.logger, tb.verbose)
		if err != nil {
			tb.logger.Errorw("Failed to create SerialIO", "error", err)
			return fmt.Errorf("create new SerialIO: %w", err)
		}

		tb.controllers = append(tb.controllers, serial)
	}

	if tb.settings.UdpConnectionInfo.Enabled {
		udp, err := NewUdpIO(tb.config, tb.logger, tb.verbose)
		if err != nil {
			tb.logger.Errorw("Failed to create UdpIO", "error", err)
			return fmt.Errorf("create new UdpIO: %w", err)
		}

		tb.controllers = append(tb.controllers, udp)
	}

	// fan every controller's events into the run loop
	for _, controller := range tb.controllers {
		go tb.forwardMoveEvents(controller.SubscribeToSliderMoveEvents())
	}

	return nil
}

func (tb *Trackbar) forwardMoveEvents(events chan SliderMoveEvent) {
	for event := range events {
		select {
		case tb.moveEvents <- event:
		case <-tb.done:
			// keep draining so the controller never blocks on us while stopping
		}
	}
}

func (tb *Trackbar) setupInterruptHandler() {
	interruptChannel := util.SetupCloseHandler()

	go func() {
		signal := <-interruptChannel
		tb.logger.Debugw("Interrupted", "signal", signal)
		tb.signalStop()
	}()
}

func (tb *Trackbar) run() error {
	defer tb.recoverFromPanic()

	tb.logger.Info("Run loop starting")

	// watch the config file for changes
	go tb.config.WatchConfigFileChanges()

	for _, controller := range tb.controllers {
		if err := controller.Start(); err != nil {
			tb.logger.Warnw("Failed to start slider controller", "error", err)
			tb.notifyControllerError(err)
		}
	}

	if tb.feed != nil {
		if err := tb.feed.Start(); err != nil {
			tb.logger.Warnw("Failed to start feed", "error", err)
			tb.notifier.Notify("Can't start the slider feed!", err.Error())
		}
	}

	var feedCommands <-chan FeedCommand
	if tb.feed != nil {
		feedCommands = tb.feed.Commands()
	}

	if tb.view != nil {
		go tb.pollTerminalEvents(tb.view)
	}

	// every input is handled to completion here, one at a time
	for {
		select {
		case <-tb.stopChannel:
			tb.logger.Debug("Stop channel signaled, terminating")
			return tb.stop()

		case ev := <-tb.terminalEvents:
			if quit := tb.view.HandleEvent(ev, tb.slider); quit {
				return tb.stop()
			}

		case event := <-tb.moveEvents:
			tb.handleSliderMoveEvent(event)

		case command := <-feedCommands:
			tb.handleFeedCommand(command)

		case <-tb.reloadChannel:
			tb.onConfigReloaded()
		}
	}
}

func (tb *Trackbar) pollTerminalEvents(view *TerminalView) {
	for {
		ev := view.PollEvent()

		// the screen was finalized
		if ev == nil {
			return
		}

		select {
		case tb.terminalEvents <- ev:
		case <-tb.done:
			return
		}
	}
}

func (tb *Trackbar) handleSliderMoveEvent(event SliderMoveEvent) {
	if event.SliderID != tb.settings.Input.Channel {
		return
	}

	if tb.verbose {
		tb.logger.Debugw("Applying hardware slider move", "event", event)
	}

	tb.slider.SetProgress(util.Clamp01(float64(event.PercentValue)))
}

func (tb *Trackbar) handleFeedCommand(command FeedCommand) {
	if tb.verbose {
		tb.logger.Debugw("Applying feed command", "command", command)
	}

	command.Apply(tb.slider)
}

// onConfigReloaded rebuilds the slider only when its options changed,
// so editing key bindings or the track width keeps the current selection
func (tb *Trackbar) onConfigReloaded() {
	previousSettings := tb.settings
	tb.settings = tb.config.Settings()

	if tb.settings.Slider != previousSettings.Slider {
		tb.logger.Debugw("Detected slider config change, rebuilding slider", "domain", tb.settings.Slider.Domain)

		previous := tb.slider
		if err := tb.buildSlider(); err != nil {
			tb.logger.Warnw("Failed to rebuild slider, keeping the previous one", "error", err)
			tb.slider = previous
			tb.settings.Slider = previousSettings.Slider
		}
	} else {
		tb.logger.Debug("Detected config reload, slider options unchanged")
	}

	if tb.view != nil {
		tb.view.Reconfigure(tb.settings, tb.slider)
	}
}

func (tb *Trackbar) notifyControllerError(err error) {

	// if the port is busy, that's because something else is connected
	if errors.Is(err, os.ErrPermission) {
		tb.notifier.Notify(fmt.Sprintf("Can't connect to %s!", tb.settings.ConnectionInfo.COMPort),
			"This serial port is busy, make sure to close any serial monitor or other trackbar instance.")

		// also notify if the COM port they gave isn't found, maybe their config is wrong
	} else if errors.Is(err, os.ErrNotExist) {
		tb.notifier.Notify(fmt.Sprintf("Can't connect to %s!", tb.settings.ConnectionInfo.COMPort),
			"This serial port doesn't exist, check your configuration and make sure it's set correctly.")
	} else {
		tb.notifier.Notify("Can't start slider input!", err.Error())
	}
}

func (tb *Trackbar) signalStop() {
	tb.logger.Debug("Signalling stop channel")
	tb.stopChannel <- true
}

func (tb *Trackbar) stop() error {
	tb.logger.Info("Stopping")

	close(tb.done)

	tb.config.StopWatchingConfigFile()

	for _, controller := range tb.controllers {
		controller.Stop()
	}

	if tb.feed != nil {
		tb.feed.Stop()
	}

	var releaseErr error
	if tb.volume != nil {
		if err := tb.volume.Release(); err != nil {
			tb.logger.Warnw("Failed to release volume target", "error", err)
			releaseErr = fmt.Errorf("release volume target: %w", err)
		}
	}

	tb.shutdownView()

	// attempt to sync on exit - this won't necessarily work but can't harm
	tb.logger.Sync()

	return releaseErr
}

func (tb *Trackbar) shutdownView() {
	if tb.view != nil {
		tb.view.Shutdown()
		tb.view = nil
	}
}
