package trackbar

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/jax-b/trackbar/pkg/trackbar/util"
)

// Settings is one snapshot of trackbar's configuration. Every reload builds
// a new one, so a Settings value is safe to hold on to from any goroutine
type Settings struct {
	Slider SliderOptions

	Terminal struct {
		TrackWidth int
	}

	Keys struct {
		Decrease []string
		Increase []string
	}

	ConnectionInfo struct {
		Enabled  bool
		COMPort  string
		BaudRate int
	}

	UdpConnectionInfo struct {
		Enabled bool
		UdpPort int
	}

	Input InputOptions

	Feed struct {
		Enabled bool
		Address string
	}

	Volume struct {
		Enabled bool
	}
}

// CanonicalConfig provides application-wide access to configuration fields,
// as well as loading/file watching logic for trackbar's configuration file
type CanonicalConfig struct {
	settings Settings
	lock     sync.RWMutex

	logger             *zap.SugaredLogger
	notifier           Notifier
	stopWatcherChannel chan bool

	reloadConsumers []chan bool

	configFilepath string
	userConfig     *viper.Viper
}

const (
	defaultConfigFilepath = "config.yaml"

	configType = "yaml"

	configKeyMode            = "slider.mode"
	configKeyMin             = "slider.min"
	configKeyMax             = "slider.max"
	configKeySteps           = "slider.steps"
	configKeyDefaultPosition = "slider.default_position"
	configKeyDefaultValue    = "slider.default_value"
	configKeyValueMapping    = "slider.value_mapping"

	configKeyTrackWidth = "terminal.track_width"

	configKeyDecreaseKeys = "keys.decrease"
	configKeyIncreaseKeys = "keys.increase"

	configKeySerialEnabled = "serial.enabled"
	configKeyCOMPort       = "serial.com_port"
	configKeyBaudRate      = "serial.baud_rate"

	configKeyUdpEnabled = "udp.enabled"
	configKeyUdpPort    = "udp.port"

	configKeyInputChannel        = "input.channel"
	configKeyInvertSliders       = "input.invert"
	configKeyNoiseReductionLevel = "input.noise_reduction"

	configKeyFeedEnabled = "feed.enabled"
	configKeyFeedAddress = "feed.address"

	configKeyVolumeEnabled = "volume.enabled"

	defaultMin        = 0.0
	defaultMax        = 100.0
	defaultSteps      = 10
	defaultTrackWidth = 40
	minTrackWidth     = 4

	defaultCOMPort  = "COM4"
	defaultBaudRate = 9600
	defaultUdpPort  = 16990

	defaultFeedAddress = ":8090"
)

var (
	defaultDecreaseKeys = []string{"Left", "h"}
	defaultIncreaseKeys = []string{"Right", "l"}
)

// NewConfig creates a config instance and sets up a viper instance for the given config file.
// An empty path means config.yaml in the working directory
func NewConfig(logger *zap.SugaredLogger, notifier Notifier, configFilepath string) (*CanonicalConfig, error) {
	logger = logger.Named("config")

	if configFilepath == "" {
		configFilepath = defaultConfigFilepath
	}

	cc := &CanonicalConfig{
		logger:             logger,
		notifier:           notifier,
		reloadConsumers:    []chan bool{},
		stopWatcherChannel: make(chan bool),
		configFilepath:     configFilepath,
	}

	userConfig := viper.New()
	userConfig.SetConfigFile(configFilepath)
	userConfig.SetConfigType(configType)

	userConfig.SetDefault(configKeyMode, modeNameDiscrete)
	userConfig.SetDefault(configKeyMin, defaultMin)
	userConfig.SetDefault(configKeyMax, defaultMax)
	userConfig.SetDefault(configKeySteps, defaultSteps)
	userConfig.SetDefault(configKeyDefaultPosition, 0)
	userConfig.SetDefault(configKeyDefaultValue, 0.0)
	userConfig.SetDefault(configKeyValueMapping, valueMappingNameLegacy)
	userConfig.SetDefault(configKeyTrackWidth, defaultTrackWidth)
	userConfig.SetDefault(configKeyDecreaseKeys, defaultDecreaseKeys)
	userConfig.SetDefault(configKeyIncreaseKeys, defaultIncreaseKeys)
	userConfig.SetDefault(configKeySerialEnabled, false)
	userConfig.SetDefault(configKeyCOMPort, defaultCOMPort)
	userConfig.SetDefault(configKeyBaudRate, defaultBaudRate)
	userConfig.SetDefault(configKeyUdpEnabled, false)
	userConfig.SetDefault(configKeyUdpPort, defaultUdpPort)
	userConfig.SetDefault(configKeyInputChannel, 0)
	userConfig.SetDefault(configKeyInvertSliders, false)
	userConfig.SetDefault(configKeyFeedEnabled, false)
	userConfig.SetDefault(configKeyFeedAddress, defaultFeedAddress)
	userConfig.SetDefault(configKeyVolumeEnabled, false)

	cc.userConfig = userConfig

	logger.Debugw("Created config instance", "path", configFilepath)

	return cc, nil
}

// Load reads trackbar's config file from disk and tries to parse it
func (cc *CanonicalConfig) Load() error {
	cc.logger.Debugw("Loading config", "path", cc.configFilepath)

	// make sure it exists
	if !util.FileExists(cc.configFilepath) {
		cc.logger.Warnw("Config file not found", "path", cc.configFilepath)
		cc.notifier.Notify("Can't find configuration!",
			fmt.Sprintf("%s must be in the same directory as trackbar. Please re-launch", cc.configFilepath))

		return fmt.Errorf("config file doesn't exist: %s", cc.configFilepath)
	}

	if err := cc.userConfig.ReadInConfig(); err != nil {
		cc.logger.Warnw("Viper failed to read user config", "error", err)

		// if the error is yaml-format-related, show a sensible error. otherwise, show 'em to the logs
		if strings.Contains(err.Error(), "yaml:") {
			cc.notifier.Notify("Invalid configuration!",
				fmt.Sprintf("Please make sure %s is in a valid YAML format.", cc.configFilepath))
		} else {
			cc.notifier.Notify("Error loading configuration!", "Please check trackbar's logs for more details.")
		}

		return fmt.Errorf("read user config: %w", err)
	}

	// canonize the configuration with viper's helpers
	if err := cc.populateFromVipers(); err != nil {
		cc.logger.Warnw("Failed to populate config fields", "error", err)
		cc.notifier.Notify("Invalid slider configuration!", err.Error())

		return fmt.Errorf("populate config fields: %w", err)
	}

	settings := cc.Settings()

	cc.logger.Info("Loaded config successfully")
	cc.logger.Infow("Config values",
		"slider", settings.Slider.Domain,
		"connectionInfo", settings.ConnectionInfo,
		"udpConnectionInfo", settings.UdpConnectionInfo,
		"input", settings.Input)

	return nil
}

// Settings returns the most recently loaded configuration
func (cc *CanonicalConfig) Settings() Settings {
	cc.lock.RLock()
	defer cc.lock.RUnlock()

	return cc.settings
}

// InputOptions returns the current hardware input settings
func (cc *CanonicalConfig) InputOptions() InputOptions {
	cc.lock.RLock()
	defer cc.lock.RUnlock()

	return cc.settings.Input
}

// SubscribeToChanges allows external components to receive updates when the config is reloaded
func (cc *CanonicalConfig) SubscribeToChanges() chan bool {
	c := make(chan bool)
	cc.reloadConsumers = append(cc.reloadConsumers, c)

	return c
}

// WatchConfigFileChanges starts watching for configuration file changes
// and attempts reloading the config when they happen
func (cc *CanonicalConfig) WatchConfigFileChanges() {
	cc.logger.Debugw("Starting to watch user config file for changes", "path", cc.configFilepath)

	const (
		minTimeBetweenReloadAttempts = time.Millisecond * 500
		delayBetweenEventAndReload   = time.Millisecond * 50
	)

	lastAttemptedReload := time.Now()

	// establish watch using viper as opposed to doing it ourselves, though our internal cooldown is still required
	cc.userConfig.WatchConfig()
	cc.userConfig.OnConfigChange(func(event fsnotify.Event) {

		// when we get a write event...
		if event.Op&fsnotify.Write == fsnotify.Write {

			now := time.Now()

			// ... check if it's not a duplicate (many editors will write to a file twice)
			if lastAttemptedReload.Add(minTimeBetweenReloadAttempts).Before(now) {
				cc.logger.Debugw("Config file modified, attempting reload", "event", event)

				// wait a bit to let the editor actually flush the new file contents to disk
				<-time.After(delayBetweenEventAndReload)

				if err := cc.Load(); err != nil {
					cc.logger.Warnw("Failed to reload config file", "error", err)
				} else {
					cc.logger.Info("Reloaded config successfully")
					cc.notifier.Notify("Configuration reloaded!", "Your changes have been applied.")

					cc.onConfigReloaded()
				}

				lastAttemptedReload = now
			}
		}
	})

	// wait till they stop us
	<-cc.stopWatcherChannel
	cc.logger.Debug("Stopping user config file watcher")
	cc.userConfig.OnConfigChange(nil)
}

// StopWatchingConfigFile signals our filesystem watcher to stop
func (cc *CanonicalConfig) StopWatchingConfigFile() {
	cc.stopWatcherChannel <- true
}

// populateFromVipers only swaps in new settings once everything parsed,
// so a broken reload leaves the previous configuration in place
func (cc *CanonicalConfig) populateFromVipers() error {
	mode, err := ParseMode(cc.userConfig.GetString(configKeyMode))
	if err != nil {
		return fmt.Errorf("parse %s: %w", configKeyMode, err)
	}

	mapping, err := ParseValueMapping(cc.userConfig.GetString(configKeyValueMapping))
	if err != nil {
		return fmt.Errorf("parse %s: %w", configKeyValueMapping, err)
	}

	domain, err := NewDomain(
		cc.userConfig.GetFloat64(configKeyMin),
		cc.userConfig.GetFloat64(configKeyMax),
		cc.userConfig.GetInt(configKeySteps),
		mode,
		mapping,
	)
	if err != nil {
		return fmt.Errorf("create slider domain: %w", err)
	}

	sliderOptions := SliderOptions{
		Domain:          domain,
		DefaultPosition: cc.userConfig.GetInt(configKeyDefaultPosition),
		DefaultValue:    cc.userConfig.GetFloat64(configKeyDefaultValue),
	}

	if err := sliderOptions.Validate(); err != nil {
		return fmt.Errorf("validate slider options: %w", err)
	}

	settings := Settings{Slider: sliderOptions}

	settings.Terminal.TrackWidth = cc.userConfig.GetInt(configKeyTrackWidth)
	if settings.Terminal.TrackWidth < minTrackWidth {
		cc.logger.Warnw("Invalid track width specified, using default value",
			"key", configKeyTrackWidth,
			"invalidValue", settings.Terminal.TrackWidth,
			"defaultValue", defaultTrackWidth)

		settings.Terminal.TrackWidth = defaultTrackWidth
	}

	settings.Keys.Decrease = keyNamesFromConfig(cc.userConfig.GetStringSlice(configKeyDecreaseKeys))
	settings.Keys.Increase = keyNamesFromConfig(cc.userConfig.GetStringSlice(configKeyIncreaseKeys))

	settings.ConnectionInfo.Enabled = cc.userConfig.GetBool(configKeySerialEnabled)
	settings.ConnectionInfo.COMPort = cc.userConfig.GetString(configKeyCOMPort)

	settings.ConnectionInfo.BaudRate = cc.userConfig.GetInt(configKeyBaudRate)
	if settings.ConnectionInfo.BaudRate <= 0 {
		cc.logger.Warnw("Invalid baud rate specified, using default value",
			"key", configKeyBaudRate,
			"invalidValue", settings.ConnectionInfo.BaudRate,
			"defaultValue", defaultBaudRate)

		settings.ConnectionInfo.BaudRate = defaultBaudRate
	}

	settings.UdpConnectionInfo.Enabled = cc.userConfig.GetBool(configKeyUdpEnabled)
	settings.UdpConnectionInfo.UdpPort = cc.userConfig.GetInt(configKeyUdpPort)

	settings.Input.Channel = cc.userConfig.GetInt(configKeyInputChannel)
	settings.Input.Invert = cc.userConfig.GetBool(configKeyInvertSliders)
	settings.Input.NoiseReductionLevel = cc.userConfig.GetString(configKeyNoiseReductionLevel)

	settings.Feed.Enabled = cc.userConfig.GetBool(configKeyFeedEnabled)
	settings.Feed.Address = cc.userConfig.GetString(configKeyFeedAddress)

	settings.Volume.Enabled = cc.userConfig.GetBool(configKeyVolumeEnabled)

	cc.lock.Lock()
	cc.settings = settings
	cc.lock.Unlock()

	cc.logger.Debug("Populated config fields from vipers")

	return nil
}

func (cc *CanonicalConfig) onConfigReloaded() {
	cc.logger.Debug("Notifying consumers about configuration reload")

	for _, consumer := range cc.reloadConsumers {
		consumer <- true
	}
}

// keyNamesFromConfig drops empty and duplicate key names, keeping their order
func keyNamesFromConfig(names []string) []string {
	result := []string{}

	for _, name := range funk.FilterString(names, func(s string) bool {
		return strings.TrimSpace(s) != ""
	}) {
		name = strings.TrimSpace(name)
		if !funk.ContainsString(result, name) {
			result = append(result, name)
		}
	}

	return result
}
