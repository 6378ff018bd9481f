package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/jax-b/trackbar/pkg/trackbar"
)

var (
	gitCommit  string
	versionTag string
	buildType  string

	verbose        bool
	configFilepath string
)

func init() {
	flag.BoolVar(&verbose, "verbose", false, "show verbose logs (useful for debugging hardware input)")
	flag.BoolVar(&verbose, "v", false, "shorthand for --verbose")
	flag.StringVar(&configFilepath, "config", "", "path to the config file (defaults to config.yaml)")
	flag.Parse()
}

func main() {

	// a .env file may set TRACKBAR_HEADLESS and friends, but doesn't have to exist
	envErr := godotenv.Load()

	// first we need a logger
	logger, err := trackbar.NewLogger(buildType, !trackbar.Headless())
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}

	named := logger.Named("main")
	named.Debug("Created logger")

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		named.Warnw("Failed to load .env file", "error", envErr)
	}

	named.Infow("Version info",
		"gitCommit", gitCommit,
		"versionTag", versionTag,
		"buildType", buildType)

	// provide a fair warning if the user's running in verbose mode
	if verbose {
		named.Debug("Verbose flag provided, all log messages will be shown")
	}

	// create the trackbar instance
	tb, err := trackbar.NewTrackbar(logger, verbose, configFilepath)
	if err != nil {
		named.Fatalw("Failed to create trackbar object", "error", err)
	}

	// if injected by build process, set version info to show up in the logs
	if buildType != "" && (versionTag != "" || gitCommit != "") {
		identifier := gitCommit
		if versionTag != "" {
			identifier = versionTag
		}

		versionString := fmt.Sprintf("Version %s-%s", buildType, identifier)
		tb.SetVersion(versionString)
	}

	// onwards, to glory
	if err = tb.Initialize(); err != nil {
		named.Fatalw("Failed to initialize trackbar", "error", err)
	}
}
