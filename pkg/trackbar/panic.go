package trackbar

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/jax-b/trackbar/pkg/trackbar/util"
)

const (
	crashlogFilename        = "trackbar-crash-%s.log"
	crashlogTimestampFormat = "2006.01.02-15.04.05"

	crashMessage = `-----------------------------------------------------------------
                      trackbar crashlog
-----------------------------------------------------------------
Unfortunately, trackbar has crashed. This really shouldn't happen!
Please open an issue and attach this error log.
-----------------------------------------------------------------
Time: %s
Panic occurred: %s
Stack trace:
%s
-----------------------------------------------------------------
`
)

func (tb *Trackbar) recoverFromPanic() {
	r := recover()

	if r == nil {
		return
	}

	// give the terminal back first, or nobody gets to read anything below
	if tb.view != nil {
		tb.view.Shutdown()
	}

	crashlogPath, err := writeCrashlog(logDirectory, time.Now(), r, debug.Stack())
	if err != nil {
		panic(fmt.Errorf("write crashlog: %w (while handling panic: %v)", err, r))
	}

	tb.logger.Errorw("Encountered and logged panic, crashing",
		"crashlogPath", crashlogPath,
		"error", r)

	tb.notifier.Notify("Unexpected crash occurred...",
		fmt.Sprintf("More details in %s", crashlogPath))

	tb.logger.Errorw("Quitting", "exitCode", 1)
	tb.logger.Sync()
	os.Exit(1)
}

func writeCrashlog(dir string, now time.Time, r interface{}, stack []byte) (string, error) {
	if err := util.EnsureDirExists(dir); err != nil {
		return "", fmt.Errorf("ensure crashlog dir exists: %w", err)
	}

	contents := fmt.Sprintf(crashMessage, now.Format(crashlogTimestampFormat), r, stack)
	crashlogPath := filepath.Join(dir, fmt.Sprintf(crashlogFilename, now.Format(crashlogTimestampFormat)))

	if err := os.WriteFile(crashlogPath, []byte(contents), 0o644); err != nil {
		return "", fmt.Errorf("write crashlog file contents: %w", err)
	}

	return crashlogPath, nil
}
