package trackbar

import (
	"sync"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Notifier provides generic notification sending
type Notifier interface {
	Notify(title string, message string)
}

// ToastNotifier provides desktop notifications. It's called from both the run loop
// and the config watcher, so notifications are sent one at a time
type ToastNotifier struct {
	logger *zap.SugaredLogger

	toast func(title string, message string, appIcon string) error
	beep  func(freq float64, duration int) error

	lock sync.Mutex

	// used when we're on a desktop without a notification daemon
	fallback bool
}

// NewToastNotifier creates a new ToastNotifier
func NewToastNotifier(logger *zap.SugaredLogger) (*ToastNotifier, error) {
	logger = logger.Named("notifier")
	tn := &ToastNotifier{
		logger: logger,
		toast:  beeep.Notify,
		beep:   beeep.Beep,
	}

	logger.Debug("Created toast notifier instance")

	return tn, nil
}

// Notify sends a desktop notification, falling back to a terminal bell and a log line
func (tn *ToastNotifier) Notify(title string, message string) {
	tn.logger.Infow("Sending toast notification", "title", title, "message", message)

	tn.lock.Lock()
	defer tn.lock.Unlock()

	if tn.fallback {
		tn.beepOnce()
		return
	}

	if err := tn.toast(title, message, ""); err != nil {
		tn.logger.Warnw("Failed to send toast notification, falling back to beeps", "error", err)
		tn.fallback = true
		tn.beepOnce()
	}
}

func (tn *ToastNotifier) beepOnce() {
	if err := tn.beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		tn.logger.Debugw("Failed to beep", "error", err)
	}
}
