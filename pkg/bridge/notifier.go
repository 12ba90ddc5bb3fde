package bridge

import (
	"github.com/ai3-tools/xdm-bridge/pkg/logger"
)

// Notifier surfaces user-facing transfer notifications. Rendering is a UI
// concern; the core only emits distinct message templates.
type Notifier interface {
	// Info reports normal progress worth telling the user about
	Info(message string)
	// Warn reports failures and soft timeouts the user should act on
	Warn(message string)
}

// LogNotifier writes notifications to the service log
type LogNotifier struct {
	Logger logger.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Info(message string) {
	n.Logger.Notice("%s", message)
}

func (n *LogNotifier) Warn(message string) {
	n.Logger.Error("%s", message)
}
