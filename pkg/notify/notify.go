package notify

import (
	"fyne.io/fyne/v2"
	"go.uber.org/zap"
)

// Sender is the slice of fyne.App the notifier needs.
type Sender interface {
	SendNotification(n *fyne.Notification)
}

// FyneNotifier posts alarm notifications through the desktop notification
// service. Every ring reposts: suppressing a repeat would silently swallow
// tomorrow's notification whenever today's was never dismissed.
type FyneNotifier struct {
	app Sender
	log *zap.Logger
}

// NewFyneNotifier wraps the Fyne app's notification service.
func NewFyneNotifier(app Sender, log *zap.Logger) *FyneNotifier {
	return &FyneNotifier{app: app, log: log}
}

// Show posts a notification for the given request code.
func (n *FyneNotifier) Show(requestCode int, title, body string) {
	n.app.SendNotification(fyne.NewNotification(title, body))
	n.log.Debug("notification shown",
		zap.Int("request_code", requestCode),
		zap.String("title", title))
}

// Hide records the dismissal. Posted desktop notifications cannot be
// retracted; the window and audio are the parts of a dismissal the app
// controls.
func (n *FyneNotifier) Hide(requestCode int) {
	n.log.Debug("notification dismissed", zap.Int("request_code", requestCode))
}
