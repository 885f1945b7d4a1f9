package worker

import (
	"reflect"

	"go.uber.org/zap"
)

// EventSubscriber attaches its handlers to the event dispatcher.
type EventSubscriber interface {
	RegisterHandlers()
}

// StartNotificationWorker registers the notification and audit subscribers. Nil subscribers are
// skipped so optional ones can be passed unconditionally.
func StartNotificationWorker(logger *zap.Logger, subscribers ...EventSubscriber) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	registered := 0
	for _, sub := range subscribers {
		if isNil(sub) {
			continue
		}
		sub.RegisterHandlers()
		registered++
	}
	logger.Info("event subscribers registered", zap.Int("count", registered))
	return registered
}

func isNil(sub EventSubscriber) bool {
	if sub == nil {
		return true
	}
	v := reflect.ValueOf(sub)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
