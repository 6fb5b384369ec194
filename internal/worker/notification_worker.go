package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/service"
)

const (
	minRestartDelay = time.Second
	maxRestartDelay = 30 * time.Second
)

// Subscriber is a long-running consumer, such as the realtime broker.
type Subscriber interface {
	Run(ctx context.Context) error
}

// StartNotificationWorker registers notification handlers and keeps the
// subscriber running until ctx is done. The returned channel closes once it
// has stopped.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, subscriber Subscriber, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if subscriber == nil {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		runWithRestart(ctx, subscriber, logger)
	}()
	return done
}

func runWithRestart(ctx context.Context, subscriber Subscriber, logger *zap.Logger) {
	delay := minRestartDelay
	for {
		err := subscriber.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			delay = minRestartDelay
		} else {
			logger.Warn("notification subscriber stopped; restarting", zap.Duration("delay", delay), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxRestartDelay {
			delay = maxRestartDelay
		}
	}
}
