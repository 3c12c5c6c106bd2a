package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/dkeye/watchbridge/internal/observability"
	"github.com/rs/zerolog/log"
)

const DefaultNotificationDelay = time.Second

type PendingSource interface {
	PendingNotification() (domain.PendingNotification, bool)
}

// TerminationNotifier fires the cached notification once, at teardown.
type TerminationNotifier struct {
	source PendingSource
	center core.NotificationCenter
	delay  time.Duration
	once   sync.Once
}

func NewTerminationNotifier(source PendingSource, center core.NotificationCenter, delay time.Duration) *TerminationNotifier {
	if delay <= 0 {
		delay = DefaultNotificationDelay
	}
	return &TerminationNotifier{source: source, center: center, delay: delay}
}

// OnTeardown never fails; submission errors are logged and dropped.
func (n *TerminationNotifier) OnTeardown(ctx context.Context) {
	n.once.Do(func() {
		pending, ok := n.source.PendingNotification()
		if !ok {
			log.Debug().Str("module", "app.notifier").Msg("no pending notification")
			return
		}
		req := domain.NewKillNotification(pending, n.delay)
		log.Info().Str("module", "app.notifier").Str("id", req.ID).Dur("delay", req.Delay).Msg("scheduling notification on teardown")
		if err := n.center.Add(ctx, req); err != nil {
			observability.RecordNotification(false)
			log.Error().Err(err).Str("module", "app.notifier").Msg("failed to schedule notification")
			return
		}
		observability.RecordNotification(true)
	})
}
