package notify

import (
	"context"

	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/rs/zerolog/log"
)

// LogCenter presents notifications as log lines. It is the fallback when no
// desktop notification service is reachable.
type LogCenter struct {
	sched   scheduler
	onFired func(domain.NotificationRequest)
}

func NewLogCenter() *LogCenter {
	return &LogCenter{}
}

func (c *LogCenter) Add(ctx context.Context, req domain.NotificationRequest) error {
	if req.Repeats {
		return ErrRepeatingUnsupported
	}
	c.sched.after(req.Delay, func() {
		log.Info().Str("module", "notify.log").Str("id", req.ID).Str("title", req.Title).Str("body", req.Body).Msg("notification")
		if c.onFired != nil {
			c.onFired(req)
		}
	})
	return nil
}

func (c *LogCenter) Drain(ctx context.Context) {
	c.sched.drain(ctx)
}
