package core

import (
	"context"

	"github.com/dkeye/watchbridge/internal/domain"
)

// NotificationCenter is the OS-level notification surface.
type NotificationCenter interface {
	// Add submits req; the request fires after req.Delay.
	Add(ctx context.Context, req domain.NotificationRequest) error
	// Drain waits for submitted requests to fire or ctx to end.
	Drain(ctx context.Context)
}
