package notify

import (
	"fmt"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/rs/zerolog/log"
)

// NewCenter picks the notification surface once, at construction.
// backend is "dbus", "log" or "auto" (dbus when available, else log).
func NewCenter(backend, appName string) (core.NotificationCenter, error) {
	switch backend {
	case "log":
		return NewLogCenter(), nil
	case "dbus":
		c, err := ProbeDBus(appName)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "auto", "":
		c, err := ProbeDBus(appName)
		if err != nil {
			log.Warn().Err(err).Str("module", "notify").Msg("desktop notifications unsupported, using log")
			return NewLogCenter(), nil
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown notification backend %q", backend)
	}
}
