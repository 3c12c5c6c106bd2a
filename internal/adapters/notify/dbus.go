package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	notifyService = "org.freedesktop.Notifications"
	notifyPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod  = notifyService + ".Notify"

	callTimeout = 5 * time.Second
)

var ErrNoNotificationService = errors.New("no notification service on session bus")

// DBusCenter posts to the freedesktop notification service. Requests that
// share an ID replace each other.
type DBusCenter struct {
	conn    *dbus.Conn
	appName string
	sched   scheduler

	mu  sync.Mutex
	ids map[string]uint32
}

// ProbeDBus connects to the session bus and checks that a notification
// service owns its well-known name.
func ProbeDBus(appName string) (*DBusCenter, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	var owned bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, notifyService).Store(&owned); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("query notification service: %w", err)
	}
	if !owned {
		_ = conn.Close()
		return nil, ErrNoNotificationService
	}
	return &DBusCenter{conn: conn, appName: appName, ids: make(map[string]uint32)}, nil
}

func (c *DBusCenter) Add(ctx context.Context, req domain.NotificationRequest) error {
	if req.Repeats {
		return ErrRepeatingUnsupported
	}
	if !c.conn.Connected() {
		return fmt.Errorf("submit %q: %w", req.ID, dbus.ErrClosed)
	}
	c.sched.after(req.Delay, func() {
		if err := c.post(req); err != nil {
			log.Error().Err(err).Str("module", "notify.dbus").Str("id", req.ID).Msg("failed to show notification")
			return
		}
		log.Info().Str("module", "notify.dbus").Str("id", req.ID).Msg("notification shown")
	})
	return nil
}

func (c *DBusCenter) post(req domain.NotificationRequest) error {
	c.mu.Lock()
	replaces := c.ids[req.ID]
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	obj := c.conn.Object(notifyService, notifyPath)
	var id uint32
	err := obj.CallWithContext(ctx, notifyMethod, 0,
		c.appName, replaces, "", req.Title, req.Body,
		[]string{}, map[string]dbus.Variant{}, int32(-1),
	).Store(&id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ids[req.ID] = id
	c.mu.Unlock()
	return nil
}

func (c *DBusCenter) Drain(ctx context.Context) {
	c.sched.drain(ctx)
}

func (c *DBusCenter) Close() error {
	return c.conn.Close()
}
