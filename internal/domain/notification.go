package domain

import "time"

const NotificationOnKillID = "notification on app kill"

// PendingNotification is cached until teardown.
type PendingNotification struct {
	Title string
	Body  string
}

type NotificationRequest struct {
	ID      string
	Title   string
	Body    string
	Delay   time.Duration
	Repeats bool
}

// NewKillNotification builds the one-shot request fired at teardown.
func NewKillNotification(p PendingNotification, delay time.Duration) NotificationRequest {
	return NotificationRequest{
		ID:    NotificationOnKillID,
		Title: p.Title,
		Body:  p.Body,
		Delay: delay,
	}
}
