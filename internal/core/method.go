package core

type ResultStatus string

const (
	StatusOK               ResultStatus = "ok"
	StatusNotImplemented   ResultStatus = "not_implemented"
	StatusInvalidArguments ResultStatus = "invalid_arguments"
)

// MethodCall is fire-and-forget; there is no correlation id.
type MethodCall struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
}

// MethodResult is the immediate acknowledgment of an inbound call.
type MethodResult struct {
	Method string       `json:"method"`
	Status ResultStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// EventSink receives classified peer events.
type EventSink interface {
	AudioDataReceived(data []byte)
	RecordingStatus(recording bool)
	WalSyncStatus(synced bool)
}
