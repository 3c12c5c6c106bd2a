package domain

// Keys of the peer payload mapping.
const (
	KeyAudioData = "audioData"
	KeyStatus    = "status"
)

// RawMessage is a peer payload exactly as the link decoded it.
type RawMessage map[string]any

type StatusKind int

const (
	RecordingStarted StatusKind = iota
	RecordingStopped
	WalSyncComplete
)

var statusLiterals = map[StatusKind]string{
	RecordingStarted: "recording_started",
	RecordingStopped: "recording_stopped",
	WalSyncComplete:  "wal_sync_complete",
}

var statusFromLiteral = map[string]StatusKind{
	"recording_started": RecordingStarted,
	"recording_stopped": RecordingStopped,
	"wal_sync_complete": WalSyncComplete,
}

func (k StatusKind) String() string {
	if s, ok := statusLiterals[k]; ok {
		return s
	}
	return "unknown"
}

// ParseStatus matches the literal byte-for-byte.
func ParseStatus(s string) (StatusKind, bool) {
	k, ok := statusFromLiteral[s]
	return k, ok
}

// PeerMessage is one of AudioFrame, StatusEvent or Unrecognized.
type PeerMessage interface {
	peerMessage()
}

type AudioFrame struct {
	Data []byte
}

type StatusEvent struct {
	Kind StatusKind
}

type Unrecognized struct{}

func (AudioFrame) peerMessage()   {}
func (StatusEvent) peerMessage()  {}
func (Unrecognized) peerMessage() {}
