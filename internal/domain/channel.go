package domain

type ChannelName string

// Channel identifiers and method names are wire contract.
const (
	NotifyOnKillChannel ChannelName = "com.friend.ios/notifyOnKill"
	WatchChannel        ChannelName = "com.friend.watch"
)

// Known reports whether name is one of the bridge's channels.
func (name ChannelName) Known() bool {
	return name == NotifyOnKillChannel || name == WatchChannel
}

const (
	MethodSetNotificationOnKill = "setNotificationOnKillService"
	MethodAudioDataReceived     = "audioDataReceived"
	MethodRecordingStatus       = "recordingStatus"
	MethodWalSyncStatus         = "walSyncStatus"
)
