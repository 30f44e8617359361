package seatsync

type ConnectionMode string

const (
	ModeUnconfirmed ConnectionMode = "unconfirmed"
	ModeLive        ConnectionMode = "live"
	ModePolling     ConnectionMode = "polling"
)

// Origin tags which source produced an update.
type Origin string

const (
	OriginLive Origin = "live"
	OriginPoll Origin = "poll"
)

type Update struct {
	Origin   Origin
	Snapshot Snapshot
}
