package topics

const (
	// Atualizações ao vivo por aposta (live-engine -> notification-worker)
	BetLiveUpdates = "bet_live_updates"

	// DLQ
	BetLiveUpdatesDLQ = "bet_live_updates_dlq"
)
