package entity

type Status string

const (
	Success Status = "success"
	Failed  Status = "failed"
)

// ChainState is the position of one attempt chain in the retry state machine.
type ChainState string

const (
	Attempting        ChainState = "attempting"
	Succeeded         ChainState = "succeeded"
	PermanentlyFailed ChainState = "permanently_failed"
	Aborted           ChainState = "aborted" // cancelled by shutdown during a backoff or gateway call
)
