package response

type Decision struct {
	Balance   string `json:"balance"`
	Reserve   string `json:"reserve"`
	Amount    string `json:"amount"`
	Submitted bool   `json:"submitted"`
}

type QueueStats struct {
	Pending   int   `json:"pending"`
	InFlight  bool  `json:"in_flight"`
	Processed int64 `json:"processed"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Aborted   int64 `json:"aborted"`
}
