package analyst

import "time"

// AnalysisID identifier type
type AnalysisID string

// Analysis is a settled AI analysis kept for later retrieval.
type Analysis struct {
	ID        AnalysisID `json:"id"`
	ExploitID string     `json:"exploit_id"`
	RequestID uint64     `json:"request_id"`
	Result    string     `json:"result"`
	NoData    bool       `json:"no_data"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
