package dto

// Import row outcomes. Every CSV row lands in exactly one bucket.
const (
	ImportOutcomeCreated = "created"
	ImportOutcomeUpdated = "updated"
	ImportOutcomeFailed  = "failed"
)

// ImportRowResult records the fate of one CSV row.
type ImportRowResult struct {
	Row     int    `json:"row"`
	Email   string `json:"email"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// ImportReport is the per-row report returned for a CSV student import.
type ImportReport struct {
	JobID     uint              `json:"job_id"`
	TotalRows int               `json:"total_rows"`
	Created   int               `json:"created"`
	Updated   int               `json:"updated"`
	Failed    int               `json:"failed"`
	Rows      []ImportRowResult `json:"rows"`
}

// HasFailures reports whether any row failed, which downgrades the response
// to 207 Multi-Status.
func (r ImportReport) HasFailures() bool {
	return r.Failed > 0
}
