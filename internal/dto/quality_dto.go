package dto

type QualityIssueResponse struct {
	ID          string  `json:"id"`
	Table       string  `json:"table"`
	Column      string  `json:"column"`
	IssueType   string  `json:"issue_type"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Status      string  `json:"status"`
	RecordRef   string  `json:"record_ref,omitempty"`
	FirstSeenAt string  `json:"first_seen_at"`
	LastSeenAt  string  `json:"last_seen_at"`
	ResolvedAt  *string `json:"resolved_at,omitempty"`
}

type IssueReport struct {
	RunAt      string                 `json:"run_at"`
	Open       int                    `json:"open"`
	New        int                    `json:"new"`
	Resolved   int                    `json:"resolved"`
	BySeverity map[string]int         `json:"by_severity"`
	Issues     []QualityIssueResponse `json:"issues"`
}

type QualityIssueFilter struct {
	Status   string `form:"status,default=OPEN"` // OPEN | RESOLVED | all
	Severity string `form:"severity"`
}
