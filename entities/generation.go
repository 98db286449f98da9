package entities

// GenerationInfo records the planned size of a generation run so status checks
// can compute completion independent of the generating process.
type GenerationInfo struct {
	TotalSegments int    `json:"total_segments"`
	StartTime     string `json:"start_time"`
}

// SegmentOutcome is the per-segment result of a generation run.
type SegmentOutcome struct {
	Order    int    `json:"order"`
	Speaker  string `json:"speaker"`
	Status   string `json:"status"`
	FilePath string `json:"file_path,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// GenerationReport aggregates one generation run. A run with failed outcomes is
// still a run; single-segment failures never abort sibling segments.
type GenerationReport struct {
	WorkID             string           `json:"work_id"`
	TotalSegments      int              `json:"total_segments"`
	SuccessfulSegments int              `json:"successful_segments"`
	FailedSegments     int              `json:"failed_segments"`
	Outcomes           []SegmentOutcome `json:"outcomes"`
	Skipped            bool             `json:"skipped"`
}
