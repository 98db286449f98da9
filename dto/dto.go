package dto

// GenerateMessage is the queue payload that triggers a generation run.
type GenerateMessage struct {
	WorkID string `json:"workId"`
	Force  bool   `json:"force"`
}

type UploadResponse struct {
	Message           string `json:"message"`
	WorkID            string `json:"work_id"`
	OriginalFilename  string `json:"original_filename"`
	ProcessedFilename string `json:"processed_filename"`
	TextPreview       string `json:"text_preview"`
}

type AnalysisResponse struct {
	Message      string `json:"message"`
	WorkID       string `json:"work_id"`
	AnalysisFile string `json:"analysis_file"`
}

type MatchResponse struct {
	Message      string `json:"message"`
	WorkID       string `json:"work_id"`
	MatchingFile string `json:"matching_file"`
}

// StatusResponse is always well-formed: on internal failure the Status field
// degrades to "error" instead of propagating a transport-level failure.
type StatusResponse struct {
	WorkID            string   `json:"work_id"`
	Status            string   `json:"status"`
	Message           string   `json:"message"`
	TotalSegments     int      `json:"total_segments"`
	GeneratedSegments int      `json:"generated_segments"`
	AudioFiles        []string `json:"audio_files"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
