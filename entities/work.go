package entities

// WorkRecord is the metadata index entry for one uploaded work. Stage reference
// fields are filled in as the pipeline advances; a reference being set does not
// guarantee the file still exists, so stages re-verify presence on disk.
type WorkRecord struct {
	OriginalFilename           string `json:"original_filename"`
	SavedFilename              string `json:"saved_filename"`
	UploadTimestamp            string `json:"upload_timestamp"`
	SizeBytes                  int64  `json:"size_bytes"`
	CharCount                  int    `json:"char_count"`
	CharacterAnalysisFile      string `json:"character_analysis_file,omitempty"`
	CharacterAnalysisTimestamp string `json:"character_analysis_timestamp,omitempty"`
	StructureAnalysisFile      string `json:"structure_analysis_file,omitempty"`
	StructureAnalysisTimestamp string `json:"structure_analysis_timestamp,omitempty"`
	MatchingFile               string `json:"matching_file,omitempty"`
	MatchingTimestamp          string `json:"matching_timestamp,omitempty"`
}
