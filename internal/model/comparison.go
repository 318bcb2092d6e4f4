package model

import "time"

// ComparisonStatus tracks a comparison job through its lifecycle.
type ComparisonStatus string

const (
	ComparisonStatusPending    ComparisonStatus = "pending"
	ComparisonStatusProcessing ComparisonStatus = "processing"
	ComparisonStatusCompleted  ComparisonStatus = "completed"
	ComparisonStatusError      ComparisonStatus = "error"
)

// AnalysisType selects the comparison engine: rule-based diffing or a
// free-text pass through the Ollama model.
type AnalysisType string

const (
	AnalysisTypeDiff   AnalysisType = "diff"
	AnalysisTypeOllama AnalysisType = "ollama"
)

// ChangeType classifies a single detected difference.
type ChangeType string

const (
	ChangeTypeAdded    ChangeType = "added"
	ChangeTypeRemoved  ChangeType = "removed"
	ChangeTypeModified ChangeType = "modified"
	ChangeTypeMoved    ChangeType = "moved"
)

// ChangeLocation names the part of the document where a change was found.
type ChangeLocation string

const (
	LocationText      ChangeLocation = "text"
	LocationTable     ChangeLocation = "table"
	LocationSection   ChangeLocation = "section"
	LocationHeader    ChangeLocation = "header"
	LocationStructure ChangeLocation = "structure"
	LocationMetadata  ChangeLocation = "metadata"
)

// CompareOptions tunes the rule-based comparison pipeline.
type CompareOptions struct {
	IncludeTextChanges      bool `json:"include_text_changes"`
	IncludeTableChanges     bool `json:"include_table_changes"`
	IncludeStructureChanges bool `json:"include_structure_changes"`
	// MinChangeLength drops text changes whose combined old+new content is
	// shorter than this many runes.
	MinChangeLength int `json:"min_change_length"`
}

// DefaultCompareOptions returns the options applied when a comparison is
// created without explicit settings.
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{
		IncludeTextChanges:      true,
		IncludeTableChanges:     true,
		IncludeStructureChanges: true,
		MinChangeLength:         3,
	}
}

// ChangeSummary aggregates change counts per type for one comparison.
type ChangeSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// Comparison pairs two document revisions and carries the aggregate result
// of analysing them.
type Comparison struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	BaseDocumentID     string           `json:"base_document_id"`
	ComparedDocumentID string           `json:"compared_document_id"`
	Status             ComparisonStatus `json:"status"`
	AnalysisType       AnalysisType     `json:"analysis_type"`
	Options            CompareOptions   `json:"options"`
	Summary            ChangeSummary    `json:"summary"`
	AnalysisResult     *LLMAnalysis     `json:"analysis_result,omitempty"`
	ProcessingMS       int64            `json:"processing_ms"`
	Error              string           `json:"error,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
}

// TotalChanges returns the overall change count from the summary.
func (c *Comparison) TotalChanges() int {
	return c.Summary.Added + c.Summary.Removed + c.Summary.Modified
}

// Change is one detected difference between two revisions.
type Change struct {
	ID           string         `json:"id"`
	ComparisonID string         `json:"comparison_id"`
	Type         ChangeType     `json:"type"`
	Location     ChangeLocation `json:"location"`
	Section      string         `json:"section,omitempty"`
	OldValue     string         `json:"old_value,omitempty"`
	NewValue     string         `json:"new_value,omitempty"`
	Confidence   float64        `json:"confidence"`
	Context      map[string]any `json:"context,omitempty"`
}

// LLMAnalysis is the structured result of an Ollama comparison pass.
// When the model response cannot be parsed as JSON the Summary carries a
// fixed notice and RawAnalysis keeps the unstructured text.
type LLMAnalysis struct {
	Summary           string          `json:"summary"`
	Similarities      []string        `json:"similarities"`
	Differences       []LLMDifference `json:"differences"`
	Recommendations   []string        `json:"recommendations"`
	OverallAssessment string          `json:"overall_assessment"`
	RawAnalysis       string          `json:"raw_analysis,omitempty"`
}

// LLMDifference is one model-reported difference.
type LLMDifference struct {
	Type         string `json:"type"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	OldValue     string `json:"old_value"`
	NewValue     string `json:"new_value"`
	Significance string `json:"significance"`
}
