package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// AnalysisStep identifies one pipeline stage. Progress broadcasts carry
// these codes so clients can switch on them instead of display text.
type AnalysisStep string

const (
	StepSubmittingAnnotation AnalysisStep = "submitting_annotation"
	StepAwaitingAnnotation   AnalysisStep = "awaiting_annotation"
	StepGeneratingSummary    AnalysisStep = "generating_summary"
	StepStoringArtifact      AnalysisStep = "storing_artifact"
)

// stepLabels are the human-readable counterparts sent alongside the code.
var stepLabels = map[AnalysisStep]string{
	StepSubmittingAnnotation: "Submitting footage for annotation",
	StepAwaitingAnnotation:   "Waiting for annotation results",
	StepGeneratingSummary:    "Generating scouting summary",
	StepStoringArtifact:      "Storing summary artifact",
}

// Label returns the display text for a step, or the raw code for an
// unknown one.
func (s AnalysisStep) Label() string {
	if label, ok := stepLabels[s]; ok {
		return label
	}
	return string(s)
}

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage represents a pipeline progress update
type WSProgressMessage struct {
	Type        string       `json:"type"`
	JobID       string       `json:"jobId"`
	Status      JobStatus    `json:"status"`
	CurrentStep AnalysisStep `json:"currentStep,omitempty"`
	StepLabel   string       `json:"stepLabel,omitempty"`
}

// WSCompleteMessage represents job completion
type WSCompleteMessage struct {
	Type   string      `json:"type"`
	JobID  string      `json:"jobId"`
	Result interface{} `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"jobId"`
	Error WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
