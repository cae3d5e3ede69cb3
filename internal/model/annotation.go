package model

// LabelAnnotation is a single label detected in the footage with the
// number of time segments the annotation service attributed to it.
type LabelAnnotation struct {
	Description string `json:"description"`
	Segments    int    `json:"segments"`
}

// AnnotationPayload is the flattened output of the video annotation
// service for one source video. Label order is preserved as returned
// by the service.
type AnnotationPayload struct {
	SourceURI string            `json:"sourceUri"`
	Labels    []LabelAnnotation `json:"labels"`
}
