package entity

// RejectionReason classifies why the quality filter flagged a candidate.
type RejectionReason string

const (
	RejectBlurry     RejectionReason = "blurry"
	RejectEmptyFrame RejectionReason = "empty_frame"
	RejectLowText    RejectionReason = "low_text"
	RejectFillerText RejectionReason = "filler_text"
)

// TranscriptWindow is the spoken context anchored to a slide timestamp.
// Fields stay empty when no qualifying segment exists.
type TranscriptWindow struct {
	Before string `json:"before"`
	During string `json:"during"`
	After  string `json:"after"`
}

// SlideCandidate accumulates the per-stage signals for one candidate frame
// as it moves through the pipeline.
type SlideCandidate struct {
	Frame       Frame
	SceneScore  float64
	ClipScore   float64
	OCRText     string
	BlurScore   float64
	DarkRatio   float64
	WordCount   int
	Rejected    bool
	Reason      RejectionReason
	Hash        uint64
	HashHex     string
	Filename    string
	DuplicateOf string
	Transcript  TranscriptWindow
}
