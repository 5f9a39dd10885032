package entity

// Frame is one sampled still from a video, in playback order.
type Frame struct {
	Index     int
	Timestamp float64
	Path      string
}

// SceneChangeCandidate is a frame that landed after a sharp histogram
// shift, tagged with the distance that triggered it.
type SceneChangeCandidate struct {
	Frame Frame
	Score float64
}
