package entity

import "fmt"

// VideoInfo is one catalog entry from the ingester's kb/metadata.json.
type VideoInfo struct {
	VideoID    string `json:"video_id"`
	Title      string `json:"title"`
	Channel    string `json:"channel,omitempty"`
	URL        string `json:"url"`
	Duration   int    `json:"duration,omitempty"`
	UploadDate string `json:"upload_date,omitempty"`
}

// WatchURL returns the catalog URL, or the canonical watch URL derived
// from the video ID when the catalog has none.
func (v VideoInfo) WatchURL() string {
	if v.URL != "" {
		return v.URL
	}
	return WatchURL(v.VideoID)
}

// WatchURL builds the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// TranscriptSegment is one timed caption line.
type TranscriptSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// End returns the segment's exclusive end time.
func (s TranscriptSegment) End() float64 {
	return s.Start + s.Duration
}
