package slides

import (
	"strings"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// AlignTranscript attaches spoken context to each candidate. With no
// segments every window stays empty.
func AlignTranscript(candidates []*entity.SlideCandidate, segments []entity.TranscriptSegment) {
	if len(segments) == 0 {
		return
	}
	for _, cand := range candidates {
		cand.Transcript = WindowAt(cand.Frame.Timestamp, segments)
	}
}

// WindowAt computes the transcript window for one timestamp: the last
// segment ending strictly before it, every segment whose interval contains
// it, and the first segment starting strictly after it. Segments must be
// in start order.
func WindowAt(t float64, segments []entity.TranscriptSegment) entity.TranscriptWindow {
	var w entity.TranscriptWindow
	var during []string
	for _, seg := range segments {
		text := cleanSegmentText(seg.Text)
		switch {
		case seg.End() < t:
			w.Before = text
		case seg.Start > t:
			if w.After == "" {
				w.After = text
			}
		default:
			during = append(during, text)
		}
	}
	w.During = strings.Join(during, " ")
	return w
}

func cleanSegmentText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
