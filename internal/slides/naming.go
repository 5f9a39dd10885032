package slides

import (
	"fmt"
	"regexp"
	"strconv"
)

// FormatTimestamp renders seconds in the compact minute form used in slide
// filenames, for example "15m11s".
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%dm%02ds", total/60, total%60)
}

// SlideFilename builds the canonical slide image name from a timestamp and
// a perceptual hash. The hash prefix ties the name to pixel content, so
// re-extracting the same video produces the same names.
func SlideFilename(timestamp float64, hashHex string) string {
	prefix := hashHex
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	if prefix == "" {
		prefix = "unknown"
	}
	return fmt.Sprintf("slide_%s_%s.png", FormatTimestamp(timestamp), prefix)
}

var slideNameRe = regexp.MustCompile(`^slide_(\d+)m(\d{2})s_([0-9a-f]+)\.png$`)

// ParseSlideFilename extracts the timestamp and hash prefix from a slide
// image name. ok is false for names outside the scheme.
func ParseSlideFilename(name string) (seconds int, hashPrefix string, ok bool) {
	m := slideNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	mins, _ := strconv.Atoi(m[1])
	secs, _ := strconv.Atoi(m[2])
	return mins*60 + secs, m[3], true
}

// TimestampURL builds the deep link that jumps the watch page to a slide's
// timestamp.
func TimestampURL(videoURL string, seconds int) string {
	if videoURL == "" {
		return ""
	}
	return fmt.Sprintf("%s&t=%ds", videoURL, seconds)
}
