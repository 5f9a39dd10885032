package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// FileProvider reads the ingester's raw transcript files,
// data/raw/{video_id}.json. A missing file or an empty segment list is the
// explicit "no transcript" signal, not a failure.
type FileProvider struct {
	rawDir string
}

func NewFileProvider(rawDir string) *FileProvider {
	return &FileProvider{rawDir: rawDir}
}

type rawFile struct {
	Transcript struct {
		Segments []entity.TranscriptSegment `json:"segments"`
	} `json:"transcript"`
}

// Fetch returns the caption segments for a video in start order, or
// entity.ErrTranscriptUnavailable when the video has none.
func (p *FileProvider) Fetch(_ context.Context, videoID string) ([]entity.TranscriptSegment, error) {
	path := filepath.Join(p.rawDir, videoID+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, entity.ErrTranscriptUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript for %s: %w", videoID, err)
	}

	var rf rawFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse transcript for %s: %w", videoID, err)
	}
	segments := rf.Transcript.Segments
	if len(segments) == 0 {
		return nil, entity.ErrTranscriptUnavailable
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	return segments, nil
}
