package port

import "github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"

// RecordStore persists slide images and extraction records, one directory
// per video. WriteRecord must be atomic: readers never observe a partial
// record.
type RecordStore interface {
	HasRecord(videoID string) bool
	ReadRecord(videoID string) (*entity.VideoExtractionRecord, error)
	WriteRecord(record *entity.VideoExtractionRecord) error
	ListRecordIDs() ([]string, error)

	SaveSlide(videoID, srcPath, filename string) error
	ListSlideImages(videoID string) ([]string, error)
	RemoveImages(videoID string, names []string) error
	RemoveStaleImages(videoID string, keep map[string]bool) (int, error)

	VideoDir(videoID string) string
	VideoPath(videoID string) string
	RemoveVideo(videoID string) error
}
