package fsstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

const (
	recordName = "metadata.json"
	videoName  = "video.mp4"
)

// Store persists slide images and extraction records on the local
// filesystem, one directory per video under the slides root. Records are
// written through a temp file and renamed into place, so a reader never
// sees a partial record.
type Store struct {
	root   string
	logger *zap.Logger
}

func NewStore(root string, logger *zap.Logger) *Store {
	return &Store{root: root, logger: logger}
}

// VideoDir returns the per-video output directory.
func (s *Store) VideoDir(videoID string) string {
	return filepath.Join(s.root, videoID)
}

// VideoPath returns where the downloaded video file lives for a video.
func (s *Store) VideoPath(videoID string) string {
	return filepath.Join(s.VideoDir(videoID), videoName)
}

func (s *Store) recordPath(videoID string) string {
	return filepath.Join(s.VideoDir(videoID), recordName)
}

// HasRecord reports whether a metadata record exists for the video.
func (s *Store) HasRecord(videoID string) bool {
	_, err := os.Stat(s.recordPath(videoID))
	return err == nil
}

// ReadRecord loads the metadata record for a video.
func (s *Store) ReadRecord(videoID string) (*entity.VideoExtractionRecord, error) {
	data, err := os.ReadFile(s.recordPath(videoID))
	if err != nil {
		return nil, fmt.Errorf("read record for %s: %w", videoID, err)
	}
	record := &entity.VideoExtractionRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("parse record for %s: %w", videoID, err)
	}
	return record, nil
}

// WriteRecord validates the record and writes it atomically: marshal to a
// temp file in the same directory, sync, rename over the final name.
func (s *Store) WriteRecord(record *entity.VideoExtractionRecord) error {
	if err := record.Validate(); err != nil {
		return &entity.PersistenceError{Err: err}
	}
	dir := s.VideoDir(record.VideoID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &entity.PersistenceError{Err: fmt.Errorf("create video dir: %w", err)}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &entity.PersistenceError{Err: fmt.Errorf("marshal record: %w", err)}
	}
	if err := writeFileAtomic(s.recordPath(record.VideoID), data); err != nil {
		return &entity.PersistenceError{Err: err}
	}
	return nil
}

// ListRecordIDs returns the IDs of every video that has a record.
func (s *Store) ListRecordIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slides root: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && s.HasRecord(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveSlide copies a frame image into the video directory under its final
// slide filename.
func (s *Store) SaveSlide(videoID, srcPath, filename string) error {
	dir := s.VideoDir(videoID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &entity.PersistenceError{Err: fmt.Errorf("create video dir: %w", err)}
	}
	if err := copyFile(srcPath, filepath.Join(dir, filename)); err != nil {
		return &entity.PersistenceError{Err: fmt.Errorf("save slide %s: %w", filename, err)}
	}
	return nil
}

// ListSlideImages returns the slide image filenames present for a video,
// sorted by name.
func (s *Store) ListSlideImages(videoID string) ([]string, error) {
	entries, err := os.ReadDir(s.VideoDir(videoID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read video dir for %s: %w", videoID, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "slide_") && strings.HasSuffix(name, ".png") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// RemoveImages deletes the named slide images. Missing files are not an
// error.
func (s *Store) RemoveImages(videoID string, names []string) error {
	dir := s.VideoDir(videoID)
	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// RemoveStaleImages deletes slide images not listed in keep and returns
// how many were removed. Used after a forced re-extraction supersedes the
// record.
func (s *Store) RemoveStaleImages(videoID string, keep map[string]bool) (int, error) {
	names, err := s.ListSlideImages(videoID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		if keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(s.VideoDir(videoID), name)); err != nil {
			return removed, fmt.Errorf("remove stale %s: %w", name, err)
		}
		s.logger.Debug("stale slide removed",
			zap.String("video_id", videoID),
			zap.String("file", name),
		)
		removed++
	}
	return removed, nil
}

// RemoveVideo deletes the downloaded video file if present.
func (s *Store) RemoveVideo(videoID string) error {
	if err := os.Remove(s.VideoPath(videoID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove video file: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
