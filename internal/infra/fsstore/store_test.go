package fsstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

func testRecord(videoID string) *entity.VideoExtractionRecord {
	return &entity.VideoExtractionRecord{
		VideoID:     videoID,
		Title:       "Test Video",
		URL:         entity.WatchURL(videoID),
		ExtractedAt: time.Now().UTC(),
		Stats: entity.ExtractionStats{
			SlidesDetected: 1,
			UniqueSlides:   1,
		},
		Slides: []entity.SlideRecord{{
			Filename:         "slide_0m10s_a1b2c3d4.png",
			TimestampSeconds: 10,
			PerceptualHash:   "a1b2c3d4e5f60718",
		}},
		DeduplicationMap: map[string][]string{},
	}
}

func TestWriteAndReadRecord(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())
	record := testRecord("abc123")

	require.NoError(t, store.WriteRecord(record))
	assert.True(t, store.HasRecord("abc123"))

	got, err := store.ReadRecord("abc123")
	require.NoError(t, err)
	assert.Equal(t, record.VideoID, got.VideoID)
	assert.Equal(t, record.Slides, got.Slides)
}

func TestWriteRecordRejectsBrokenStats(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())
	record := testRecord("abc123")
	record.Stats.Duplicates = 5

	err := store.WriteRecord(record)
	require.Error(t, err)
	var pe *entity.PersistenceError
	assert.ErrorAs(t, err, &pe)
	assert.False(t, store.HasRecord("abc123"))
}

func TestWriteRecordLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root, zap.NewNop())
	require.NoError(t, store.WriteRecord(testRecord("abc123")))

	entries, err := os.ReadDir(filepath.Join(root, "abc123"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "metadata.json", entries[0].Name())
}

func TestWriteRecordSupersedesExisting(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, store.WriteRecord(testRecord("abc123")))

	updated := testRecord("abc123")
	updated.Title = "Updated"
	require.NoError(t, store.WriteRecord(updated))

	got, err := store.ReadRecord("abc123")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
}

func TestReadRecordMissing(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())
	_, err := store.ReadRecord("nope")
	assert.Error(t, err)
}

func TestListRecordIDs(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root, zap.NewNop())
	require.NoError(t, store.WriteRecord(testRecord("bbb")))
	require.NoError(t, store.WriteRecord(testRecord("aaa")))

	// A directory without a record does not count.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ccc"), 0o755))

	ids, err := store.ListRecordIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "bbb"}, ids)
}

func TestListRecordIDsEmptyRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	ids, err := store.ListRecordIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSaveAndListSlideImages(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root, zap.NewNop())

	src := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(src, []byte("png-bytes"), 0o644))

	require.NoError(t, store.SaveSlide("vid", src, "slide_0m10s_aaaaaaaa.png"))
	require.NoError(t, store.SaveSlide("vid", src, "slide_0m02s_bbbbbbbb.png"))

	// Non-slide files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "vid", "notes.txt"), []byte("x"), 0o644))

	names, err := store.ListSlideImages("vid")
	require.NoError(t, err)
	assert.Equal(t, []string{"slide_0m02s_bbbbbbbb.png", "slide_0m10s_aaaaaaaa.png"}, names)

	data, err := os.ReadFile(filepath.Join(root, "vid", "slide_0m10s_aaaaaaaa.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestRemoveStaleImages(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())
	src := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	require.NoError(t, store.SaveSlide("vid", src, "slide_0m02s_aaaaaaaa.png"))
	require.NoError(t, store.SaveSlide("vid", src, "slide_0m04s_bbbbbbbb.png"))
	require.NoError(t, store.SaveSlide("vid", src, "slide_0m06s_cccccccc.png"))

	removed, err := store.RemoveStaleImages("vid", map[string]bool{
		"slide_0m02s_aaaaaaaa.png": true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	names, err := store.ListSlideImages("vid")
	require.NoError(t, err)
	assert.Equal(t, []string{"slide_0m02s_aaaaaaaa.png"}, names)
}

func TestRemoveImagesToleratesMissing(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())
	assert.NoError(t, store.RemoveImages("vid", []string{"slide_0m02s_aaaaaaaa.png"}))
}

func TestRecordJSONShape(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root, zap.NewNop())
	require.NoError(t, store.WriteRecord(testRecord("abc123")))

	data, err := os.ReadFile(filepath.Join(root, "abc123", "metadata.json"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "video_id")
	assert.Contains(t, raw, "extraction_config")
	assert.Contains(t, raw, "stats")
	assert.Contains(t, raw, "slides")
	assert.Contains(t, raw, "deduplication_map")
}
