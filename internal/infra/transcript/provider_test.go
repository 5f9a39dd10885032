package transcript

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

func TestFetchReturnsSegmentsSorted(t *testing.T) {
	dir := t.TempDir()
	content := `{"transcript": {"segments": [
		{"start": 10.0, "duration": 5.0, "text": "second"},
		{"start": 0.0, "duration": 4.0, "text": "first"}
	]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vid.json"), []byte(content), 0o644))

	segments, err := NewFileProvider(dir).Fetch(context.Background(), "vid")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "first", segments[0].Text)
	assert.Equal(t, "second", segments[1].Text)
	assert.InDelta(t, 15.0, segments[1].End(), 1e-9)
}

func TestFetchMissingFileIsUnavailable(t *testing.T) {
	_, err := NewFileProvider(t.TempDir()).Fetch(context.Background(), "vid")
	assert.ErrorIs(t, err, entity.ErrTranscriptUnavailable)
}

func TestFetchEmptySegmentsIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vid.json"),
		[]byte(`{"transcript": {"segments": []}}`), 0o644))

	_, err := NewFileProvider(dir).Fetch(context.Background(), "vid")
	assert.ErrorIs(t, err, entity.ErrTranscriptUnavailable)
}

func TestFetchMalformedFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vid.json"), []byte("{broken"), 0o644))

	_, err := NewFileProvider(dir).Fetch(context.Background(), "vid")
	require.Error(t, err)
	assert.NotErrorIs(t, err, entity.ErrTranscriptUnavailable)
}
