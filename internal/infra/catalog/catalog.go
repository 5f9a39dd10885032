package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// FileCatalog reads the ingester's kb/metadata.json video catalog.
type FileCatalog struct {
	path string
}

func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

type catalogFile struct {
	Videos []entity.VideoInfo `json:"videos"`
}

// List returns every catalog entry in file order.
func (c *FileCatalog) List(_ context.Context) ([]entity.VideoInfo, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", c.path, err)
	}

	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", c.path, err)
	}

	for _, v := range cf.Videos {
		if v.VideoID == "" {
			return nil, fmt.Errorf("catalog %s has an entry without video_id", c.path)
		}
	}
	return cf.Videos, nil
}

// Get returns the catalog entry for one video ID.
func (c *FileCatalog) Get(ctx context.Context, videoID string) (entity.VideoInfo, error) {
	videos, err := c.List(ctx)
	if err != nil {
		return entity.VideoInfo{}, err
	}
	for _, v := range videos {
		if v.VideoID == videoID {
			return v, nil
		}
	}
	return entity.VideoInfo{}, fmt.Errorf("video %s not in catalog", videoID)
}
