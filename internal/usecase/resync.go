package usecase

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/domain/port"
)

// ResyncUseCase reconciles a video's record with the files actually on
// disk after an external collaborator (manual deletion, the review tool)
// touched the images. Entries whose files vanished are dropped, duplicate
// groups and stats are recomputed, and orphaned images are reported but
// never auto-added.
type ResyncUseCase struct {
	store  port.RecordStore
	logger *zap.Logger
}

func NewResyncUseCase(store port.RecordStore, logger *zap.Logger) *ResyncUseCase {
	return &ResyncUseCase{store: store, logger: logger}
}

// ResyncResult reports what one reconciliation changed.
type ResyncResult struct {
	VideoID        string
	RemovedSlides  []string
	RemovedFlagged []string
	Orphans        []string
	Changed        bool
}

// Resync reconciles one video. A video without a record is an error:
// callers filter to recorded videos first.
func (uc *ResyncUseCase) Resync(videoID string) (*ResyncResult, error) {
	record, err := uc.store.ReadRecord(videoID)
	if err != nil {
		return nil, err
	}

	images, err := uc.store.ListSlideImages(videoID)
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]bool, len(images))
	for _, name := range images {
		onDisk[name] = true
	}

	result := &ResyncResult{VideoID: videoID}

	var keptSlides []entity.SlideRecord
	for _, s := range record.Slides {
		if onDisk[s.Filename] {
			keptSlides = append(keptSlides, s)
		} else {
			result.RemovedSlides = append(result.RemovedSlides, s.Filename)
		}
	}

	var keptFlagged []entity.SlideRecord
	for _, s := range record.Flagged {
		if onDisk[s.Filename] {
			keptFlagged = append(keptFlagged, s)
		} else {
			result.RemovedFlagged = append(result.RemovedFlagged, s.Filename)
		}
	}

	referenced := make(map[string]bool, len(keptSlides)+len(keptFlagged))
	for _, s := range keptSlides {
		referenced[s.Filename] = true
	}
	for _, s := range keptFlagged {
		referenced[s.Filename] = true
	}
	for _, name := range images {
		if !referenced[name] {
			result.Orphans = append(result.Orphans, name)
		}
	}

	result.Changed = len(result.RemovedSlides) > 0 || len(result.RemovedFlagged) > 0 || !record.MetadataSynced
	if !result.Changed {
		return result, nil
	}

	record.Slides = keptSlides
	record.Flagged = keptFlagged
	record.DeduplicationMap = regroup(keptSlides)

	// Frame and scene-change counts describe the original extraction pass
	// and survive a resync untouched.
	stats := recountStats(keptSlides, len(keptFlagged))
	stats.TotalFramesAnalyzed = record.Stats.TotalFramesAnalyzed
	stats.SceneChangesDetected = record.Stats.SceneChangesDetected
	record.Stats = stats
	record.MetadataSynced = true

	if err := uc.store.WriteRecord(record); err != nil {
		return nil, fmt.Errorf("rewrite record for %s: %w", videoID, err)
	}

	uc.logger.Info("record resynced",
		zap.String("video_id", videoID),
		zap.Int("removed", len(result.RemovedSlides)+len(result.RemovedFlagged)),
		zap.Int("orphans", len(result.Orphans)),
	)
	return result, nil
}

// regroup rebuilds duplicate groups from the stored hashes. When the old
// canonical image was deleted, the earliest surviving member is promoted
// and later members repointed at it.
func regroup(slides []entity.SlideRecord) map[string][]string {
	byHash := make(map[string][]int)
	for i, s := range slides {
		byHash[s.PerceptualHash] = append(byHash[s.PerceptualHash], i)
	}

	hashes := make([]string, 0, len(byHash))
	for hash := range byHash {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	dedupMap := make(map[string][]string)
	for _, hash := range hashes {
		idxs := byHash[hash]
		sort.Slice(idxs, func(a, b int) bool {
			return slides[idxs[a]].TimestampSeconds < slides[idxs[b]].TimestampSeconds
		})

		canonical := idxs[0]
		slides[canonical].IsDuplicateOf = nil
		if len(idxs) < 2 {
			continue
		}

		names := []string{slides[canonical].Filename}
		for _, i := range idxs[1:] {
			dup := slides[canonical].Filename
			slides[i].IsDuplicateOf = &dup
			names = append(names, slides[i].Filename)
		}
		dedupMap[hash] = names
	}
	return dedupMap
}

func recountStats(slides []entity.SlideRecord, flagged int) entity.ExtractionStats {
	duplicates := 0
	for _, s := range slides {
		if s.IsDuplicateOf != nil {
			duplicates++
		}
	}
	return entity.ExtractionStats{
		SlidesDetected: len(slides),
		UniqueSlides:   len(slides) - duplicates,
		Duplicates:     duplicates,
		Flagged:        flagged,
	}
}
