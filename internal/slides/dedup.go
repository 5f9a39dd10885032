package slides

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/vision"
)

// Deduplicator labels visually identical slides by 64-bit perceptual hash.
// It detects and marks duplicates; whether they are kept or dropped is the
// caller's policy.
type Deduplicator struct {
	Distance int
}

type dedupGroup struct {
	canonical *entity.SlideCandidate
	hash      *goimagehash.ImageHash
	members   []*entity.SlideCandidate
}

// Assign hashes and names each candidate, then groups candidates whose
// hashes fall within the configured Hamming distance. Candidates must
// arrive in ascending timestamp order; the earliest member of each group
// becomes canonical and later members point at its filename. The returned
// map lists each multi-member group under its canonical hash.
func (d *Deduplicator) Assign(candidates []*entity.SlideCandidate) (map[string][]string, error) {
	var groups []*dedupGroup
	for _, cand := range candidates {
		ph, err := d.fingerprint(cand)
		if err != nil {
			return nil, err
		}

		matched := false
		for _, g := range groups {
			dist, err := ph.Distance(g.hash)
			if err != nil {
				return nil, fmt.Errorf("hash distance: %w", err)
			}
			if dist <= d.Distance {
				cand.DuplicateOf = g.canonical.Filename
				g.members = append(g.members, cand)
				matched = true
				break
			}
		}
		if !matched {
			groups = append(groups, &dedupGroup{
				canonical: cand,
				hash:      ph,
				members:   []*entity.SlideCandidate{cand},
			})
		}
	}

	dedupMap := make(map[string][]string)
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		names := make([]string, 0, len(g.members))
		for _, m := range g.members {
			names = append(names, m.Filename)
		}
		dedupMap[g.canonical.HashHex] = names
	}
	return dedupMap, nil
}

// Fingerprint hashes and names candidates without grouping them. Used for
// flagged candidates, which stay out of the duplicate analysis but still
// need stable filenames.
func (d *Deduplicator) Fingerprint(candidates []*entity.SlideCandidate) error {
	for _, cand := range candidates {
		if _, err := d.fingerprint(cand); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deduplicator) fingerprint(cand *entity.SlideCandidate) (*goimagehash.ImageHash, error) {
	img, err := loadCandidateImage(cand)
	if err != nil {
		return nil, err
	}
	ph, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("perceptual hash for frame %d: %w", cand.Frame.Index, err)
	}
	cand.Hash = ph.GetHash()
	cand.HashHex = fmt.Sprintf("%016x", cand.Hash)
	cand.Filename = SlideFilename(cand.Frame.Timestamp, cand.HashHex)
	return ph, nil
}

func loadCandidateImage(cand *entity.SlideCandidate) (image.Image, error) {
	img, err := vision.LoadImage(cand.Frame.Path)
	if err != nil {
		return nil, &entity.DecodeError{Err: err}
	}
	return img, nil
}
