package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Bundler packages a video's slide images and record into one zip so the
// whole extraction can be mirrored as a single object.
type Bundler struct{}

func NewBundler() *Bundler {
	return &Bundler{}
}

// CreateBundle writes the named files into a zip at outputPath. Entries
// are stored flat under their base names, in sorted order so the same
// inputs always produce the same archive layout.
func (b *Bundler) CreateBundle(ctx context.Context, filePaths []string, outputPath string) error {
	if len(filePaths) == 0 {
		return fmt.Errorf("nothing to bundle")
	}
	ordered := append([]string(nil), filePaths...)
	sort.Strings(ordered)

	bundleFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer bundleFile.Close()

	zw := zip.NewWriter(bundleFile)
	for _, fp := range ordered {
		select {
		case <-ctx.Done():
			zw.Close()
			return ctx.Err()
		default:
		}
		if err := addEntry(zw, fp); err != nil {
			zw.Close()
			return fmt.Errorf("add %s to bundle: %w", filepath.Base(fp), err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize bundle: %w", err)
	}
	return bundleFile.Close()
}

func addEntry(zw *zip.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(filename)
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, file)
	return err
}
