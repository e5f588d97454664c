package ffmpeg

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archiver zips the contents of a frames directory, flattening paths so
// the archive holds frame_00000.png .. frame_NNNNN.png at its root.
type Archiver struct{}

func NewArchiver() *Archiver {
	return &Archiver{}
}

func (a *Archiver) CreateArchive(ctx context.Context, framesDir string, outputPath string) error {
	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return fmt.Errorf("read frames dir %s: %w", framesDir, err)
	}

	archive, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", outputPath, err)
	}
	defer archive.Close()

	zw := zip.NewWriter(archive)
	defer zw.Close()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := addFile(zw, filepath.Join(framesDir, entry.Name())); err != nil {
			return fmt.Errorf("archive %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func addFile(zw *zip.Writer, path string) error {
	file, err := os.Open(path)
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
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
