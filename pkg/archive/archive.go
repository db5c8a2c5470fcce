// Package archive compresses a finished workspace and stages the archive in
// the delivery directory.
package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// Zip compresses the whole tree under root into <root>.zip next to it and
// returns the archive path. Entry names are relative to root with forward
// slashes, so the archive unpacks into a single directory-shaped layout.
func Zip(root string) (string, error) {
	zipPath := root + ".zip"
	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", root, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}
	return zipPath, nil
}

// Stage copies the archive into the delivery directory and returns its base
// name, which the completion notice turns into a pickup reference.
func Stage(zipPath, deliveryDir string) (string, error) {
	if err := os.MkdirAll(deliveryDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create delivery directory: %w", err)
	}

	name := filepath.Base(zipPath)
	src, err := os.Open(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(deliveryDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to stage archive: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy archive: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to flush staged archive: %w", err)
	}
	return name, nil
}
