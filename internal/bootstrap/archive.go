// Package bootstrap prepares the materials store before the server starts.
package bootstrap

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"trainingportal/internal/storage"
)

// ExtractArchive copies every regular file in the zip at archivePath into store,
// keyed by its base name. Directory entries, __MACOSX metadata and dot-files are
// skipped. A missing archive is logged and skipped. It returns the number of
// files written.
func ExtractArchive(ctx context.Context, archivePath string, store storage.Storage, loc *time.Location) (int, error) {
	if archivePath == "" {
		return 0, nil
	}
	start := time.Now()

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logJSON(loc, map[string]any{
				"event":   "materials_archive_skip",
				"status":  "skipped",
				"archive": archivePath,
				"msg":     "archive not found",
			})
			return 0, nil
		}
		logJSON(loc, map[string]any{
			"event":         "materials_archive_failed",
			"status":        "error",
			"archive":       archivePath,
			"error_message": err.Error(),
		})
		return 0, fmt.Errorf("open materials archive: %w", err)
	}
	defer zr.Close()

	n := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		name, ok := entryName(f)
		if !ok {
			continue
		}
		if err := extractOne(ctx, f, name, store); err != nil {
			logJSON(loc, map[string]any{
				"event":         "materials_archive_failed",
				"status":        "error",
				"archive":       archivePath,
				"entry":         f.Name,
				"error_message": err.Error(),
			})
			return n, err
		}
		n++
	}

	logJSON(loc, map[string]any{
		"event":       "materials_archive_extracted",
		"status":      "success",
		"archive":     archivePath,
		"files":       n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return n, nil
}

// entryName returns the store key for a zip entry, or false if it should be skipped.
func entryName(f *zip.File) (string, bool) {
	if f.FileInfo().IsDir() || !f.Mode().IsRegular() {
		return "", false
	}
	// Zip paths always use forward slashes; tolerate archives built on Windows.
	p := strings.ReplaceAll(f.Name, `\`, "/")
	if strings.HasPrefix(p, "__MACOSX/") || strings.Contains(p, "/__MACOSX/") {
		return "", false
	}
	name := path.Base(p)
	if strings.HasPrefix(name, ".") || !storage.ValidName(name) {
		return "", false
	}
	return name, true
}

func extractOne(ctx context.Context, f *zip.File, name string, store storage.Storage) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	if _, err := store.Put(ctx, name, rc, storage.PutObjectOptions{
		Size:        int64(f.UncompressedSize64),
		ContentType: ct,
	}); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

var logOutput io.Writer = os.Stderr

func logJSON(loc *time.Location, data map[string]any) {
	if loc == nil {
		loc = time.UTC
	}
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	data["component"] = "bootstrap"
	if data["status"] == "error" {
		data["level"] = "error"
	} else {
		data["level"] = "info"
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal bootstrap log: %v", err)
		return
	}
	fmt.Fprintln(logOutput, string(b))
}
