package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/errors"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportJSON     ExportFormat = "json"
	ExportMarkdown ExportFormat = "markdown"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path   string       // optional, default: ~/.tabshelf/exports/collections-<timestamp>.<ext>
	Format ExportFormat // default: json
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

func (f ExportFormat) ext() string {
	if f == ExportMarkdown {
		return ".md"
	}
	return ".json"
}

// Export writes every collection to a file. JSON exports use the stored
// document shape so they can be imported again.
func Export(ctx context.Context, store *Store, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	if input.Format == "" {
		input.Format = ExportJSON
	}
	if input.Format != ExportJSON && input.Format != ExportMarkdown {
		return nil, errors.NewInvalidRequest("format must be one of: json, markdown")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	now := store.now()
	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(input.Format, now)
		if err != nil {
			return nil, err
		}
	}
	if err := ValidatePath(exportPath, PathCheckWrite, cfg, input.Format.ext()); err != nil {
		return nil, err
	}

	list := store.Snapshot()
	var body []byte
	switch input.Format {
	case ExportMarkdown:
		body = []byte(collection.Markdown(list, now))
	default:
		encoded, err := collection.EncodeDocument(list)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		body = encoded
	}

	if err := writeFileAtomic(exportPath, body); err != nil {
		return nil, err
	}
	return &ExportOutput{
		Path:       exportPath,
		Count:      len(list),
		ExportedAt: now.Unix(),
	}, nil
}

// writeFileAtomic writes body to a temp file beside path and renames it into
// place, leaving an existing file untouched on failure.
func writeFileAtomic(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(body); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}
	success = true
	return nil
}

// defaultExportPath returns ~/.tabshelf/exports/collections-<timestamp>.<ext>.
func defaultExportPath(format ExportFormat, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("collections-%s%s", now.Format("2006-01-02T150405"), format.ext())
	return filepath.Join(dir, filename), nil
}
