package ops

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/errors"
)

// ImportMode controls how imported collections combine with stored ones.
type ImportMode string

const (
	ImportModeMerge   ImportMode = "merge"   // prepend collections whose id is new
	ImportModeReplace ImportMode = "replace" // overwrite the whole store
)

// maxImportSize bounds the file read into memory.
const maxImportSize = 32 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required, a .json export
	Mode ImportMode // default: merge
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import reads a JSON export and merges it into, or replaces, the store.
// The file is validated as a whole before anything is written.
func Import(ctx context.Context, store *Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeMerge
	}
	if input.Mode != ImportModeMerge && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: merge, replace")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg, ".json"); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(data) > maxImportSize {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file exceeds %d bytes", maxImportSize))
	}

	list, err := collection.DecodeDocument(data)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid import file: %v", err))
	}
	seen := make(map[string]bool, len(list))
	for _, c := range list {
		if seen[c.ID] {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("duplicate collection id in import file: %s", c.ID))
		}
		seen[c.ID] = true
	}

	if input.Mode == ImportModeReplace {
		if err := store.ReplaceAll(ctx, list); err != nil {
			return nil, err
		}
		return &ImportOutput{Imported: len(list)}, nil
	}

	added, err := store.PrependMissing(ctx, list)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Imported: added, Skipped: len(list) - added}, nil
}
