package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/service"
)

var _ service.OCRProvider = (*ResultsFile)(nil)

// ResultsFile is an OCRProvider backed by results an external OCR run wrote
// to disk, as a JSON array of OCRResult keyed by data.file.
type ResultsFile struct {
	byFile map[string]model.OCRResult
	path   string
}

// LoadResultsFile reads an OCR results file.
func LoadResultsFile(path string) (*ResultsFile, error) {
	// #nosec G304 - path is supplied by the user on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR results: %w", err)
	}

	var results []model.OCRResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse OCR results %s: %w", path, err)
	}

	byFile := make(map[string]model.OCRResult, len(results))
	for i, r := range results {
		if r.Data == nil || r.Data.File == "" {
			return nil, fmt.Errorf("OCR result at index %d has no data.file", i)
		}
		byFile[r.Data.File] = r
	}
	return &ResultsFile{byFile: byFile, path: path}, nil
}

// Files returns how many documents have results.
func (f *ResultsFile) Files() int {
	return len(f.byFile)
}

// Recognize returns the stored result for the document's file name.
func (f *ResultsFile) Recognize(ctx context.Context, filePath string) (*model.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, ok := f.byFile[filepath.Base(filePath)]
	if !ok {
		return nil, fmt.Errorf("%w: no result for %s in %s", common.ErrOCRFailed, filepath.Base(filePath), f.path)
	}
	return &result, nil
}
