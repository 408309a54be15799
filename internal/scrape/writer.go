package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ailsa/eureka-scraper/internal/models"
)

// WriteNormalized writes the full run output as one JSON array, atomically:
// the document goes to a temp file in the target directory and is renamed
// into place only once fully written. A run killed mid-write leaves no
// partial or malformed output behind.
func WriteNormalized(grants []*models.NormalizedGrant, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(grants, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".normalized-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// ReadNormalized loads a previously written output file.
func ReadNormalized(path string) ([]*models.NormalizedGrant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var grants []*models.NormalizedGrant
	if err := json.Unmarshal(data, &grants); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return grants, nil
}
