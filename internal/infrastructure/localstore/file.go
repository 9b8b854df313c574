package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// customFoodsSchema describes the persisted file: food name -> {calories, protein}
const customFoodsSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"calories": {"type": ["number", "null"], "minimum": 0},
			"protein":  {"type": ["number", "null"], "minimum": 0}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(customFoodsSchema)

// fileEntry is the on-disk shape of one custom food
type fileEntry struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
}

// readCustomFoods loads and validates the custom-foods file. A missing file
// yields os.ErrNotExist.
func readCustomFoods(path string) (map[string]fileEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("parse custom foods: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("custom foods validation failed: %s", strings.Join(errs, "; "))
	}

	entries := make(map[string]fileEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode custom foods: %w", err)
	}
	return entries, nil
}

// writeCustomFoods replaces the file contents in one rename
func writeCustomFoods(path string, entries map[string]fileEntry) error {
	return atomicWrite(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	})
}

func atomicWrite(path string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".custom-foods-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeFunc(tmpFile); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
