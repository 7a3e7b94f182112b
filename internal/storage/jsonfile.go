package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// JSONFile stores destinations as a JSON object mapping the chat id, written
// as text, to the interval in seconds: {"-1001234": 3600}.
type JSONFile struct {
	path string
}

// NewJSONFile returns a backend for the record at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the record location.
func (f *JSONFile) Path() string {
	return f.path
}

// Load parses the record. A missing or malformed file is an error.
func (f *JSONFile) Load(_ context.Context) (map[int64]int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}

	entries := make(map[int64]int, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: invalid chat id %q", f.path, k)
		}
		entries[id] = v
	}
	return entries, nil
}

// Save replaces the record. The new content is written to a temporary file
// in the same directory and renamed over the old one.
func (f *JSONFile) Save(_ context.Context, entries map[int64]int) error {
	raw := make(map[string]int, len(entries))
	for id, v := range entries {
		raw[strconv.FormatInt(id, 10)] = v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode destinations: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// InitJSONFile creates an empty record at path unless one already exists.
func InitJSONFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := fh.WriteString("{}"); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}
