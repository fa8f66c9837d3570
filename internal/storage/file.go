package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSlot stores the value in a single file.
type FileSlot struct {
	Path string
}

func NewFileSlot(path string) *FileSlot { return &FileSlot{Path: path} }

// Load reads the file. A missing file is an empty slot.
func (f *FileSlot) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save writes to a temp file and renames it over the slot.
func (f *FileSlot) Save(data []byte) error {
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create slot dir: %w", err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace slot: %w", err)
	}
	return nil
}
