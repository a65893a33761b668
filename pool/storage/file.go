package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
)

type FileState struct {
	FilePath string
}

func NewFileState(filePath string) *FileState {
	return &FileState{FilePath: filePath}
}

func (f *FileState) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, f.FilePath)
	}
	return data, err
}
