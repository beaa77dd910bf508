package excel

import (
	"context"

	"sakilahypo/domain/dataset"
	"sakilahypo/ports"
)

// FileSource loads a table from a CSV or XLSX file on each Load
type FileSource struct {
	path string
}

var _ ports.TableSource = (*FileSource)(nil)

// NewFileSource creates a source for the file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path
func (s *FileSource) Name() string {
	return s.path
}

// Load reads the file
func (s *FileSource) Load(ctx context.Context) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadTable(s.path)
}
