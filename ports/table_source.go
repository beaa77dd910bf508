package ports

import (
	"context"

	"sakilahypo/domain/dataset"
)

// TableSource loads the dataset an analysis runs over
type TableSource interface {
	// Name identifies the source in logs and persisted runs
	Name() string

	// Load reads the full table into memory
	Load(ctx context.Context) (*dataset.Table, error)
}
