package ui

import (
	"context"
	"sync"
	"time"

	"sakilahypo/domain/dataset"
	"sakilahypo/internal/errors"
	"sakilahypo/internal/logging"
	"sakilahypo/ports"

	"github.com/rs/zerolog"
)

// DatasetCache holds the table requests are answered from. The table is
// reloaded from its source once it is older than ttl; a zero ttl keeps it
// until it is replaced.
type DatasetCache struct {
	mu       sync.RWMutex
	source   ports.TableSource
	table    *dataset.Table
	loadedAt time.Time
	ttl      time.Duration
	log      zerolog.Logger
}

// NewDatasetCache creates a cache over source, which may be nil until a
// dataset is uploaded
func NewDatasetCache(source ports.TableSource, ttl time.Duration) *DatasetCache {
	return &DatasetCache{
		source: source,
		ttl:    ttl,
		log:    logging.Component("dataset_cache"),
	}
}

// Get returns the cached table and the name of its source, loading it when
// missing or stale
func (c *DatasetCache) Get(ctx context.Context) (*dataset.Table, string, error) {
	c.mu.RLock()
	if c.fresh() {
		table, name := c.table, c.source.Name()
		c.mu.RUnlock()
		return table, name, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh() {
		return c.table, c.source.Name(), nil
	}
	if c.source == nil {
		return nil, "", errors.NotFound("dataset")
	}

	start := time.Now()
	table, err := c.source.Load(ctx)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to load dataset from %s", c.source.Name())
	}
	c.table = table
	c.loadedAt = time.Now()

	c.log.Info().
		Str("source", c.source.Name()).
		Int("rows", table.Rows()).
		Int("columns", len(table.Columns())).
		Dur("elapsed", time.Since(start)).
		Msg("dataset loaded")
	return table, c.source.Name(), nil
}

// Replace swaps in a table that was already loaded from source
func (c *DatasetCache) Replace(source ports.TableSource, table *dataset.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
	c.table = table
	c.loadedAt = time.Now()
}

// Loaded reports whether a table is cached, fresh or not
func (c *DatasetCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table != nil
}

func (c *DatasetCache) fresh() bool {
	if c.table == nil || c.source == nil {
		return false
	}
	return c.ttl <= 0 || time.Since(c.loadedAt) < c.ttl
}
