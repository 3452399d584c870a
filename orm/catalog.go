package orm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// IndexEntry describes one persisted similarity index
type IndexEntry struct {
	Path       string `gorm:"primaryKey"`
	View       string `gorm:"column:view_name;index"`
	Column     string `gorm:"column:column_name"`
	Entries    int
	Embedder   string
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Catalog records which similarity indexes exist and which embedder built
// them. The index files stay authoritative; the catalog is bookkeeping.
type Catalog struct {
	db *gorm.DB
}

// OpenCatalog connects to the catalog database and migrates its schema.
// driver is "sqlite" or "postgres".
func OpenCatalog(driver, dsn string) (*Catalog, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "pgx":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return NewCatalog(db)
}

// NewCatalog wraps an existing connection and migrates the schema
func NewCatalog(db *gorm.DB) (*Catalog, error) {
	if err := db.AutoMigrate(&IndexEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// RecordBuild upserts the entry for a freshly built index
func (c *Catalog) RecordBuild(ctx context.Context, entry *IndexEntry) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.LastUsedAt = now

	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		UpdateAll: true,
	}).Create(entry).Error
}

// Touch marks an index as used and returns its entry. An index with no
// entry (built before the catalog existed) returns nil, nil.
func (c *Catalog) Touch(ctx context.Context, path string) (*IndexEntry, error) {
	var entry IndexEntry
	err := c.db.WithContext(ctx).Where("path = ?", path).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry.LastUsedAt = time.Now()
	if err := c.db.WithContext(ctx).Model(&entry).Update("last_used_at", entry.LastUsedAt).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListIndexes returns every entry ordered by view then column
func (c *Catalog) ListIndexes(ctx context.Context) ([]IndexEntry, error) {
	var entries []IndexEntry
	err := c.db.WithContext(ctx).Order("view_name").Order("column_name").Find(&entries).Error
	return entries, err
}

// PruneMissing deletes entries whose index file no longer exists and
// returns the removed paths
func (c *Catalog) PruneMissing(ctx context.Context) ([]string, error) {
	entries, err := c.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}

	var pruned []string
	for _, e := range entries {
		if _, err := os.Stat(e.Path); err == nil || !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := c.db.WithContext(ctx).Delete(&IndexEntry{}, "path = ?", e.Path).Error; err != nil {
			return pruned, err
		}
		pruned = append(pruned, e.Path)
	}
	return pruned, nil
}

// Close releases the underlying connection
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
