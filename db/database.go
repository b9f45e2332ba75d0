package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mygallery/models"
)

// DSN appends the pragmas the gallery relies on: enforced foreign keys and
// a busy timeout so concurrent writers wait instead of failing.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Open connects to the sqlite database at path, creating its directory if
// needed, migrates the schema and seeds the default categories.
func Open(path string, log *zap.Logger) (*gorm.DB, error) {
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		// Ensure the directory exists (create if it doesn't)
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("database connected", zap.String("path", path))

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	seeded, err := Seed(gdb)
	if err != nil {
		return nil, err
	}
	if seeded > 0 {
		log.Info("seeded categories", zap.Int("count", seeded))
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.Category{}, &models.Photo{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Seed inserts the default categories when the category table is empty and
// reports how many rows it wrote.
func Seed(gdb *gorm.DB) (int, error) {
	var n int
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&models.Category{}).Count(&total).Error; err != nil {
			return err
		}
		if total > 0 {
			return nil
		}
		seed := models.SeedCategories()
		if err := tx.Create(&seed).Error; err != nil {
			return err
		}
		n = len(seed)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}
	return n, nil
}
