package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/blues/fundmagic/internal/config"
	"github.com/blues/fundmagic/internal/logger"
	"github.com/blues/fundmagic/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/clause"
)

// Init 连接 postgres 并完成迁移和分类初始化
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         NewGormLogger(cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedCategories(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewGormLogger 将 gorm 日志输出到全局日志器
func NewGormLogger(level string) gormLogger.Interface {
	return gormLogger.New(logger.Writer(), gormLogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  parseGormLevel(level),
		IgnoreRecordNotFoundError: true,
	})
}

func parseGormLevel(level string) gormLogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

// Migrate 自动迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.UserModel{},
		&model.UserProjectModel{},
		&model.ProjectModel{},
		&model.RewardModel{},
		&model.ProjectFaqModel{},
		&model.ProjectUpdateModel{},
		&model.ProjectCommentModel{},
		&model.BackingModel{},
		&model.CategoryModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedCategories 写入初始分类，已存在的分类保持不变
func SeedCategories(db *gorm.DB) error {
	categories := model.DefaultCategories()
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}
