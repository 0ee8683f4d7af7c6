package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/fundmagic/internal/logger"
	"github.com/blues/fundmagic/internal/model"
	"gorm.io/gorm"
)

// CountCache 分类项目数缓存
type CountCache interface {
	// GetCounts 返回缓存的计数，未命中时 ok 为 false
	GetCounts(ctx context.Context) (counts map[string]int64, ok bool, err error)
	SetCounts(ctx context.Context, counts map[string]int64) error
	Invalidate(ctx context.Context) error
}

// CategoryWithCount 分类及其下非草稿项目数
type CategoryWithCount struct {
	model.CategoryModel
	ProjectCount int64
}

// CategoryLogic 分类业务逻辑
type CategoryLogic struct {
	db    *gorm.DB
	cache CountCache
}

// NewCategoryLogic 创建分类业务逻辑，cache 可以为 nil
func NewCategoryLogic(db *gorm.DB, cache CountCache) *CategoryLogic {
	return &CategoryLogic{db: db, cache: cache}
}

// List 所有分类及项目数
func (l *CategoryLogic) List(ctx context.Context) ([]CategoryWithCount, error) {
	var categories []model.CategoryModel
	if err := l.db.WithContext(ctx).Order("position ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("获取分类失败: %w", err)
	}

	counts, err := l.counts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CategoryWithCount, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryWithCount{CategoryModel: c, ProjectCount: counts[c.Id]})
	}
	return out, nil
}

// Get 获取单个分类
func (l *CategoryLogic) Get(ctx context.Context, id string) (*model.CategoryModel, error) {
	var category model.CategoryModel
	if err := l.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("category not found")
		}
		return nil, fmt.Errorf("获取分类失败: %w", err)
	}
	return &category, nil
}

// counts 优先读取缓存，缓存不可用时直接统计
func (l *CategoryLogic) counts(ctx context.Context) (map[string]int64, error) {
	if l.cache != nil {
		counts, ok, err := l.cache.GetCounts(ctx)
		if err != nil {
			logger.Warn("failed to read category counts from cache: %v", err)
		} else if ok {
			return counts, nil
		}
	}

	var rows []struct {
		Category string
		Total    int64
	}
	err := l.db.WithContext(ctx).Model(&model.ProjectModel{}).
		Select("category, COUNT(*) AS total").
		Where("status <> ?", model.ProjectStatusDraft).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("统计分类项目数失败: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Total
	}

	if l.cache != nil {
		if err := l.cache.SetCounts(ctx, counts); err != nil {
			logger.Warn("failed to cache category counts: %v", err)
		}
	}
	return counts, nil
}
