package logic

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/blues/fundmagic/internal/logger"
	"github.com/blues/fundmagic/internal/metrics"
	"github.com/blues/fundmagic/internal/model"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxDaysDuration  = 365
)

// 列表排序方式
const (
	SortTrending         = "trending"
	SortNewest           = "newest"
	SortEndingSoon       = "ending_soon"
	SortMostFunded       = "most_funded"
	SortRecentlyLaunched = "recently_launched"
)

var sortOrders = map[string]string{
	SortTrending:         "current_funding DESC, backers_count DESC",
	SortNewest:           "created_at DESC",
	SortEndingSoon:       "end_date ASC",
	SortMostFunded:       "current_funding DESC",
	SortRecentlyLaunched: "created_at DESC",
}

// likeEscaper 转义 LIKE 通配符，搜索词按字面匹配
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db     *gorm.DB
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
	cache  CountCache
}

// NewProjectLogic 创建项目业务逻辑，cache 可以为 nil
func NewProjectLogic(db *gorm.DB, cache CountCache) *ProjectLogic {
	return &ProjectLogic{
		db:     db,
		ugc:    bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
		cache:  cache,
	}
}

// RewardInput 回报档位参数，金额单位为分
type RewardInput struct {
	Id                string // 更新时指定则保留原档位及其支持人数
	Title             string
	Description       string
	Amount            int64
	EstimatedDelivery string
	IsLimited         bool
	QuantityLimit     *int64
	IsAvailable       *bool // 未指定时为可用
}

// FaqInput 常见问题参数
type FaqInput struct {
	Question string
	Answer   string
}

// ProjectInput 创建/更新项目参数。更新时忽略 FundingGoal、DaysDuration 和 Draft
type ProjectInput struct {
	Title           string
	Subtitle        string
	Description     string
	FullDescription string
	Category        string
	ImageURL        string
	VideoURL        string
	Location        string
	FundingGoal     int64
	DaysDuration    int
	Draft           bool
	Rewards         []RewardInput
	Faqs            []FaqInput
}

// UpdateInput 项目进展参数
type UpdateInput struct {
	Title   string
	Content string
	Images  []string
	Videos  []string
}

// ProjectFilter 列表查询条件
type ProjectFilter struct {
	Category string
	Status   string
	Featured *bool
	Search   string
	SortBy   string
	Limit    int
	Offset   int
}

// Create 创建项目，并记录到创建者的项目列表
func (p *ProjectLogic) Create(ctx context.Context, in *ProjectInput, creator *model.UserModel) (*model.ProjectModel, error) {
	if err := p.validateInput(ctx, in, true); err != nil {
		return nil, err
	}

	status := model.ProjectStatusActive
	if in.Draft {
		status = model.ProjectStatusDraft
	}

	project := &model.ProjectModel{
		Id:              uuid.NewString(),
		Title:           strings.TrimSpace(in.Title),
		Subtitle:        in.Subtitle,
		Description:     in.Description,
		FullDescription: in.FullDescription,
		Category:        in.Category,
		ImageURL:        in.ImageURL,
		VideoURL:        in.VideoURL,
		Location:        in.Location,
		FundingGoal:     in.FundingGoal,
		EndDate:         time.Now().AddDate(0, 0, in.DaysDuration),
		Status:          status,
		CreatorId:       creator.Id,
		CreatorName:     creator.Name,
		CreatorBio:      creator.Bio,
		CreatorAvatar:   creator.Avatar,
	}
	project.Rewards = make([]model.RewardModel, 0, len(in.Rewards))
	for i := range in.Rewards {
		project.Rewards = append(project.Rewards, newReward(project.Id, i, &in.Rewards[i]))
	}
	project.Faqs = buildFaqs(project.Id, in.Faqs)

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Rewards", "Faqs", "Updates", "Comments").Create(project).Error; err != nil {
			return fmt.Errorf("创建项目失败: %w", err)
		}
		if len(project.Rewards) > 0 {
			if err := tx.Create(&project.Rewards).Error; err != nil {
				return fmt.Errorf("创建回报档位失败: %w", err)
			}
		}
		if len(project.Faqs) > 0 {
			if err := tx.Create(&project.Faqs).Error; err != nil {
				return fmt.Errorf("创建常见问题失败: %w", err)
			}
		}
		link := &model.UserProjectModel{
			UserId:    creator.Id,
			ProjectId: project.Id,
			Relation:  model.UserRelationCreated,
		}
		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("记录创建关系失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ProjectsCreated.Inc()
	p.invalidateCounts(ctx)
	logger.Info("project %s created by %s", project.Id, creator.Id)

	project.Updates = []model.ProjectUpdateModel{}
	project.Comments = []model.ProjectCommentModel{}
	return project, nil
}

// Get 获取项目详情，子记录按顺序加载
func (p *ProjectLogic) Get(ctx context.Context, id string) (*model.ProjectModel, error) {
	var project model.ProjectModel
	err := p.db.WithContext(ctx).
		Preload("Rewards", orderBy("position ASC")).
		Preload("Faqs", orderBy("position ASC")).
		Preload("Updates", orderBy("created_at ASC")).
		Preload("Comments", orderBy("created_at ASC")).
		First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(DetailProjectNotFound)
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}
	return &project, nil
}

// List 按条件查询项目，不加载子记录
func (p *ProjectLogic) List(ctx context.Context, filter ProjectFilter) ([]model.ProjectModel, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, invalid("limit and offset must not be negative")
	}
	limit := filter.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := p.db.WithContext(ctx).Model(&model.ProjectModel{})

	if filter.Category != "" && filter.Category != "all" {
		query = query.Where("category = ?", filter.Category)
	}

	if filter.Status != "" {
		status := model.ProjectStatus(filter.Status)
		if !status.Valid() {
			return nil, invalid(fmt.Sprintf("unknown status %q", filter.Status))
		}
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status <> ?", model.ProjectStatusDraft)
	}

	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(creator_name) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}

	order, ok := sortOrders[filter.SortBy]
	if !ok {
		order = sortOrders[SortNewest]
	}

	var projects []model.ProjectModel
	if err := query.Order(order).Limit(limit).Offset(filter.Offset).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}
	return projects, nil
}

// ListCreated 用户创建的项目，最新的在前
func (p *ProjectLogic) ListCreated(ctx context.Context, userID string) ([]model.ProjectModel, error) {
	db := p.db.WithContext(ctx)
	created := db.Model(&model.UserProjectModel{}).
		Select("project_id").
		Where("user_id = ? AND relation = ?", userID, model.UserRelationCreated)

	var projects []model.ProjectModel
	if err := db.Where("id IN (?)", created).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取创建的项目失败: %w", err)
	}
	return projects, nil
}

// Update 更新项目的可编辑字段、回报档位和常见问题。目标金额和截止时间不可修改
func (p *ProjectLogic) Update(ctx context.Context, id string, in *ProjectInput, caller *model.UserModel) (*model.ProjectModel, error) {
	if err := p.validateInput(ctx, in, false); err != nil {
		return nil, err
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := loadOwnedProject(tx.Preload("Rewards"), id, caller)
		if err != nil {
			return err
		}

		if err := reconcileRewards(tx, project, in.Rewards); err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&model.ProjectFaqModel{}).Error; err != nil {
			return fmt.Errorf("清理常见问题失败: %w", err)
		}
		if faqs := buildFaqs(id, in.Faqs); len(faqs) > 0 {
			if err := tx.Create(&faqs).Error; err != nil {
				return fmt.Errorf("创建常见问题失败: %w", err)
			}
		}

		err = tx.Model(&model.ProjectModel{Id: id}).Updates(map[string]interface{}{
			"title":            strings.TrimSpace(in.Title),
			"subtitle":         in.Subtitle,
			"description":      in.Description,
			"full_description": in.FullDescription,
			"category":         in.Category,
			"image_url":        in.ImageURL,
			"video_url":        in.VideoURL,
			"location":         in.Location,
		}).Error
		if err != nil {
			return fmt.Errorf("更新项目失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.invalidateCounts(ctx)
	return p.Get(ctx, id)
}

// Publish 发布草稿项目
func (p *ProjectLogic) Publish(ctx context.Context, id string, caller *model.UserModel) (*model.ProjectModel, error) {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := loadOwnedProject(tx, id, caller)
		if err != nil {
			return err
		}
		if project.Status != model.ProjectStatusDraft {
			return rejected("only draft projects can be published")
		}
		if project.EndDate.Before(time.Now()) {
			return rejected(DetailFundingEnded)
		}

		res := tx.Model(&model.ProjectModel{}).
			Where("id = ? AND status = ?", id, model.ProjectStatusDraft).
			Update("status", model.ProjectStatusActive)
		if res.Error != nil {
			return fmt.Errorf("发布项目失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return rejected("only draft projects can be published")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.invalidateCounts(ctx)
	return p.Get(ctx, id)
}

// Delete 删除没有支持者的项目及其子记录
func (p *ProjectLogic) Delete(ctx context.Context, id string, caller *model.UserModel) error {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := loadOwnedProject(tx, id, caller)
		if err != nil {
			return err
		}
		if project.BackersCount > 0 {
			return conflict("cannot delete a project that has backers")
		}

		res := tx.Where("id = ? AND backers_count = 0", id).Delete(&model.ProjectModel{})
		if res.Error != nil {
			return fmt.Errorf("删除项目失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflict("cannot delete a project that has backers")
		}

		for _, child := range []interface{}{
			&model.RewardModel{},
			&model.ProjectFaqModel{},
			&model.ProjectUpdateModel{},
			&model.ProjectCommentModel{},
		} {
			if err := tx.Where("project_id = ?", id).Delete(child).Error; err != nil {
				return fmt.Errorf("删除项目子记录失败: %w", err)
			}
		}

		err = tx.Where("user_id = ? AND project_id = ? AND relation = ?", project.CreatorId, id, model.UserRelationCreated).
			Delete(&model.UserProjectModel{}).Error
		if err != nil {
			return fmt.Errorf("移除创建关系失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.invalidateCounts(ctx)
	logger.Info("project %s deleted by %s", id, caller.Id)
	return nil
}

// UpdateStory 更新项目故事，保留安全的富文本
func (p *ProjectLogic) UpdateStory(ctx context.Context, id, story string, caller *model.UserModel) (*model.ProjectModel, error) {
	db := p.db.WithContext(ctx)
	if _, err := loadOwnedProject(db, id, caller); err != nil {
		return nil, err
	}

	if err := db.Model(&model.ProjectModel{Id: id}).Update("story", p.ugc.Sanitize(story)).Error; err != nil {
		return nil, fmt.Errorf("更新项目故事失败: %w", err)
	}
	return p.Get(ctx, id)
}

// AppendUpdate 追加项目进展，仅创建者可操作
func (p *ProjectLogic) AppendUpdate(ctx context.Context, id string, in *UpdateInput, caller *model.UserModel) (*model.ProjectUpdateModel, error) {
	title := p.plainText(in.Title)
	content := p.plainText(in.Content)
	if title == "" || content == "" {
		return nil, invalid("title and content are required")
	}

	db := p.db.WithContext(ctx)
	if _, err := loadOwnedProject(db, id, caller); err != nil {
		return nil, err
	}

	update := &model.ProjectUpdateModel{
		Id:        uuid.NewString(),
		ProjectId: id,
		Title:     title,
		Content:   content,
		Images:    nonNil(in.Images),
		Videos:    nonNil(in.Videos),
	}
	if err := db.Create(update).Error; err != nil {
		return nil, fmt.Errorf("创建项目进展失败: %w", err)
	}
	return update, nil
}

// AppendComment 追加评论，任何登录用户都可以评论
func (p *ProjectLogic) AppendComment(ctx context.Context, id, content string, caller *model.UserModel) (*model.ProjectCommentModel, error) {
	content = p.plainText(content)
	if content == "" {
		return nil, invalid("content is required")
	}

	db := p.db.WithContext(ctx)
	var count int64
	if err := db.Model(&model.ProjectModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}
	if count == 0 {
		return nil, notFound(DetailProjectNotFound)
	}

	comment := &model.ProjectCommentModel{
		Id:         uuid.NewString(),
		ProjectId:  id,
		UserId:     caller.Id,
		UserName:   caller.Name,
		UserAvatar: caller.Avatar,
		Content:    content,
	}
	if err := db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("创建评论失败: %w", err)
	}
	return comment, nil
}

// validateInput 校验项目参数，creating 为 true 时校验目标金额和众筹天数
func (p *ProjectLogic) validateInput(ctx context.Context, in *ProjectInput, creating bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalid("description is required")
	}
	if in.Category == "" {
		return invalid("category is required")
	}
	if creating {
		if in.FundingGoal <= 0 {
			return invalid("funding goal must be greater than 0")
		}
		if in.DaysDuration < 1 || in.DaysDuration > maxDaysDuration {
			return invalid(fmt.Sprintf("duration must be between 1 and %d days", maxDaysDuration))
		}
	}

	for i, r := range in.Rewards {
		if strings.TrimSpace(r.Title) == "" {
			return invalid(fmt.Sprintf("reward %d: title is required", i+1))
		}
		if r.Amount <= 0 {
			return invalid(fmt.Sprintf("reward %d: amount must be greater than 0", i+1))
		}
		if r.IsLimited && (r.QuantityLimit == nil || *r.QuantityLimit <= 0) {
			return invalid(fmt.Sprintf("reward %d: limited rewards need a quantity limit", i+1))
		}
	}
	for i, f := range in.Faqs {
		if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
			return invalid(fmt.Sprintf("faq %d: question and answer are required", i+1))
		}
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&model.CategoryModel{}).Where("id = ?", in.Category).Count(&count).Error; err != nil {
		return fmt.Errorf("查询分类失败: %w", err)
	}
	if count == 0 {
		return invalid(fmt.Sprintf("unknown category %q", in.Category))
	}
	return nil
}

// invalidateCounts 项目集合变化后清除分类计数缓存
func (p *ProjectLogic) invalidateCounts(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx); err != nil {
		logger.Warn("failed to invalidate category counts: %v", err)
	}
}

// plainText 去掉标签后还原实体，纯文本按原样保存
func (p *ProjectLogic) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(p.strict.Sanitize(s)))
}

// loadOwnedProject 加载项目并校验调用者为创建者
func loadOwnedProject(db *gorm.DB, id string, caller *model.UserModel) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(DetailProjectNotFound)
		}
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}
	if project.CreatorId != caller.Id {
		return nil, forbidden("only the creator can modify this project")
	}
	return &project, nil
}

// reconcileRewards 按新列表替换回报档位，指定ID的档位保留支持人数，已有支持者的档位不能移除
func reconcileRewards(tx *gorm.DB, project *model.ProjectModel, rewards []RewardInput) error {
	kept := make(map[string]bool, len(rewards))

	for i := range rewards {
		in := &rewards[i]
		if in.Id == "" {
			reward := newReward(project.Id, i, in)
			if err := tx.Create(&reward).Error; err != nil {
				return fmt.Errorf("创建回报档位失败: %w", err)
			}
			continue
		}

		existing := project.FindReward(in.Id)
		if existing == nil {
			return invalid(fmt.Sprintf("reward %s does not belong to this project", in.Id))
		}
		if kept[in.Id] {
			return invalid(fmt.Sprintf("reward %s listed twice", in.Id))
		}
		kept[in.Id] = true

		query := tx.Model(&model.RewardModel{}).Where("id = ?", in.Id)
		if in.IsLimited {
			query = query.Where("backers_count <= ?", *in.QuantityLimit)
		}
		res := query.Updates(map[string]interface{}{
			"position":           i,
			"title":              strings.TrimSpace(in.Title),
			"description":        in.Description,
			"amount":             in.Amount,
			"estimated_delivery": in.EstimatedDelivery,
			"is_limited":         in.IsLimited,
			"quantity_limit":     quantityLimit(in),
			"is_available":       availability(in),
		})
		if res.Error != nil {
			return fmt.Errorf("更新回报档位失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflict(fmt.Sprintf("reward %s already has more backers than the new limit", in.Id))
		}
	}

	var removed []string
	for _, r := range project.Rewards {
		if kept[r.Id] {
			continue
		}
		if r.BackersCount > 0 {
			return conflict(fmt.Sprintf("reward %s has backers and cannot be removed", r.Id))
		}
		removed = append(removed, r.Id)
	}
	if len(removed) == 0 {
		return nil
	}

	res := tx.Where("id IN ? AND backers_count = 0", removed).Delete(&model.RewardModel{})
	if res.Error != nil {
		return fmt.Errorf("删除回报档位失败: %w", res.Error)
	}
	if res.RowsAffected != int64(len(removed)) {
		return conflict("a removed reward received backers")
	}
	return nil
}

func newReward(projectID string, position int, in *RewardInput) model.RewardModel {
	return model.RewardModel{
		Id:                uuid.NewString(),
		ProjectId:         projectID,
		Position:          position,
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Amount:            in.Amount,
		EstimatedDelivery: in.EstimatedDelivery,
		IsLimited:         in.IsLimited,
		QuantityLimit:     quantityLimit(in),
		IsAvailable:       availability(in),
	}
}

// quantityLimit 非限量档位不保存数量上限
func quantityLimit(in *RewardInput) *int64 {
	if !in.IsLimited || in.QuantityLimit == nil {
		return nil
	}
	limit := *in.QuantityLimit
	return &limit
}

func availability(in *RewardInput) bool {
	return in.IsAvailable == nil || *in.IsAvailable
}

func buildFaqs(projectID string, faqs []FaqInput) []model.ProjectFaqModel {
	out := make([]model.ProjectFaqModel, 0, len(faqs))
	for i, f := range faqs {
		out = append(out, model.ProjectFaqModel{
			ProjectId: projectID,
			Position:  i,
			Question:  strings.TrimSpace(f.Question),
			Answer:    strings.TrimSpace(f.Answer),
		})
	}
	return out
}

func orderBy(order string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(order)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
