package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/fundmagic/internal/logger"
	"github.com/blues/fundmagic/internal/metrics"
	"github.com/blues/fundmagic/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultPaymentMethod = "stripe"

// BackingLogic 支持（认捐）业务逻辑
type BackingLogic struct {
	db *gorm.DB
}

// NewBackingLogic 创建支持业务逻辑
func NewBackingLogic(db *gorm.DB) *BackingLogic {
	return &BackingLogic{db: db}
}

// PledgeInput 支持参数，金额单位为分
type PledgeInput struct {
	ProjectId     string
	RewardId      string // 为空表示不选择回报
	Amount        int64
	PaymentMethod string
}

// UserBacking 带项目和回报信息的支持记录
type UserBacking struct {
	model.BackingModel
	ProjectTitle string
	ProjectImage string
	RewardTitle  string
}

// ProjectBacking 带支持者信息的支持记录
type ProjectBacking struct {
	model.BackingModel
	BackerName  string
	BackerEmail string
}

// PledgeResult 支持结果
type PledgeResult struct {
	UserBacking
	ProjectStatus model.ProjectStatus
}

// Pledge 校验并提交一次支持。校验失败时没有任何副作用，提交在一个事务内完成
func (b *BackingLogic) Pledge(ctx context.Context, backer *model.UserModel, in *PledgeInput) (*PledgeResult, error) {
	if in.ProjectId == "" {
		return nil, invalid("project_id is required")
	}
	if in.Amount <= 0 {
		return nil, invalid("amount must be greater than 0")
	}

	var project model.ProjectModel
	err := b.db.WithContext(ctx).Preload("Rewards").First(&project, "id = ?", in.ProjectId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recordRejection(notFound(DetailProjectNotFound))
		}
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}

	reward, err := checkPledge(&project, in.RewardId, in.Amount, time.Now())
	if err != nil {
		return nil, recordRejection(err)
	}

	result, err := b.commit(ctx, backer, &project, reward, in)
	if err != nil {
		return nil, recordRejection(err)
	}

	metrics.PledgesAccepted.Inc()
	metrics.PledgedCents.Add(float64(in.Amount))
	logger.Info("pledge %s: user %s backed project %s with %d cents", result.Id, backer.Id, project.Id, in.Amount)
	return result, nil
}

// checkPledge 提交前的只读校验，返回选中的回报档位
func checkPledge(project *model.ProjectModel, rewardID string, amount int64, now time.Time) (*model.RewardModel, error) {
	if project.Status != model.ProjectStatusActive {
		return nil, rejected(DetailNotAccepting)
	}
	if project.EndDate.Before(now) {
		return nil, rejected(DetailFundingEnded)
	}
	if rewardID == "" {
		return nil, nil
	}

	reward := project.FindReward(rewardID)
	if reward == nil {
		return nil, notFound(DetailRewardNotFound)
	}
	if !reward.IsAvailable {
		return nil, rejected(DetailRewardUnavailable)
	}
	if reward.SoldOut() {
		return nil, rejected(DetailRewardSoldOut)
	}
	if amount < reward.Amount {
		return nil, rejected(DetailBelowMinimum)
	}
	return reward, nil
}

// commit 在一个事务内写入支持记录并更新各项计数，达到目标时锁定为已达成
func (b *BackingLogic) commit(ctx context.Context, backer *model.UserModel, project *model.ProjectModel, reward *model.RewardModel, in *PledgeInput) (*PledgeResult, error) {
	method := in.PaymentMethod
	if method == "" {
		method = defaultPaymentMethod
	}

	backing := model.BackingModel{
		Id:            uuid.NewString(),
		BackedAt:      time.Now(),
		UserId:        backer.Id,
		ProjectId:     project.Id,
		Amount:        in.Amount,
		PaymentStatus: model.PaymentStatusCompleted,
		PaymentMethod: method,
		TransactionId: uuid.NewString(),
	}
	if reward != nil {
		rewardID := reward.Id
		backing.RewardId = &rewardID
	}

	status := project.Status
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 条件自增，避免并发超卖
		if reward != nil {
			res := tx.Model(&model.RewardModel{}).
				Where("id = ? AND project_id = ? AND is_available = ?", reward.Id, project.Id, true).
				Where("(is_limited = ? OR quantity_limit IS NULL OR backers_count < quantity_limit)", false).
				Update("backers_count", gorm.Expr("backers_count + ?", 1))
			if res.Error != nil {
				return fmt.Errorf("更新回报档位失败: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return rejected(DetailRewardSoldOut)
			}
		}

		if err := tx.Create(&backing).Error; err != nil {
			return fmt.Errorf("创建支持记录失败: %w", err)
		}

		res := tx.Model(&model.ProjectModel{}).
			Where("id = ? AND status = ?", project.Id, model.ProjectStatusActive).
			Updates(map[string]interface{}{
				"current_funding": gorm.Expr("current_funding + ?", in.Amount),
				"backers_count":   gorm.Expr("backers_count + ?", 1),
			})
		if res.Error != nil {
			return fmt.Errorf("更新项目金额失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return rejected(DetailNotAccepting)
		}

		link := &model.UserProjectModel{
			UserId:    backer.Id,
			ProjectId: project.Id,
			Relation:  model.UserRelationBacked,
		}
		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("记录支持关系失败: %w", err)
		}

		err := tx.Model(&model.UserModel{}).Where("id = ?", backer.Id).
			Update("total_pledged", gorm.Expr("total_pledged + ?", in.Amount)).Error
		if err != nil {
			return fmt.Errorf("更新用户累计金额失败: %w", err)
		}

		// 达到目标后锁定为已达成，之后不会回退
		res = tx.Model(&model.ProjectModel{}).
			Where("id = ? AND status = ? AND current_funding >= funding_goal", project.Id, model.ProjectStatusActive).
			Update("status", model.ProjectStatusFunded)
		if res.Error != nil {
			return fmt.Errorf("更新项目状态失败: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			status = model.ProjectStatusFunded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if status == model.ProjectStatusFunded {
		metrics.ProjectsClosed.WithLabelValues(string(model.ProjectStatusFunded), "pledge").Inc()
		logger.Info("project %s reached its funding goal", project.Id)
	}

	result := &PledgeResult{
		UserBacking: UserBacking{
			BackingModel: backing,
			ProjectTitle: project.Title,
			ProjectImage: project.ImageURL,
		},
		ProjectStatus: status,
	}
	if reward != nil {
		result.RewardTitle = reward.Title
	}
	return result, nil
}

// ListForProject 项目的支持记录，仅创建者可查看，最新的在前
func (b *BackingLogic) ListForProject(ctx context.Context, projectID string, caller *model.UserModel) ([]ProjectBacking, error) {
	db := b.db.WithContext(ctx)

	var project model.ProjectModel
	if err := db.Select("id", "creator_id").First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(DetailProjectNotFound)
		}
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}
	if project.CreatorId != caller.Id {
		return nil, forbidden("only the creator can view backings")
	}

	var backings []model.BackingModel
	if err := db.Where("project_id = ?", projectID).Order("backed_at DESC").Find(&backings).Error; err != nil {
		return nil, fmt.Errorf("获取支持记录失败: %w", err)
	}

	userIDs := make([]string, 0, len(backings))
	for _, bk := range backings {
		userIDs = append(userIDs, bk.UserId)
	}
	users := make(map[string]model.UserModel, len(userIDs))
	if len(userIDs) > 0 {
		var rows []model.UserModel
		if err := db.Select("id", "name", "email").Where("id IN ?", userIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("获取支持者失败: %w", err)
		}
		for _, u := range rows {
			users[u.Id] = u
		}
	}

	out := make([]ProjectBacking, 0, len(backings))
	for _, bk := range backings {
		u := users[bk.UserId]
		out = append(out, ProjectBacking{
			BackingModel: bk,
			BackerName:   u.Name,
			BackerEmail:  u.Email,
		})
	}
	return out, nil
}

// ListForUser 用户的支持记录，最新的在前。项目已删除的记录被跳过
func (b *BackingLogic) ListForUser(ctx context.Context, userID string) ([]UserBacking, error) {
	db := b.db.WithContext(ctx)

	var backings []model.BackingModel
	if err := db.Where("user_id = ?", userID).Order("backed_at DESC").Find(&backings).Error; err != nil {
		return nil, fmt.Errorf("获取支持记录失败: %w", err)
	}
	if len(backings) == 0 {
		return []UserBacking{}, nil
	}

	var projectIDs, rewardIDs []string
	for _, bk := range backings {
		projectIDs = append(projectIDs, bk.ProjectId)
		if bk.RewardId != nil {
			rewardIDs = append(rewardIDs, *bk.RewardId)
		}
	}

	var projects []model.ProjectModel
	if err := db.Select("id", "title", "image_url").Where("id IN ?", projectIDs).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}
	byProject := make(map[string]model.ProjectModel, len(projects))
	for _, p := range projects {
		byProject[p.Id] = p
	}

	rewardTitles := make(map[string]string, len(rewardIDs))
	if len(rewardIDs) > 0 {
		var rewards []model.RewardModel
		if err := db.Select("id", "title").Where("id IN ?", rewardIDs).Find(&rewards).Error; err != nil {
			return nil, fmt.Errorf("获取回报档位失败: %w", err)
		}
		for _, r := range rewards {
			rewardTitles[r.Id] = r.Title
		}
	}

	out := make([]UserBacking, 0, len(backings))
	for _, bk := range backings {
		p, ok := byProject[bk.ProjectId]
		if !ok {
			continue
		}
		entry := UserBacking{
			BackingModel: bk,
			ProjectTitle: p.Title,
			ProjectImage: p.ImageURL,
		}
		if bk.RewardId != nil {
			entry.RewardTitle = rewardTitles[*bk.RewardId]
		}
		out = append(out, entry)
	}
	return out, nil
}

// recordRejection 统计被拒绝的支持，原样返回错误
func recordRejection(err error) error {
	var bizErr *BizError
	if errors.As(err, &bizErr) && (errors.Is(err, ErrRejected) || errors.Is(err, ErrNotFound)) {
		metrics.PledgesRejected.WithLabelValues(bizErr.Detail).Inc()
	}
	return err
}
