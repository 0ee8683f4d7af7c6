package model

import (
	"time"
)

// ProjectModel 众筹项目模型
type ProjectModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title           string `json:"title" gorm:"not null"`
	Subtitle        string `json:"subtitle"`
	Description     string `json:"description" gorm:"type:text"`
	FullDescription string `json:"full_description" gorm:"type:text"`
	Story           string `json:"story" gorm:"type:text"`
	Category        string `json:"category" gorm:"index"`
	ImageURL        string `json:"image"`
	VideoURL        string `json:"video"`
	Location        string `json:"location"`
	IsFeatured      bool   `json:"is_featured"`

	// 众筹信息，金额单位为分
	FundingGoal    int64 `json:"funding_goal" gorm:"not null"`
	CurrentFunding int64 `json:"current_funding" gorm:"not null;default:0"`
	BackersCount   int64 `json:"backers_count" gorm:"not null;default:0"`

	EndDate time.Time     `json:"end_date" gorm:"not null;index"`
	Status  ProjectStatus `json:"status" gorm:"type:varchar(16);not null;index"`

	// 创建者信息（冗余存储）
	CreatorId     string `json:"creator_id" gorm:"type:varchar(36);not null;index"`
	CreatorName   string `json:"creator_name"`
	CreatorBio    string `json:"creator_bio"`
	CreatorAvatar string `json:"creator_avatar"`

	// 关联
	Rewards  []RewardModel         `json:"rewards" gorm:"foreignKey:ProjectId"`
	Faqs     []ProjectFaqModel     `json:"faqs" gorm:"foreignKey:ProjectId"`
	Updates  []ProjectUpdateModel  `json:"updates" gorm:"foreignKey:ProjectId"`
	Comments []ProjectCommentModel `json:"comments" gorm:"foreignKey:ProjectId"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusDraft  ProjectStatus = "draft"  // 草稿
	ProjectStatusActive ProjectStatus = "active" // 进行中
	ProjectStatusFunded ProjectStatus = "funded" // 已达成目标
	ProjectStatusFailed ProjectStatus = "failed" // 截止未达成
)

// Valid 是否为已知状态
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusActive, ProjectStatusFunded, ProjectStatusFailed:
		return true
	}
	return false
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}

// FindReward 按ID查找回报档位
func (p *ProjectModel) FindReward(id string) *RewardModel {
	for i := range p.Rewards {
		if p.Rewards[i].Id == id {
			return &p.Rewards[i]
		}
	}
	return nil
}
