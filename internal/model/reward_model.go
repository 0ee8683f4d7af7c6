package model

import (
	"time"
)

// RewardModel 项目回报档位
type RewardModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId         string `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Position          int    `json:"position" gorm:"not null"`
	Title             string `json:"title" gorm:"not null"`
	Description       string `json:"description" gorm:"type:text"`
	Amount            int64  `json:"amount" gorm:"not null"` // 最低支持金额（分）
	EstimatedDelivery string `json:"estimated_delivery"`

	IsLimited     bool   `json:"is_limited"`
	QuantityLimit *int64 `json:"quantity_limit"`
	BackersCount  int64  `json:"backers_count" gorm:"not null;default:0"`
	IsAvailable   bool   `json:"is_available"`
}

// TableName 自定义表名
func (RewardModel) TableName() string {
	return "project_reward"
}

// SoldOut 限量档位是否已售罄
func (r *RewardModel) SoldOut() bool {
	return r.IsLimited && r.QuantityLimit != nil && r.BackersCount >= *r.QuantityLimit
}
