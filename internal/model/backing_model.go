package model

import (
	"time"
)

// BackingModel 支持记录，创建后不再修改
type BackingModel struct {
	Id       string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BackedAt time.Time `json:"backed_at" gorm:"not null;index"`

	UserId        string        `json:"user_id" gorm:"type:varchar(36);not null;index"`
	ProjectId     string        `json:"project_id" gorm:"type:varchar(36);not null;index"`
	RewardId      *string       `json:"reward_id" gorm:"type:varchar(36)"`
	Amount        int64         `json:"amount" gorm:"not null"` // 分
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(16);not null"`
	PaymentMethod string        `json:"payment_method"`
	TransactionId string        `json:"transaction_id" gorm:"type:varchar(36);uniqueIndex"`
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // 待支付
	PaymentStatusCompleted PaymentStatus = "completed" // 已完成
	PaymentStatusFailed    PaymentStatus = "failed"    // 失败
	PaymentStatusRefunded  PaymentStatus = "refunded"  // 已退款
)

// TableName 自定义表名
func (BackingModel) TableName() string {
	return "backing"
}
