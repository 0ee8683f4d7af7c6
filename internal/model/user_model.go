package model

import (
	"time"
)

// UserModel 平台用户
type UserModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"member_since"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Avatar       string `json:"avatar"`
	Bio          string `json:"bio" gorm:"type:text"`
	Location     string `json:"location"`
	IsActive     bool   `json:"is_active"`

	TotalPledged int64 `json:"total_pledged" gorm:"not null;default:0"` // 分
}

// TableName 自定义表名
func (UserModel) TableName() string {
	return "user_account"
}

// UserProjectModel 用户与项目的关系（创建 / 支持），按 Seq 保持追加顺序
type UserProjectModel struct {
	Seq       int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`

	UserId    string       `gorm:"type:varchar(36);not null;index"`
	ProjectId string       `gorm:"type:varchar(36);not null;index"`
	Relation  UserRelation `gorm:"type:varchar(16);not null"`
}

// UserRelation 用户项目关系类型
type UserRelation string

const (
	UserRelationCreated UserRelation = "created" // 创建的项目
	UserRelationBacked  UserRelation = "backed"  // 支持的项目（不去重）
)

// TableName 自定义表名
func (UserProjectModel) TableName() string {
	return "user_project"
}
