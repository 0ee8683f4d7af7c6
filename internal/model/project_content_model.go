package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProjectFaqModel 项目常见问题
type ProjectFaqModel struct {
	Id        int64  `json:"-" gorm:"primaryKey;autoIncrement"`
	ProjectId string `json:"-" gorm:"type:varchar(36);not null;index"`
	Position  int    `json:"-" gorm:"not null"`
	Question  string `json:"question" gorm:"type:text;not null"`
	Answer    string `json:"answer" gorm:"type:text;not null"`
}

// TableName 自定义表名
func (ProjectFaqModel) TableName() string {
	return "project_faq"
}

// ProjectUpdateModel 项目进展（只追加）
type ProjectUpdateModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	ProjectId string                      `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Title     string                      `json:"title" gorm:"not null"`
	Content   string                      `json:"content" gorm:"type:text"`
	Images    datatypes.JSONSlice[string] `json:"images"`
	Videos    datatypes.JSONSlice[string] `json:"videos"`
}

// TableName 自定义表名
func (ProjectUpdateModel) TableName() string {
	return "project_update"
}

// ProjectCommentModel 项目评论（只追加）
type ProjectCommentModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	ProjectId  string `json:"project_id" gorm:"type:varchar(36);not null;index"`
	UserId     string `json:"user_id" gorm:"type:varchar(36);not null"`
	UserName   string `json:"user_name"`
	UserAvatar string `json:"user_avatar"`
	Content    string `json:"content" gorm:"type:text;not null"`
}

// TableName 自定义表名
func (ProjectCommentModel) TableName() string {
	return "project_comment"
}
