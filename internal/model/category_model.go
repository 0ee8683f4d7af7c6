package model

// CategoryModel 项目分类，启动时写入，之后只读
type CategoryModel struct {
	Id          string `json:"id" gorm:"primaryKey;type:varchar(32)"`
	Position    int    `json:"-" gorm:"not null"`
	Name        string `json:"name" gorm:"not null"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// TableName 自定义表名
func (CategoryModel) TableName() string {
	return "category"
}

// DefaultCategories 初始分类
func DefaultCategories() []CategoryModel {
	return []CategoryModel{
		{Id: "illusion", Position: 1, Name: "Illusion & Stage Magic", Icon: "🎩", Description: "Grand illusions and stage performances"},
		{Id: "closeup", Position: 2, Name: "Close-up Magic", Icon: "🃏", Description: "Intimate magic performed up close"},
		{Id: "mentalism", Position: 3, Name: "Mentalism", Icon: "🧠", Description: "Mind reading and psychological magic"},
		{Id: "props", Position: 4, Name: "Magic Props & Apparatus", Icon: "🪄", Description: "Magical devices and apparatus"},
		{Id: "education", Position: 5, Name: "Magic Education", Icon: "📚", Description: "Teaching and learning magic"},
		{Id: "digital", Position: 6, Name: "Digital & Tech Magic", Icon: "💻", Description: "Technology-enhanced magic"},
		{Id: "comedy", Position: 7, Name: "Comedy Magic", Icon: "🎭", Description: "Humorous magical performances"},
		{Id: "events", Position: 8, Name: "Magic Events & Shows", Icon: "🎪", Description: "Magic shows and events"},
	}
}
