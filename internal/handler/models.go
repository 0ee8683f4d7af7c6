package handler

import (
	"fmt"
	"time"

	"github.com/blues/fundmagic/internal/logic"
	"github.com/blues/fundmagic/internal/model"
	"github.com/shopspring/decimal"
)

// 请求模型，金额以元为单位，最多两位小数

// RewardRequest 回报档位
type RewardRequest struct {
	Id                string          `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	EstimatedDelivery string          `json:"estimated_delivery"`
	IsLimited         bool            `json:"is_limited"`
	QuantityLimit     *int64          `json:"quantity_limit"`
	IsAvailable       *bool           `json:"is_available"`
}

// FaqRequest 常见问题
type FaqRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ProjectRequest 创建/更新项目。更新时 funding_goal、days_duration 和 draft 被忽略
type ProjectRequest struct {
	Title           string          `json:"title" binding:"required"`
	Subtitle        string          `json:"subtitle"`
	Description     string          `json:"description" binding:"required"`
	FullDescription string          `json:"full_description"`
	Category        string          `json:"category" binding:"required"`
	Image           string          `json:"image"`
	Video           string          `json:"video"`
	Location        string          `json:"location"`
	FundingGoal     decimal.Decimal `json:"funding_goal"`
	DaysDuration    int             `json:"days_duration"`
	Draft           bool            `json:"draft"`
	Rewards         []RewardRequest `json:"rewards"`
	Faqs            []FaqRequest    `json:"faqs"`
}

func (r *ProjectRequest) toInput() (*logic.ProjectInput, error) {
	goal, err := model.ToCents(r.FundingGoal)
	if err != nil {
		return nil, fmt.Errorf("funding_goal: %w", err)
	}

	in := &logic.ProjectInput{
		Title:           r.Title,
		Subtitle:        r.Subtitle,
		Description:     r.Description,
		FullDescription: r.FullDescription,
		Category:        r.Category,
		ImageURL:        r.Image,
		VideoURL:        r.Video,
		Location:        r.Location,
		FundingGoal:     goal,
		DaysDuration:    r.DaysDuration,
		Draft:           r.Draft,
	}
	for i, rw := range r.Rewards {
		amount, err := model.ToCents(rw.Amount)
		if err != nil {
			return nil, fmt.Errorf("rewards[%d].amount: %w", i, err)
		}
		in.Rewards = append(in.Rewards, logic.RewardInput{
			Id:                rw.Id,
			Title:             rw.Title,
			Description:       rw.Description,
			Amount:            amount,
			EstimatedDelivery: rw.EstimatedDelivery,
			IsLimited:         rw.IsLimited,
			QuantityLimit:     rw.QuantityLimit,
			IsAvailable:       rw.IsAvailable,
		})
	}
	for _, f := range r.Faqs {
		in.Faqs = append(in.Faqs, logic.FaqInput{Question: f.Question, Answer: f.Answer})
	}
	return in, nil
}

// StoryRequest 项目故事
type StoryRequest struct {
	Story string `json:"story"`
}

// UpdateRequest 项目进展
type UpdateRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Images  []string `json:"images"`
	Videos  []string `json:"videos"`
}

// CommentRequest 评论
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// PledgeRequest 支持请求
type PledgeRequest struct {
	ProjectId     string          `json:"project_id" binding:"required"`
	RewardId      string          `json:"reward_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

// RegisterRequest 注册
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Location string `json:"location"`
}

// LoginRequest 登录
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileRequest 修改资料
type ProfileRequest struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
	Avatar   *string `json:"avatar"`
}

// 响应模型

// RewardResponse 回报档位
type RewardResponse struct {
	Id                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Amount            float64 `json:"amount"`
	EstimatedDelivery string  `json:"estimated_delivery"`
	BackersCount      int64   `json:"backers_count"`
	IsLimited         bool    `json:"is_limited"`
	QuantityLimit     *int64  `json:"quantity_limit"`
	IsAvailable       bool    `json:"is_available"`
}

// FaqResponse 常见问题
type FaqResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// UpdateResponse 项目进展
type UpdateResponse struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Images    []string  `json:"images"`
	Videos    []string  `json:"videos"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentResponse 评论
type CommentResponse struct {
	Id         string    `json:"id"`
	UserId     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProjectResponse 项目，days_left 和 funding_percentage 在读取时计算
type ProjectResponse struct {
	Id                string            `json:"id"`
	Title             string            `json:"title"`
	Subtitle          string            `json:"subtitle"`
	Description       string            `json:"description"`
	FullDescription   string            `json:"full_description"`
	Story             string            `json:"story"`
	Category          string            `json:"category"`
	Image             string            `json:"image"`
	Video             string            `json:"video"`
	Location          string            `json:"location"`
	CreatorId         string            `json:"creator_id"`
	CreatorName       string            `json:"creator_name"`
	CreatorBio        string            `json:"creator_bio"`
	CreatorAvatar     string            `json:"creator_avatar"`
	FundingGoal       float64           `json:"funding_goal"`
	CurrentFunding    float64           `json:"current_funding"`
	BackersCount      int64             `json:"backers_count"`
	DaysLeft          int               `json:"days_left"`
	FundingPercentage float64           `json:"funding_percentage"`
	Status            string            `json:"status"`
	IsFeatured        bool              `json:"is_featured"`
	CreatedAt         time.Time         `json:"created_at"`
	EndDate           time.Time         `json:"end_date"`
	Rewards           []RewardResponse  `json:"rewards"`
	Faqs              []FaqResponse     `json:"faqs"`
	Updates           []UpdateResponse  `json:"updates"`
	Comments          []CommentResponse `json:"comments"`
}

// BackingResponse 支持记录（支持者视角）
type BackingResponse struct {
	Id            string    `json:"id"`
	UserId        string    `json:"user_id"`
	ProjectId     string    `json:"project_id"`
	ProjectTitle  string    `json:"project_title"`
	ProjectImage  string    `json:"project_image"`
	RewardId      *string   `json:"reward_id"`
	RewardTitle   string    `json:"reward_title,omitempty"`
	Amount        float64   `json:"amount"`
	PaymentStatus string    `json:"payment_status"`
	PaymentMethod string    `json:"payment_method"`
	TransactionId string    `json:"transaction_id"`
	BackedAt      time.Time `json:"backed_at"`
	ProjectStatus string    `json:"project_status,omitempty"`
}

// ProjectBackingResponse 支持记录（创建者视角）
type ProjectBackingResponse struct {
	Id            string    `json:"id"`
	UserId        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
	RewardId      *string   `json:"reward_id"`
	Amount        float64   `json:"amount"`
	PaymentStatus string    `json:"payment_status"`
	BackedAt      time.Time `json:"backed_at"`
}

// UserResponse 用户资料，公开资料不返回邮箱
type UserResponse struct {
	Id              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Avatar          string    `json:"avatar"`
	Bio             string    `json:"bio"`
	Location        string    `json:"location"`
	MemberSince     time.Time `json:"member_since"`
	BackedProjects  []string  `json:"backed_projects"`
	CreatedProjects []string  `json:"created_projects"`
	TotalPledged    float64   `json:"total_pledged"`
}

// AuthResponse 注册/登录
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// CategoryResponse 分类
type CategoryResponse struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Description  string `json:"description"`
	ProjectCount int64  `json:"project_count"`
}

func newProjectResponse(p *model.ProjectModel, now time.Time) ProjectResponse {
	resp := ProjectResponse{
		Id:                p.Id,
		Title:             p.Title,
		Subtitle:          p.Subtitle,
		Description:       p.Description,
		FullDescription:   p.FullDescription,
		Story:             p.Story,
		Category:          p.Category,
		Image:             p.ImageURL,
		Video:             p.VideoURL,
		Location:          p.Location,
		CreatorId:         p.CreatorId,
		CreatorName:       p.CreatorName,
		CreatorBio:        p.CreatorBio,
		CreatorAvatar:     p.CreatorAvatar,
		FundingGoal:       model.CentsToFloat(p.FundingGoal),
		CurrentFunding:    model.CentsToFloat(p.CurrentFunding),
		BackersCount:      p.BackersCount,
		DaysLeft:          logic.DaysLeft(p.EndDate, now),
		FundingPercentage: logic.FundingPercentage(p.CurrentFunding, p.FundingGoal),
		Status:            string(p.Status),
		IsFeatured:        p.IsFeatured,
		CreatedAt:         p.CreatedAt,
		EndDate:           p.EndDate,
		Rewards:           make([]RewardResponse, 0, len(p.Rewards)),
		Faqs:              make([]FaqResponse, 0, len(p.Faqs)),
		Updates:           make([]UpdateResponse, 0, len(p.Updates)),
		Comments:          make([]CommentResponse, 0, len(p.Comments)),
	}
	for _, r := range p.Rewards {
		resp.Rewards = append(resp.Rewards, RewardResponse{
			Id:                r.Id,
			Title:             r.Title,
			Description:       r.Description,
			Amount:            model.CentsToFloat(r.Amount),
			EstimatedDelivery: r.EstimatedDelivery,
			BackersCount:      r.BackersCount,
			IsLimited:         r.IsLimited,
			QuantityLimit:     r.QuantityLimit,
			IsAvailable:       r.IsAvailable,
		})
	}
	for _, f := range p.Faqs {
		resp.Faqs = append(resp.Faqs, FaqResponse{Question: f.Question, Answer: f.Answer})
	}
	for i := range p.Updates {
		resp.Updates = append(resp.Updates, newUpdateResponse(&p.Updates[i]))
	}
	for i := range p.Comments {
		resp.Comments = append(resp.Comments, newCommentResponse(&p.Comments[i]))
	}
	return resp
}

func newProjectListResponse(projects []model.ProjectModel, now time.Time) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, newProjectResponse(&projects[i], now))
	}
	return out
}

func newUpdateResponse(u *model.ProjectUpdateModel) UpdateResponse {
	return UpdateResponse{
		Id:        u.Id,
		Title:     u.Title,
		Content:   u.Content,
		Images:    nonNilStrings(u.Images),
		Videos:    nonNilStrings(u.Videos),
		CreatedAt: u.CreatedAt,
	}
}

func newCommentResponse(c *model.ProjectCommentModel) CommentResponse {
	return CommentResponse{
		Id:         c.Id,
		UserId:     c.UserId,
		UserName:   c.UserName,
		UserAvatar: c.UserAvatar,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

func newBackingResponse(b *logic.UserBacking) BackingResponse {
	return BackingResponse{
		Id:            b.Id,
		UserId:        b.UserId,
		ProjectId:     b.ProjectId,
		ProjectTitle:  b.ProjectTitle,
		ProjectImage:  b.ProjectImage,
		RewardId:      b.RewardId,
		RewardTitle:   b.RewardTitle,
		Amount:        model.CentsToFloat(b.Amount),
		PaymentStatus: string(b.PaymentStatus),
		PaymentMethod: b.PaymentMethod,
		TransactionId: b.TransactionId,
		BackedAt:      b.BackedAt,
	}
}

func newProjectBackingResponse(b *logic.ProjectBacking) ProjectBackingResponse {
	return ProjectBackingResponse{
		Id:            b.Id,
		UserId:        b.UserId,
		UserName:      b.BackerName,
		UserEmail:     b.BackerEmail,
		RewardId:      b.RewardId,
		Amount:        model.CentsToFloat(b.Amount),
		PaymentStatus: string(b.PaymentStatus),
		BackedAt:      b.BackedAt,
	}
}

func newUserResponse(u *model.UserModel, backed, created []string, public bool) UserResponse {
	resp := UserResponse{
		Id:              u.Id,
		Name:            u.Name,
		Email:           u.Email,
		Avatar:          u.Avatar,
		Bio:             u.Bio,
		Location:        u.Location,
		MemberSince:     u.CreatedAt,
		BackedProjects:  nonNilStrings(backed),
		CreatedProjects: nonNilStrings(created),
		TotalPledged:    model.CentsToFloat(u.TotalPledged),
	}
	if public {
		resp.Email = ""
	}
	return resp
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
