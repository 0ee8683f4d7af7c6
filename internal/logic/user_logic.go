package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blues/fundmagic/internal/auth"
	"github.com/blues/fundmagic/internal/logger"
	"github.com/blues/fundmagic/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserLogic 用户注册、登录和资料
type UserLogic struct {
	db     *gorm.DB
	tokens *auth.TokenManager
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB, tokens *auth.TokenManager) *UserLogic {
	return &UserLogic{db: db, tokens: tokens}
}

// RegisterInput 注册参数
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Location string
}

// ProfileInput 资料修改参数，nil 字段保持不变
type ProfileInput struct {
	Name     *string
	Bio      *string
	Location *string
	Avatar   *string
}

// Session 登录凭证
type Session struct {
	Token string
	User  *model.UserModel
}

// Register 注册新用户并签发令牌
func (l *UserLogic) Register(ctx context.Context, in *RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, invalid("name and email are required")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, invalid(err.Error())
	}

	db := l.db.WithContext(ctx)
	var count int64
	if err := db.Model(&model.UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if count > 0 {
		return nil, conflict("email already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.UserModel{
		Id:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Location:     strings.TrimSpace(in.Location),
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("email already registered")
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	logger.Info("user %s registered", user.Id)
	return l.session(user)
}

// Login 校验邮箱和密码并签发令牌
func (l *UserLogic) Login(ctx context.Context, email, password string) (*Session, error) {
	var user model.UserModel
	err := l.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthenticated(auth.ErrInvalidCredentials.Error())
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, unauthenticated(err.Error())
	}
	if !user.IsActive {
		return nil, unauthenticated("account is deactivated")
	}
	return l.session(&user)
}

// Authenticate 根据令牌加载当前用户
func (l *UserLogic) Authenticate(ctx context.Context, token string) (*model.UserModel, error) {
	claims, err := l.tokens.Validate(token)
	if err != nil {
		return nil, unauthenticated(auth.ErrInvalidToken.Error())
	}

	var user model.UserModel
	if err := l.db.WithContext(ctx).First(&user, "id = ?", claims.Subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthenticated("user not found")
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if !user.IsActive {
		return nil, unauthenticated("account is deactivated")
	}
	return &user, nil
}

// GetUser 获取用户
func (l *UserLogic) GetUser(ctx context.Context, id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := l.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user not found")
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

// UpdateProfile 修改用户资料
func (l *UserLogic) UpdateProfile(ctx context.Context, user *model.UserModel, in *ProfileInput) (*model.UserModel, error) {
	updates := make(map[string]interface{})
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name must not be empty")
		}
		updates["name"] = name
	}
	if in.Bio != nil {
		updates["bio"] = *in.Bio
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.Avatar != nil {
		updates["avatar"] = *in.Avatar
	}

	if len(updates) > 0 {
		if err := l.db.WithContext(ctx).Model(&model.UserModel{Id: user.Id}).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("更新用户资料失败: %w", err)
		}
	}
	return l.GetUser(ctx, user.Id)
}

// ProjectLinks 用户支持过和创建的项目ID，按追加顺序
func (l *UserLogic) ProjectLinks(ctx context.Context, userID string) (backed, created []string, err error) {
	var links []model.UserProjectModel
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("seq ASC").Find(&links).Error; err != nil {
		return nil, nil, fmt.Errorf("查询用户项目失败: %w", err)
	}

	backed, created = []string{}, []string{}
	for _, link := range links {
		switch link.Relation {
		case model.UserRelationBacked:
			backed = append(backed, link.ProjectId)
		case model.UserRelationCreated:
			created = append(created, link.ProjectId)
		}
	}
	return backed, created, nil
}

func (l *UserLogic) session(user *model.UserModel) (*Session, error) {
	token, err := l.tokens.Generate(user.Id)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
