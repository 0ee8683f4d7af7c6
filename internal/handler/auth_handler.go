package handler

import (
	"net/http"

	"github.com/blues/fundmagic/internal/logic"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userLogic *logic.UserLogic
}

func NewAuthHandler(userLogic *logic.UserLogic) *AuthHandler {
	return &AuthHandler{userLogic: userLogic}
}

// Register 注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.userLogic.Register(c.Request.Context(), &logic.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Location: req.Location,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "registered", newAuthResponse(session))
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.userLogic.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "logged in", newAuthResponse(session))
}

// Logout 令牌无状态，客户端丢弃即可
func (h *AuthHandler) Logout(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "successfully logged out", nil)
}

func newAuthResponse(s *logic.Session) AuthResponse {
	return AuthResponse{
		AccessToken: s.Token,
		TokenType:   "bearer",
		User:        newUserResponse(s.User, nil, nil, false),
	}
}
