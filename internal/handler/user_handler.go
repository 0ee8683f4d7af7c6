package handler

import (
	"net/http"
	"time"

	"github.com/blues/fundmagic/internal/logic"
	"github.com/blues/fundmagic/internal/middleware"
	"github.com/blues/fundmagic/internal/model"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userLogic    *logic.UserLogic
	projectLogic *logic.ProjectLogic
	backingLogic *logic.BackingLogic
}

func NewUserHandler(userLogic *logic.UserLogic, projectLogic *logic.ProjectLogic, backingLogic *logic.BackingLogic) *UserHandler {
	return &UserHandler{
		userLogic:    userLogic,
		projectLogic: projectLogic,
		backingLogic: backingLogic,
	}
}

// GetProfile 当前用户资料
func (h *UserHandler) GetProfile(c *gin.Context) {
	h.writeUser(c, middleware.CurrentUser(c), false)
}

// UpdateProfile 修改当前用户资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userLogic.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), &logic.ProfileInput{
		Name:     req.Name,
		Bio:      req.Bio,
		Location: req.Location,
		Avatar:   req.Avatar,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.writeUser(c, user, false)
}

// GetUser 公开资料
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userLogic.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.writeUser(c, user, true)
}

// GetCreatedProjects 当前用户创建的项目
func (h *UserHandler) GetCreatedProjects(c *gin.Context) {
	projects, err := h.projectLogic.ListCreated(c.Request.Context(), middleware.CurrentUser(c).Id)
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", newProjectListResponse(projects, time.Now()))
}

// GetBackedProjects 当前用户的支持记录
func (h *UserHandler) GetBackedProjects(c *gin.Context) {
	backings, err := h.backingLogic.ListForUser(c.Request.Context(), middleware.CurrentUser(c).Id)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]BackingResponse, 0, len(backings))
	for i := range backings {
		out = append(out, newBackingResponse(&backings[i]))
	}
	SuccessResponse(c, http.StatusOK, "ok", out)
}

func (h *UserHandler) writeUser(c *gin.Context, user *model.UserModel, public bool) {
	backed, created, err := h.userLogic.ProjectLinks(c.Request.Context(), user.Id)
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", newUserResponse(user, backed, created, public))
}
