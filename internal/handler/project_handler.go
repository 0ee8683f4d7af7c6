package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/blues/fundmagic/internal/logic"
	"github.com/blues/fundmagic/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
}

func NewProjectHandler(projectLogic *logic.ProjectLogic) *ProjectHandler {
	return &ProjectHandler{projectLogic: projectLogic}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projectLogic.Create(c.Request.Context(), in, middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "project created", newProjectResponse(project, time.Now()))
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	filter, err := parseProjectFilter(c)
	if err != nil {
		bindError(c, err)
		return
	}
	h.listProjects(c, filter)
}

// GetProject 获取单个项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectLogic.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", newProjectResponse(project, time.Now()))
}

// UpdateProject 更新项目
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projectLogic.Update(c.Request.Context(), c.Param("id"), in, middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "project updated", newProjectResponse(project, time.Now()))
}

// PublishProject 发布草稿
func (h *ProjectHandler) PublishProject(c *gin.Context) {
	project, err := h.projectLogic.Publish(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "project published", newProjectResponse(project, time.Now()))
}

// DeleteProject 删除项目
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectLogic.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "project deleted", nil)
}

// UpdateStory 更新项目故事
func (h *ProjectHandler) UpdateStory(c *gin.Context) {
	var req StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projectLogic.UpdateStory(c.Request.Context(), c.Param("id"), req.Story, middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "story updated", newProjectResponse(project, time.Now()))
}

// AddUpdate 追加项目进展
func (h *ProjectHandler) AddUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	update, err := h.projectLogic.AppendUpdate(c.Request.Context(), c.Param("id"), &logic.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Images:  req.Images,
		Videos:  req.Videos,
	}, middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "update added", newUpdateResponse(update))
}

// AddComment 追加评论
func (h *ProjectHandler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comment, err := h.projectLogic.AppendComment(c.Request.Context(), c.Param("id"), req.Content, middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "comment added", newCommentResponse(comment))
}

func (h *ProjectHandler) listProjects(c *gin.Context, filter logic.ProjectFilter) {
	projects, err := h.projectLogic.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", newProjectListResponse(projects, time.Now()))
}

// parseProjectFilter 解析列表查询参数
func parseProjectFilter(c *gin.Context) (logic.ProjectFilter, error) {
	filter := logic.ProjectFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sort_by"),
	}

	if v := c.Query("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errInvalidQuery("featured")
		}
		filter.Featured = &featured
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, errInvalidQuery("limit")
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errInvalidQuery("offset")
		}
		filter.Offset = offset
	}
	return filter, nil
}

type errInvalidQuery string

func (e errInvalidQuery) Error() string {
	return "invalid query parameter: " + string(e)
}
