package handler

import (
	"net/http"

	"github.com/blues/fundmagic/internal/logic"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryLogic  *logic.CategoryLogic
	projectHandler *ProjectHandler
}

func NewCategoryHandler(categoryLogic *logic.CategoryLogic, projectHandler *ProjectHandler) *CategoryHandler {
	return &CategoryHandler{categoryLogic: categoryLogic, projectHandler: projectHandler}
}

// GetCategories 分类及项目数
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categoryLogic.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, CategoryResponse{
			Id:           cat.Id,
			Name:         cat.Name,
			Icon:         cat.Icon,
			Description:  cat.Description,
			ProjectCount: cat.ProjectCount,
		})
	}
	SuccessResponse(c, http.StatusOK, "ok", out)
}

// GetCategoryProjects 分类下的项目，其余查询参数与项目列表一致
func (h *CategoryHandler) GetCategoryProjects(c *gin.Context) {
	category, err := h.categoryLogic.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	filter, err := parseProjectFilter(c)
	if err != nil {
		bindError(c, err)
		return
	}
	filter.Category = category.Id
	h.projectHandler.listProjects(c, filter)
}
