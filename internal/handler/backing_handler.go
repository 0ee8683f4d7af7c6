package handler

import (
	"net/http"

	"github.com/blues/fundmagic/internal/logic"
	"github.com/blues/fundmagic/internal/middleware"
	"github.com/blues/fundmagic/internal/model"
	"github.com/gin-gonic/gin"
)

type BackingHandler struct {
	backingLogic *logic.BackingLogic
}

func NewBackingHandler(backingLogic *logic.BackingLogic) *BackingHandler {
	return &BackingHandler{backingLogic: backingLogic}
}

// CreateBacking 支持项目
func (h *BackingHandler) CreateBacking(c *gin.Context) {
	var req PledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	amount, err := model.ToCents(req.Amount)
	if err != nil {
		bindError(c, err)
		return
	}

	result, err := h.backingLogic.Pledge(c.Request.Context(), middleware.CurrentUser(c), &logic.PledgeInput{
		ProjectId:     req.ProjectId,
		RewardId:      req.RewardId,
		Amount:        amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := newBackingResponse(&result.UserBacking)
	resp.ProjectStatus = string(result.ProjectStatus)
	SuccessResponse(c, http.StatusCreated, "pledge accepted", resp)
}

// GetProjectBackings 项目的支持记录，仅创建者可查看
func (h *BackingHandler) GetProjectBackings(c *gin.Context) {
	backings, err := h.backingLogic.ListForProject(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]ProjectBackingResponse, 0, len(backings))
	for i := range backings {
		out = append(out, newProjectBackingResponse(&backings[i]))
	}
	SuccessResponse(c, http.StatusOK, "ok", out)
}
