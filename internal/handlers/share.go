package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/services/share"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShareHandler struct {
	shareService share.ShareService
}

func NewShareHandler(shareService share.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

// Generate issues a share link for a model, reusing the caller's
// active unexpired one if present.
// @Summary 生成分享链接
// @Description 为模型生成分享链接；调用者已有未过期的激活分享时直接复用
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param modelId path int true "模型 ID"
// @Success 200 {object} xerr.Response "分享链接"
// @Failure 404 {object} xerr.Response "模型不存在"
// @Router /api/shared/generate/{modelId} [post]
func (h *ShareHandler) Generate(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		xerr.Error(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "未认证")
		return
	}
	modelID, ok := parseModelIDParam(c)
	if !ok {
		return
	}

	view, err := h.shareService.IssueOrReuse(c.Request.Context(), modelID, userID)
	if err != nil {
		h.respondShareError(c, err, "生成分享链接失败")
		return
	}

	xerr.Success(c, http.StatusOK, "分享链接生成成功", view)
}

// Disable deactivates a model's current active share.
// @Summary 禁用分享链接
// @Description 禁用模型当前激活的分享链接；无激活分享时返回 404
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param modelId path int true "模型 ID"
// @Success 200 {object} xerr.Response "禁用成功"
// @Failure 404 {object} xerr.Response "没有激活的分享链接"
// @Router /api/shared/disable/{modelId} [post]
func (h *ShareHandler) Disable(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		xerr.Error(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "未认证")
		return
	}
	modelID, ok := parseModelIDParam(c)
	if !ok {
		return
	}

	if err := h.shareService.Disable(c.Request.Context(), modelID, userID); err != nil {
		h.respondShareError(c, err, "禁用分享链接失败")
		return
	}

	xerr.Success(c, http.StatusOK, "分享链接已禁用", nil)
}

// Status reports the latest share state for a model.
// @Summary 查询分享状态
// @Description 返回模型最近一条分享的状态；从未分享时 isShared 为 false
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param modelId path int true "模型 ID"
// @Success 200 {object} xerr.Response "分享状态"
// @Router /api/shared/status/{modelId} [get]
func (h *ShareHandler) Status(c *gin.Context) {
	modelID, ok := parseModelIDParam(c)
	if !ok {
		return
	}

	status, err := h.shareService.GetStatus(c.Request.Context(), modelID)
	if err != nil {
		h.respondShareError(c, err, "查询分享状态失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取分享状态成功", status)
}

// MyShares lists all share records in the system, paginated.
// @Summary 分享记录列表
// @Description 分页返回系统内全部分享记录
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认 1"
// @Param pageSize query int false "每页数量，默认 10"
// @Success 200 {object} xerr.Response "分享记录列表"
// @Router /api/shared/my-shares [get]
func (h *ShareHandler) MyShares(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	links, meta, err := h.shareService.ListAll(c.Request.Context(), page, pageSize)
	if err != nil {
		h.respondShareError(c, err, "查询分享列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取分享列表成功", gin.H{
		"shares":     links,
		"pagination": meta,
	})
}

func (h *ShareHandler) respondShareError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, xerr.ErrModelNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.ModelNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrShareNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrShareGone):
		xerr.Error(c, http.StatusGone, xerr.ShareGoneCode, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, fallback)
	}
}

// parseModelIDParam 解析路径中的 :modelId 参数
func parseModelIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("modelId"), 10, 64)
	if err != nil || id == 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的模型 ID")
		return 0, false
	}
	return id, true
}
