package handlers

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/services/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TagHandler struct {
	tagService catalog.TagService
}

func NewTagHandler(tagService catalog.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

type TagRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// Create creates a tag.
// @Summary 创建标签
// @Tags 标签
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TagRequest true "标签信息"
// @Success 201 {object} xerr.Response "创建成功"
// @Failure 400 {object} xerr.Response "标签名已存在"
// @Router /api/v1/tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	tag, err := h.tagService.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.respondTagError(c, err, "创建标签失败")
		return
	}

	xerr.Success(c, http.StatusCreated, "标签创建成功", gin.H{"tag": tag})
}

// List returns all tags.
// @Summary 标签列表
// @Tags 标签
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "标签列表"
// @Router /api/v1/tags [get]
func (h *TagHandler) List(c *gin.Context) {
	list, err := h.tagService.List(c.Request.Context())
	if err != nil {
		logger.Error("List: 查询标签列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "查询标签列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取标签列表成功", gin.H{"tags": list})
}

// Get returns a single tag.
// @Summary 标签详情
// @Tags 标签
// @Produce json
// @Security BearerAuth
// @Param id path int true "标签 ID"
// @Success 200 {object} xerr.Response "标签详情"
// @Failure 404 {object} xerr.Response "标签不存在"
// @Router /api/v1/tags/{id} [get]
func (h *TagHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	tag, err := h.tagService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondTagError(c, err, "查询标签失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取标签成功", gin.H{"tag": tag})
}

// Update renames a tag.
// @Summary 更新标签
// @Tags 标签
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "标签 ID"
// @Param request body TagRequest true "新标签名"
// @Success 200 {object} xerr.Response "更新成功"
// @Failure 404 {object} xerr.Response "标签不存在"
// @Failure 400 {object} xerr.Response "标签名已存在"
// @Router /api/v1/tags/{id} [put]
func (h *TagHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	tag, err := h.tagService.Update(c.Request.Context(), id, req.Name)
	if err != nil {
		h.respondTagError(c, err, "更新标签失败")
		return
	}

	xerr.Success(c, http.StatusOK, "标签更新成功", gin.H{"tag": tag})
}

// Delete removes a tag.
// @Summary 删除标签
// @Tags 标签
// @Produce json
// @Security BearerAuth
// @Param id path int true "标签 ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "标签不存在"
// @Router /api/v1/tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.tagService.Delete(c.Request.Context(), id); err != nil {
		h.respondTagError(c, err, "删除标签失败")
		return
	}

	xerr.Success(c, http.StatusOK, "标签删除成功", nil)
}

func (h *TagHandler) respondTagError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, xerr.ErrTagNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.TagNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrTagAlreadyExists):
		xerr.Error(c, http.StatusBadRequest, xerr.TagAlreadyExistsCode, err.Error())
	case errors.Is(err, xerr.ErrInvalidParams):
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, fallback)
	}
}
