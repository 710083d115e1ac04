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

type CategoryHandler struct {
	categoryService catalog.CategoryService
}

func NewCategoryHandler(categoryService catalog.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Create creates a category.
// @Summary 创建分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "分类信息"
// @Success 201 {object} xerr.Response "创建成功"
// @Failure 400 {object} xerr.Response "分类名已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.respondCategoryError(c, err, "创建分类失败")
		return
	}

	xerr.Success(c, http.StatusCreated, "分类创建成功", gin.H{"category": category})
}

// List returns all categories.
// @Summary 分类列表
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "分类列表"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		logger.Error("List: 查询分类列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "查询分类列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取分类列表成功", gin.H{"categories": list})
}

// Get returns a single category.
// @Summary 分类详情
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Success 200 {object} xerr.Response "分类详情"
// @Failure 404 {object} xerr.Response "分类不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	category, err := h.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondCategoryError(c, err, "查询分类失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取分类成功", gin.H{"category": category})
}

// Update modifies a category.
// @Summary 更新分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Param request body UpdateCategoryRequest true "要更新的字段"
// @Success 200 {object} xerr.Response "更新成功"
// @Failure 404 {object} xerr.Response "分类不存在"
// @Failure 400 {object} xerr.Response "分类名已存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		h.respondCategoryError(c, err, "更新分类失败")
		return
	}

	xerr.Success(c, http.StatusOK, "分类更新成功", gin.H{"category": category})
}

// Delete removes a category.
// @Summary 删除分类
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "分类不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		h.respondCategoryError(c, err, "删除分类失败")
		return
	}

	xerr.Success(c, http.StatusOK, "分类删除成功", nil)
}

func (h *CategoryHandler) respondCategoryError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, xerr.ErrCategoryNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.CategoryNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrCategoryAlreadyExists):
		xerr.Error(c, http.StatusBadRequest, xerr.CategoryAlreadyExistsCode, err.Error())
	case errors.Is(err, xerr.ErrInvalidParams):
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, fallback)
	}
}
