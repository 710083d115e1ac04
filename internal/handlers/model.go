package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"github.com/3Eeeecho/go-modelhub/internal/services/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ModelHandler struct {
	modelService catalog.ModelService
}

func NewModelHandler(modelService catalog.ModelService) *ModelHandler {
	return &ModelHandler{modelService: modelService}
}

type UpdateModelRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	CategoryID  *uint64   `json:"categoryId"`
	ClearCat    bool      `json:"clearCategory"`
	TagIDs      *[]uint64 `json:"tagIds"`
	IsActive    *bool     `json:"isActive"`
}

// Upload handles a multipart model upload.
// @Summary 上传模型
// @Description 上传 .glb 模型文件并登记元数据，文件作为 multipart 的 file 字段
// @Tags 模型
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "模型文件（.glb）"
// @Param name formData string true "模型名称"
// @Param description formData string false "模型描述"
// @Param categoryId formData int false "分类 ID"
// @Success 201 {object} xerr.Response "上传成功"
// @Failure 400 {object} xerr.Response "文件类型或大小不符合要求"
// @Failure 404 {object} xerr.Response "分类或标签不存在"
// @Router /api/v1/models [post]
func (h *ModelHandler) Upload(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		xerr.Error(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "未认证")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "缺少模型文件")
		return
	}

	name := c.PostForm("name")
	if name == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "模型名称不能为空")
		return
	}

	var categoryID *uint64
	if raw := c.PostForm("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的分类 ID")
			return
		}
		categoryID = &id
	}

	var tagIDs []uint64
	for _, raw := range c.PostFormArray("tagIds") {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的标签 ID")
			return
		}
		tagIDs = append(tagIDs, id)
	}

	src, err := fileHeader.Open()
	if err != nil {
		logger.Error("Upload: 打开上传文件失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "读取上传文件失败")
		return
	}
	defer src.Close()

	model, err := h.modelService.Upload(c.Request.Context(), userID, catalog.UploadModelInput{
		Name:        name,
		Description: c.PostForm("description"),
		CategoryID:  categoryID,
		TagIDs:      tagIDs,
		FileName:    fileHeader.Filename,
		FileSize:    fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Reader:      src,
	})
	if err != nil {
		h.respondModelError(c, err, "模型上传失败")
		return
	}

	xerr.Success(c, http.StatusCreated, "模型上传成功", gin.H{"model": model})
}

// List returns the model catalog, optionally filtered.
// @Summary 模型列表
// @Description 列出模型，支持按分类和标签过滤
// @Tags 模型
// @Produce json
// @Security BearerAuth
// @Param categoryId query int false "按分类过滤"
// @Param tagId query int false "按标签过滤"
// @Success 200 {object} xerr.Response "模型列表"
// @Router /api/v1/models [get]
func (h *ModelHandler) List(c *gin.Context) {
	filter := repositories.ModelFilter{OnlyActive: true}
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的分类 ID")
			return
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("tagId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的标签 ID")
			return
		}
		filter.TagID = &id
	}

	list, err := h.modelService.List(c.Request.Context(), filter)
	if err != nil {
		logger.Error("List: 查询模型列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "查询模型列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取模型列表成功", gin.H{"models": list})
}

// Get returns a single model with its category and tags.
// @Summary 模型详情
// @Tags 模型
// @Produce json
// @Security BearerAuth
// @Param id path int true "模型 ID"
// @Success 200 {object} xerr.Response "模型详情"
// @Failure 404 {object} xerr.Response "模型不存在"
// @Router /api/v1/models/{id} [get]
func (h *ModelHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	model, err := h.modelService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondModelError(c, err, "查询模型失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取模型成功", gin.H{"model": model})
}

// Update modifies a model's metadata.
// @Summary 更新模型
// @Description 更新模型元数据，文件本身不可替换
// @Tags 模型
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "模型 ID"
// @Param request body UpdateModelRequest true "要更新的字段"
// @Success 200 {object} xerr.Response "更新成功"
// @Failure 404 {object} xerr.Response "模型不存在"
// @Router /api/v1/models/{id} [put]
func (h *ModelHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	model, err := h.modelService.Update(c.Request.Context(), id, catalog.UpdateModelInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		ClearCat:    req.ClearCat,
		TagIDs:      req.TagIDs,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.respondModelError(c, err, "更新模型失败")
		return
	}

	xerr.Success(c, http.StatusOK, "模型更新成功", gin.H{"model": model})
}

// Delete removes a model and its stored file.
// @Summary 删除模型
// @Tags 模型
// @Produce json
// @Security BearerAuth
// @Param id path int true "模型 ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "模型不存在"
// @Router /api/v1/models/{id} [delete]
func (h *ModelHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.modelService.Delete(c.Request.Context(), id); err != nil {
		h.respondModelError(c, err, "删除模型失败")
		return
	}

	xerr.Success(c, http.StatusOK, "模型删除成功", nil)
}

// Search performs full-text search over model names and descriptions.
// @Summary 搜索模型
// @Tags 模型
// @Produce json
// @Security BearerAuth
// @Param q query string true "搜索关键字"
// @Param limit query int false "返回数量上限，默认 20"
// @Success 200 {object} xerr.Response "搜索结果"
// @Router /api/v1/models/search [get]
func (h *ModelHandler) Search(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "搜索关键字不能为空")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	list, err := h.modelService.Search(c.Request.Context(), keyword, limit)
	if err != nil {
		if errors.Is(err, xerr.ErrSearchError) {
			xerr.Error(c, http.StatusInternalServerError, xerr.SearchErrorCode, err.Error())
		} else {
			logger.Error("Search: 搜索模型失败", zap.String("keyword", keyword), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "搜索模型失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "搜索成功", gin.H{"models": list})
}

// Content streams the raw model file bytes.
// 该路由由分享密钥中间件保护，不走 Bearer 认证
// @Summary 模型文件内容
// @Description 流式返回模型文件字节，供查看器加载，需携带有效分享 key
// @Tags 查看器
// @Produce application/octet-stream
// @Param id path int true "模型 ID"
// @Param token query string true "分享密钥"
// @Success 200 {file} binary "模型文件"
// @Failure 404 {object} xerr.Response "模型或分享不存在"
// @Router /api/view/{id}/model [get]
func (h *ModelHandler) Content(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	content, err := h.modelService.GetContent(c.Request.Context(), id)
	if err != nil {
		h.respondModelError(c, err, "读取模型文件失败")
		return
	}
	defer content.Reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", content.FileName))
	c.Header("Content-Type", content.MimeType)
	if content.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(content.Size, 10))
	}
	if _, err := io.Copy(c.Writer, content.Reader); err != nil {
		logger.Warn("Content: 传输模型文件中断", zap.Uint64("modelID", id), zap.Error(err))
	}
}

// Info returns model metadata for the viewer page.
// @Summary 模型查看元数据
// @Tags 查看器
// @Produce json
// @Param id path int true "模型 ID"
// @Param token query string true "分享密钥"
// @Success 200 {object} xerr.Response "模型元数据"
// @Router /api/view/{id}/info [get]
func (h *ModelHandler) Info(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	model, err := h.modelService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondModelError(c, err, "查询模型失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取模型成功", gin.H{"model": model})
}

func (h *ModelHandler) respondModelError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, xerr.ErrModelNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.ModelNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrCategoryNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.CategoryNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrTagNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.TagNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrFileTooLarge):
		xerr.Error(c, http.StatusBadRequest, xerr.FileTooLargeCode, err.Error())
	case errors.Is(err, xerr.ErrFileTypeInvalid):
		xerr.Error(c, http.StatusBadRequest, xerr.FileTypeInvalidCode, err.Error())
	case errors.Is(err, xerr.ErrInvalidParams):
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
	case errors.Is(err, xerr.ErrStorageError):
		xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, fallback)
	}
}

// parseIDParam 解析路径中的 :id 参数
func parseIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的 ID")
		return 0, false
	}
	return id, true
}
