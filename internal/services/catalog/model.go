package catalog

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/storage"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// glb 文件的标准 MIME 类型
const glbMimeType = "model/gltf-binary"

// UploadModelInput 上传模型所需的全部参数
type UploadModelInput struct {
	Name        string
	Description string
	CategoryID  *uint64
	TagIDs      []uint64
	FileName    string
	FileSize    int64
	ContentType string
	Reader      io.Reader
}

// UpdateModelInput 更新模型元数据的参数，nil 字段保持不变
type UpdateModelInput struct {
	Name        *string
	Description *string
	CategoryID  *uint64
	ClearCat    bool // 显式清除分类
	TagIDs      *[]uint64
	IsActive    *bool
}

// ModelContent 模型文件内容和流式传输所需的元信息
type ModelContent struct {
	Reader   io.ReadCloser
	Size     int64
	MimeType string
	FileName string
}

// ModelService 定义了模型目录的业务操作
type ModelService interface {
	Upload(ctx context.Context, uploaderID uint64, input UploadModelInput) (*models.Model, error)
	GetByID(ctx context.Context, id uint64) (*models.Model, error)
	List(ctx context.Context, filter repositories.ModelFilter) ([]models.Model, error)
	Update(ctx context.Context, id uint64, input UpdateModelInput) (*models.Model, error)
	Delete(ctx context.Context, id uint64) error
	// Search 按关键字全文检索模型
	Search(ctx context.Context, keyword string, limit int) ([]models.Model, error)
	// GetContent 返回模型文件内容，用于查看器流式传输
	GetContent(ctx context.Context, id uint64) (*ModelContent, error)
}

type modelService struct {
	modelRepo    repositories.ModelRepository
	tagRepo      repositories.TagRepository
	categoryRepo repositories.CategoryRepository
	storageSvc   storage.StorageService
	indexer      ModelIndexer
	cfg          *config.Config
}

var _ ModelService = (*modelService)(nil)

// NewModelService 创建一个新的 ModelService 实例
func NewModelService(
	modelRepo repositories.ModelRepository,
	tagRepo repositories.TagRepository,
	categoryRepo repositories.CategoryRepository,
	storageSvc storage.StorageService,
	indexer ModelIndexer,
	cfg *config.Config,
) ModelService {
	return &modelService{
		modelRepo:    modelRepo,
		tagRepo:      tagRepo,
		categoryRepo: categoryRepo,
		storageSvc:   storageSvc,
		indexer:      indexer,
		cfg:          cfg,
	}
}

// Upload 校验并保存上传的模型文件，写入存储后创建目录记录
func (s *modelService) Upload(ctx context.Context, uploaderID uint64, input UploadModelInput) (*models.Model, error) {
	if err := s.validateUpload(&input); err != nil {
		return nil, err
	}

	// 解析分类和标签，先于写存储做校验，避免产生孤儿对象
	if input.CategoryID != nil {
		category, err := s.categoryRepo.FindByID(*input.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("查询分类失败: %w", err)
		}
		if category == nil {
			return nil, xerr.ErrCategoryNotFound
		}
	}
	tags, err := s.resolveTags(input.TagIDs)
	if err != nil {
		return nil, err
	}

	// 对象键使用 UUID，避免用户文件名冲突和路径注入
	objectKey := fmt.Sprintf("models/%s%s", uuid.New().String(), strings.ToLower(filepath.Ext(input.FileName)))
	bucket := s.cfg.Storage.BucketName
	if _, err := s.storageSvc.PutObject(ctx, bucket, objectKey, input.Reader, input.FileSize, glbMimeType); err != nil {
		logger.Error("Upload: 上传模型文件到存储失败", zap.String("objectKey", objectKey), zap.Error(err))
		return nil, xerr.ErrStorageError
	}

	model := &models.Model{
		Name:        input.Name,
		Description: input.Description,
		FilePath:    objectKey,
		FileSize:    input.FileSize,
		MimeType:    glbMimeType,
		UploadedBy:  uploaderID,
		IsActive:    true,
		CategoryID:  input.CategoryID,
		Tags:        tags,
	}
	if err := s.modelRepo.Create(model); err != nil {
		// 数据库写入失败时清理已上传的对象
		if rmErr := s.storageSvc.RemoveObject(ctx, bucket, objectKey); rmErr != nil {
			logger.Error("Upload: 回滚存储对象失败", zap.String("objectKey", objectKey), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("创建模型记录失败: %w", err)
	}

	if err := s.indexer.Index(ctx, model); err != nil {
		logger.Warn("Upload: 写入搜索索引失败", zap.Uint64("modelID", model.ID), zap.Error(err))
	}

	logger.Info("Upload: 模型上传成功",
		zap.Uint64("modelID", model.ID),
		zap.Uint64("uploadedBy", uploaderID),
		zap.Int64("fileSize", model.FileSize))
	return s.reload(model.ID)
}

func (s *modelService) GetByID(ctx context.Context, id uint64) (*models.Model, error) {
	model, err := s.modelRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("查询模型失败: %w", err)
	}
	if model == nil {
		return nil, xerr.ErrModelNotFound
	}
	return model, nil
}

func (s *modelService) List(ctx context.Context, filter repositories.ModelFilter) ([]models.Model, error) {
	list, err := s.modelRepo.FindAll(filter)
	if err != nil {
		return nil, fmt.Errorf("查询模型列表失败: %w", err)
	}
	return list, nil
}

// Update 更新模型元数据，文件本身不可替换
func (s *modelService) Update(ctx context.Context, id uint64, input UpdateModelInput) (*models.Model, error) {
	model, err := s.modelRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("查询模型失败: %w", err)
	}
	if model == nil {
		return nil, xerr.ErrModelNotFound
	}

	if input.Name != nil {
		model.Name = *input.Name
	}
	if input.Description != nil {
		model.Description = *input.Description
	}
	if input.ClearCat {
		model.CategoryID = nil
	} else if input.CategoryID != nil {
		category, err := s.categoryRepo.FindByID(*input.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("查询分类失败: %w", err)
		}
		if category == nil {
			return nil, xerr.ErrCategoryNotFound
		}
		model.CategoryID = input.CategoryID
	}
	if input.IsActive != nil {
		model.IsActive = *input.IsActive
	}

	if err := s.modelRepo.Update(model); err != nil {
		return nil, fmt.Errorf("更新模型失败: %w", err)
	}

	if input.TagIDs != nil {
		tags, err := s.resolveTags(*input.TagIDs)
		if err != nil {
			return nil, err
		}
		if err := s.modelRepo.ReplaceTags(model, tags); err != nil {
			return nil, fmt.Errorf("更新模型标签失败: %w", err)
		}
	}

	if err := s.indexer.Index(ctx, model); err != nil {
		logger.Warn("Update: 更新搜索索引失败", zap.Uint64("modelID", model.ID), zap.Error(err))
	}
	return s.reload(model.ID)
}

// Delete 删除模型记录，并尽力清理存储对象和缩略图
func (s *modelService) Delete(ctx context.Context, id uint64) error {
	model, err := s.modelRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("查询模型失败: %w", err)
	}
	if model == nil {
		return xerr.ErrModelNotFound
	}

	if err := s.modelRepo.Delete(id); err != nil {
		return fmt.Errorf("删除模型记录失败: %w", err)
	}

	// 存储清理失败不回滚删除，只记录日志
	bucket := s.cfg.Storage.BucketName
	if err := s.storageSvc.RemoveObject(ctx, bucket, model.FilePath); err != nil {
		logger.Warn("Delete: 删除模型文件失败", zap.String("objectKey", model.FilePath), zap.Error(err))
	}
	if model.ThumbnailPath != nil && *model.ThumbnailPath != "" {
		if err := s.storageSvc.RemoveObject(ctx, bucket, *model.ThumbnailPath); err != nil {
			logger.Warn("Delete: 删除模型缩略图失败", zap.String("objectKey", *model.ThumbnailPath), zap.Error(err))
		}
	}
	if err := s.indexer.Remove(ctx, id); err != nil {
		logger.Warn("Delete: 删除搜索索引文档失败", zap.Uint64("modelID", id), zap.Error(err))
	}

	logger.Info("Delete: 模型删除成功", zap.Uint64("modelID", id))
	return nil
}

// Search 按关键字检索模型，命中 ID 再回表补全关联数据
func (s *modelService) Search(ctx context.Context, keyword string, limit int) ([]models.Model, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := s.indexer.Search(ctx, keyword, limit)
	if err != nil {
		logger.Error("Search: 搜索请求失败", zap.String("keyword", keyword), zap.Error(err))
		return nil, xerr.ErrSearchError
	}
	if len(ids) == 0 {
		return []models.Model{}, nil
	}
	list, err := s.modelRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("查询模型列表失败: %w", err)
	}
	return list, nil
}

// GetContent 打开模型文件流供查看器读取
func (s *modelService) GetContent(ctx context.Context, id uint64) (*ModelContent, error) {
	model, err := s.modelRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("查询模型失败: %w", err)
	}
	if model == nil || !model.IsActive {
		return nil, xerr.ErrModelNotFound
	}

	obj, err := s.storageSvc.GetObject(ctx, s.cfg.Storage.BucketName, model.FilePath)
	if err != nil {
		logger.Error("GetContent: 读取模型文件失败", zap.String("objectKey", model.FilePath), zap.Error(err))
		return nil, xerr.ErrStorageError
	}

	mimeType := obj.MimeType
	if mimeType == "" {
		mimeType = model.MimeType
	}
	size := obj.Size
	if size <= 0 {
		size = model.FileSize
	}
	return &ModelContent{
		Reader:   obj.Reader,
		Size:     size,
		MimeType: mimeType,
		FileName: fmt.Sprintf("%s.glb", model.Name),
	}, nil
}

// validateUpload 校验上传文件的扩展名、MIME 类型和大小
func (s *modelService) validateUpload(input *UploadModelInput) error {
	if input.Name == "" || input.FileName == "" || input.Reader == nil {
		return xerr.ErrInvalidParams
	}

	maxSize := s.cfg.Upload.MaxFileSize
	if maxSize > 0 && input.FileSize > maxSize {
		return xerr.ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	allowed := s.cfg.Upload.AllowedExtensions
	if len(allowed) == 0 {
		allowed = []string{".glb"}
	}
	extOK := false
	for _, a := range allowed {
		if ext == a {
			extOK = true
			break
		}
	}
	// 扩展名或声明的 MIME 类型任意一个匹配即放行，与浏览器行为兼容
	if !extOK && input.ContentType != glbMimeType {
		return xerr.ErrFileTypeInvalid
	}
	return nil
}

// resolveTags 将标签 ID 列表解析为标签实体，任一 ID 不存在即报错
func (s *modelService) resolveTags(tagIDs []uint64) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	tags, err := s.tagRepo.FindByIDs(tagIDs)
	if err != nil {
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	if len(tags) != len(tagIDs) {
		return nil, xerr.ErrTagNotFound
	}
	return tags, nil
}

// reload 重新加载模型以带出 Category/Tags 关联
func (s *modelService) reload(id uint64) (*models.Model, error) {
	model, err := s.modelRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("查询模型失败: %w", err)
	}
	if model == nil {
		return nil, xerr.ErrModelNotFound
	}
	return model, nil
}
