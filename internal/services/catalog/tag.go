package catalog

import (
	"context"
	"fmt"

	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"go.uber.org/zap"
)

// TagService 定义了模型标签的业务操作
type TagService interface {
	Create(ctx context.Context, name string) (*models.Tag, error)
	GetByID(ctx context.Context, id uint64) (*models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	Update(ctx context.Context, id uint64, name string) (*models.Tag, error)
	Delete(ctx context.Context, id uint64) error
}

type tagService struct {
	tagRepo repositories.TagRepository
}

var _ TagService = (*tagService)(nil)

// NewTagService 创建一个新的 TagService 实例
func NewTagService(tagRepo repositories.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

// Create 创建标签，标签名全局唯一
func (s *tagService) Create(ctx context.Context, name string) (*models.Tag, error) {
	if name == "" {
		return nil, xerr.ErrInvalidParams
	}

	existing, err := s.tagRepo.FindByName(name)
	if err != nil {
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	if existing != nil {
		return nil, xerr.ErrTagAlreadyExists
	}

	tag := &models.Tag{Name: name}
	if err := s.tagRepo.Create(tag); err != nil {
		return nil, fmt.Errorf("创建标签失败: %w", err)
	}

	logger.Info("Create: 标签创建成功", zap.Uint64("tagID", tag.ID), zap.String("name", name))
	return tag, nil
}

func (s *tagService) GetByID(ctx context.Context, id uint64) (*models.Tag, error) {
	tag, err := s.tagRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	if tag == nil {
		return nil, xerr.ErrTagNotFound
	}
	return tag, nil
}

func (s *tagService) List(ctx context.Context) ([]models.Tag, error) {
	list, err := s.tagRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("查询标签列表失败: %w", err)
	}
	return list, nil
}

func (s *tagService) Update(ctx context.Context, id uint64, name string) (*models.Tag, error) {
	if name == "" {
		return nil, xerr.ErrInvalidParams
	}

	tag, err := s.tagRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	if tag == nil {
		return nil, xerr.ErrTagNotFound
	}

	if name != tag.Name {
		existing, err := s.tagRepo.FindByName(name)
		if err != nil {
			return nil, fmt.Errorf("查询标签失败: %w", err)
		}
		if existing != nil {
			return nil, xerr.ErrTagAlreadyExists
		}
		tag.Name = name
	}

	if err := s.tagRepo.Update(tag); err != nil {
		return nil, fmt.Errorf("更新标签失败: %w", err)
	}
	return tag, nil
}

// Delete 删除标签，模型与标签的关联随之移除
func (s *tagService) Delete(ctx context.Context, id uint64) error {
	tag, err := s.tagRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("查询标签失败: %w", err)
	}
	if tag == nil {
		return xerr.ErrTagNotFound
	}

	if err := s.tagRepo.Delete(id); err != nil {
		return fmt.Errorf("删除标签失败: %w", err)
	}
	logger.Info("Delete: 标签删除成功", zap.Uint64("tagID", id))
	return nil
}
