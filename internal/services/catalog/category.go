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

// CategoryService 定义了模型分类的业务操作
type CategoryService interface {
	Create(ctx context.Context, name, description string) (*models.Category, error)
	GetByID(ctx context.Context, id uint64) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id uint64, name, description *string) (*models.Category, error)
	Delete(ctx context.Context, id uint64) error
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
}

var _ CategoryService = (*categoryService)(nil)

// NewCategoryService 创建一个新的 CategoryService 实例
func NewCategoryService(categoryRepo repositories.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

// Create 创建分类，分类名全局唯一
func (s *categoryService) Create(ctx context.Context, name, description string) (*models.Category, error) {
	if name == "" {
		return nil, xerr.ErrInvalidParams
	}

	existing, err := s.categoryRepo.FindByName(name)
	if err != nil {
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}
	if existing != nil {
		return nil, xerr.ErrCategoryAlreadyExists
	}

	category := &models.Category{Name: name, Description: description}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, fmt.Errorf("创建分类失败: %w", err)
	}

	logger.Info("Create: 分类创建成功", zap.Uint64("categoryID", category.ID), zap.String("name", name))
	return category, nil
}

func (s *categoryService) GetByID(ctx context.Context, id uint64) (*models.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}
	if category == nil {
		return nil, xerr.ErrCategoryNotFound
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	list, err := s.categoryRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("查询分类列表失败: %w", err)
	}
	return list, nil
}

func (s *categoryService) Update(ctx context.Context, id uint64, name, description *string) (*models.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}
	if category == nil {
		return nil, xerr.ErrCategoryNotFound
	}

	if name != nil && *name != category.Name {
		existing, err := s.categoryRepo.FindByName(*name)
		if err != nil {
			return nil, fmt.Errorf("查询分类失败: %w", err)
		}
		if existing != nil {
			return nil, xerr.ErrCategoryAlreadyExists
		}
		category.Name = *name
	}
	if description != nil {
		category.Description = *description
	}

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, fmt.Errorf("更新分类失败: %w", err)
	}
	return category, nil
}

// Delete 删除分类，引用该分类的模型由外键置空
func (s *categoryService) Delete(ctx context.Context, id uint64) error {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("查询分类失败: %w", err)
	}
	if category == nil {
		return xerr.ErrCategoryNotFound
	}

	if err := s.categoryRepo.Delete(id); err != nil {
		return fmt.Errorf("删除分类失败: %w", err)
	}
	logger.Info("Delete: 分类删除成功", zap.Uint64("categoryID", id))
	return nil
}
