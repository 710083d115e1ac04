package repositories

import (
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-modelhub/internal/models"
	"gorm.io/gorm"
)

// ModelFilter 模型列表的可选过滤条件
type ModelFilter struct {
	CategoryID *uint64
	TagID      *uint64
	OnlyActive bool
}

type ModelRepository interface {
	Create(model *models.Model) error
	FindByID(id uint64) (*models.Model, error)
	FindByIDs(ids []uint64) ([]models.Model, error)
	FindAll(filter ModelFilter) ([]models.Model, error)
	Update(model *models.Model) error
	ReplaceTags(model *models.Model, tags []models.Tag) error
	Delete(id uint64) error
}

type modelRepository struct {
	db *gorm.DB
}

var _ ModelRepository = (*modelRepository)(nil)

// NewModelRepository 创建新的 modelRepository 实例
func NewModelRepository(db *gorm.DB) ModelRepository {
	return &modelRepository{db: db}
}

// 创建新的数据库记录，Tags 关联一并写入
func (r *modelRepository) Create(model *models.Model) error {
	return r.db.Create(model).Error
}

// 根据ID查找模型，预加载分类和标签
func (r *modelRepository) FindByID(id uint64) (*models.Model, error) {
	var model models.Model
	err := r.db.Preload("Category").Preload("Tags").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, fmt.Errorf("查询模型失败: %w", err)
	}
	return &model, nil
}

// 按ID集合批量查找，结果顺序与传入的 ids 一致
func (r *modelRepository) FindByIDs(ids []uint64) ([]models.Model, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Model
	err := r.db.Preload("Category").Preload("Tags").Where("id IN ?", ids).Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("查询模型失败: %w", err)
	}

	byID := make(map[uint64]models.Model, len(list))
	for _, m := range list {
		byID[m.ID] = m
	}
	ordered := make([]models.Model, 0, len(list))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

// 查询模型列表，按创建时间倒序
func (r *modelRepository) FindAll(filter ModelFilter) ([]models.Model, error) {
	var list []models.Model

	query := r.db.Model(&models.Model{}).Preload("Category").Preload("Tags")
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.TagID != nil {
		query = query.Joins("JOIN model_tags ON model_tags.model_id = models.id").
			Where("model_tags.tag_id = ?", *filter.TagID)
	}

	err := query.Order("created_at desc").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("查询模型列表失败: %w", err)
	}
	return list, nil
}

// 更新数据库记录
func (r *modelRepository) Update(model *models.Model) error {
	return r.db.Save(model).Error
}

// ReplaceTags 重设模型的标签关联
func (r *modelRepository) ReplaceTags(model *models.Model, tags []models.Tag) error {
	return r.db.Model(model).Association("Tags").Replace(tags)
}

// 物理删除记录，同时清理标签关联
func (r *modelRepository) Delete(id uint64) error {
	model := models.Model{ID: id}
	if err := r.db.Model(&model).Association("Tags").Clear(); err != nil {
		return fmt.Errorf("清理模型标签关联失败: %w", err)
	}
	return r.db.Delete(&model).Error
}
