package repositories

import (
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-modelhub/internal/models"
	"gorm.io/gorm"
)

type TagRepository interface {
	Create(tag *models.Tag) error
	FindByID(id uint64) (*models.Tag, error)
	FindByIDs(ids []uint64) ([]models.Tag, error)
	FindByName(name string) (*models.Tag, error)
	FindAll() ([]models.Tag, error)
	Update(tag *models.Tag) error
	Delete(id uint64) error
}

type tagRepository struct {
	db *gorm.DB
}

var _ TagRepository = (*tagRepository)(nil)

// NewTagRepository 创建新的 tagRepository 实例
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(tag *models.Tag) error {
	return r.db.Create(tag).Error
}

func (r *tagRepository) FindByID(id uint64) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.Where("id = ?", id).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	return &tag, nil
}

func (r *tagRepository) FindByIDs(ids []uint64) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	err := r.db.Where("id IN ?", ids).Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	return tags, nil
}

func (r *tagRepository) FindByName(name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.Where("name = ?", name).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	return &tag, nil
}

// 按名称升序返回所有标签
func (r *tagRepository) FindAll() ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.Order("name asc").Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("查询标签列表失败: %w", err)
	}
	return tags, nil
}

func (r *tagRepository) Update(tag *models.Tag) error {
	return r.db.Save(tag).Error
}

func (r *tagRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Tag{}, id).Error
}
