package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-modelhub/internal/models"
	"gorm.io/gorm"
)

type ShareLinkRepository interface {
	Create(link *models.ShareLink) error
	FindByAuthKey(authKey string) (*models.ShareLink, error)
	FindActiveByModelAndOwner(modelID, ownerID uint64, now time.Time) (*models.ShareLink, error)
	FindActiveByModel(modelID uint64) (*models.ShareLink, error)
	FindLatestByModel(modelID uint64) (*models.ShareLink, error)
	FindValidByModelAndKey(modelID uint64, authKey string, now time.Time) (*models.ShareLink, error)
	FindAll(page, pageSize int) ([]models.ShareLink, int64, error)
	Update(link *models.ShareLink) error
	IncrementAccess(id uint64, now time.Time) error
}

type shareLinkRepository struct {
	db *gorm.DB
}

var _ ShareLinkRepository = (*shareLinkRepository)(nil)

// NewShareLinkRepository 创建新的 shareLinkRepository 实例
func NewShareLinkRepository(db *gorm.DB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

// 创建新的数据库记录
func (r *shareLinkRepository) Create(link *models.ShareLink) error {
	return r.db.Create(link).Error
}

// 根据 authKey 精确查找记录，预加载模型信息
func (r *shareLinkRepository) FindByAuthKey(authKey string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Preload("Model").Preload("Model.Category").Preload("Model.Tags").
		Where("auth_key = ?", authKey).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

// 查找 (模型, 发起者) 当前仍然有效的分享链接
func (r *shareLinkRepository) FindActiveByModelAndOwner(modelID, ownerID uint64, now time.Time) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Where("model_id = ? AND shared_by = ? AND is_active = ? AND expires_at > ?", modelID, ownerID, true, now).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

// 查找模型的任意一条处于激活状态的分享（禁用操作特意不限定发起者）
func (r *shareLinkRepository) FindActiveByModel(modelID uint64) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Where("model_id = ? AND is_active = ?", modelID, true).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

// 查找模型最近创建的一条分享记录
func (r *shareLinkRepository) FindLatestByModel(modelID uint64) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Where("model_id = ?", modelID).Order("created_at desc").First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享状态失败: %w", err)
	}
	return &link, nil
}

// 校验 authKey 是否是该模型的有效分享，用于查看令牌鉴权
func (r *shareLinkRepository) FindValidByModelAndKey(modelID uint64, authKey string, now time.Time) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Where("model_id = ? AND auth_key = ? AND is_active = ? AND expires_at > ?", modelID, authKey, true, now).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

// 查找系统内全部分享记录（特意不按发起者过滤），按创建时间倒序分页
func (r *shareLinkRepository) FindAll(page, pageSize int) ([]models.ShareLink, int64, error) {
	var links []models.ShareLink
	var total int64

	offset := (page - 1) * pageSize
	query := r.db.Model(&models.ShareLink{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计分享总数失败: %w", err)
	}

	err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Preload("Model").Find(&links).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询分享列表失败: %w", err)
	}
	return links, total, nil
}

// 更新数据库记录
func (r *shareLinkRepository) Update(link *models.ShareLink) error {
	return r.db.Save(link).Error
}

// IncrementAccess 以单条原子 UPDATE 累加访问计数并推进最后访问时间
// 并发解析同一个 key 时不会丢失计数
func (r *shareLinkRepository) IncrementAccess(id uint64, now time.Time) error {
	return r.db.Model(&models.ShareLink{ID: id}).UpdateColumns(map[string]any{
		"access_count":     gorm.Expr("access_count + ?", 1),
		"last_accessed_at": now,
		"updated_at":       now,
	}).Error
}
