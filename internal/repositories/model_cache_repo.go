package repositories

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/cache"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"go.uber.org/zap"
)

// cachedModelRepository 在数据库仓库外包一层 Redis 缓存
// 只缓存按ID的单条元数据读取，列表查询直接落库
type cachedModelRepository struct {
	next  ModelRepository // 链上的下一个仓库（数据库实现）
	cache cache.Cache
}

var _ ModelRepository = (*cachedModelRepository)(nil)

// NewCachedModelRepository 创建带缓存的 ModelRepository
func NewCachedModelRepository(next ModelRepository, c cache.Cache) ModelRepository {
	return &cachedModelRepository{next: next, cache: c}
}

func (r *cachedModelRepository) Create(model *models.Model) error {
	if err := r.next.Create(model); err != nil {
		return err
	}
	r.setCache(model)
	return nil
}

func (r *cachedModelRepository) FindByID(id uint64) (*models.Model, error) {
	ctx := context.Background()
	key := cache.GenerateModelMetadataKey(id)

	var cached models.Model
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Error("FindByID: 读取模型缓存失败", zap.Uint64("id", id), zap.Error(err))
	}

	model, err := r.next.FindByID(id)
	if err != nil {
		return nil, err
	}
	if model != nil {
		r.setCache(model)
	}
	return model, nil
}

func (r *cachedModelRepository) FindByIDs(ids []uint64) ([]models.Model, error) {
	return r.next.FindByIDs(ids)
}

func (r *cachedModelRepository) FindAll(filter ModelFilter) ([]models.Model, error) {
	return r.next.FindAll(filter)
}

func (r *cachedModelRepository) Update(model *models.Model) error {
	if err := r.next.Update(model); err != nil {
		return err
	}
	r.invalidate(model.ID)
	return nil
}

func (r *cachedModelRepository) ReplaceTags(model *models.Model, tags []models.Tag) error {
	if err := r.next.ReplaceTags(model, tags); err != nil {
		return err
	}
	r.invalidate(model.ID)
	return nil
}

func (r *cachedModelRepository) Delete(id uint64) error {
	if err := r.next.Delete(id); err != nil {
		return err
	}
	r.invalidate(id)
	return nil
}

func (r *cachedModelRepository) setCache(model *models.Model) {
	ctx := context.Background()
	key := cache.GenerateModelMetadataKey(model.ID)
	// TTL 加随机抖动，避免批量写入后同时过期
	ttl := cache.CacheTTL + time.Duration(rand.Intn(300))*time.Second
	if err := r.cache.Set(ctx, key, model, ttl); err != nil {
		logger.Error("更新模型缓存失败", zap.Uint64("id", model.ID), zap.Error(err))
	}
}

func (r *cachedModelRepository) invalidate(id uint64) {
	ctx := context.Background()
	if err := r.cache.Del(ctx, cache.GenerateModelMetadataKey(id)); err != nil {
		logger.Error("删除模型缓存失败", zap.Uint64("id", id), zap.Error(err))
	}
}
