package share

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"go.uber.org/zap"
)

// ShareLinkView 返回给调用方的分享链接视图
type ShareLinkView struct {
	ShareURL    string    `json:"shareUrl"`
	AuthKey     string    `json:"authKey"`
	ExpiresAt   time.Time `json:"expiresAt"`
	AccessCount int64     `json:"accessCount"`
	IsActive    bool      `json:"isActive"`
}

// ShareStatusView 分享状态视图
// 模型从未被分享时返回 IsShared=false 的哨兵值，计数为零、时间为空
type ShareStatusView struct {
	IsShared       bool       `json:"isShared"`
	ShareURL       *string    `json:"shareUrl"`
	AuthKey        string     `json:"authKey,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	AccessCount    int64      `json:"accessCount"`
	IsActive       bool       `json:"isActive"`
	LastAccessedAt *time.Time `json:"lastAccessedAt"`
}

// PaginationMeta 标准偏移分页元数据
type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPaginationMeta 根据总数计算分页元数据
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// ShareService 定义了模型分享链接的生命周期操作
type ShareService interface {
	// IssueOrReuse 为模型签发分享链接；若调用者已有未过期的激活分享则复用
	IssueOrReuse(ctx context.Context, modelID, callerID uint64) (*ShareLinkView, error)
	// Disable 禁用模型当前激活的分享（特意不限定发起者）
	Disable(ctx context.Context, modelID, callerID uint64) error
	// GetStatus 返回模型最近一条分享的状态
	GetStatus(ctx context.Context, modelID uint64) (*ShareStatusView, error)
	// Resolve 通过 authKey 解析分享，成功时累加访问计数并返回模型
	Resolve(ctx context.Context, authKey string) (*models.Model, *ShareLinkView, error)
	// ListAll 分页返回系统内全部分享记录
	ListAll(ctx context.Context, page, pageSize int) ([]models.ShareLink, PaginationMeta, error)
	// ValidateViewKey 校验 authKey 是否是指定模型的有效分享
	ValidateViewKey(ctx context.Context, modelID uint64, authKey string) error
}

// shareService 是 ShareService 接口的具体实现
type shareService struct {
	shareRepo repositories.ShareLinkRepository // 分享数据仓库
	modelRepo repositories.ModelRepository     // 模型数据仓库
	cfg       *config.Config                   // 全局配置
}

var _ ShareService = (*shareService)(nil)

// NewShareService 创建一个新的 ShareService 实例
func NewShareService(shareRepo repositories.ShareLinkRepository, modelRepo repositories.ModelRepository, cfg *config.Config) ShareService {
	return &shareService{
		shareRepo: shareRepo,
		modelRepo: modelRepo,
		cfg:       cfg,
	}
}

// IssueOrReuse 处理签发或复用分享链接的业务逻辑
// 所有已认证用户都可以分享任意模型，这里特意不做归属校验
func (s *shareService) IssueOrReuse(ctx context.Context, modelID, callerID uint64) (*ShareLinkView, error) {
	// 1. 验证目标模型是否存在
	model, err := s.modelRepo.FindByID(modelID)
	if err != nil {
		return nil, fmt.Errorf("查询模型失败: %w", err)
	}
	if model == nil {
		return nil, xerr.ErrModelNotFound
	}

	now := time.Now()

	// 2. 检查该 (模型, 调用者) 是否已存在未过期的激活分享
	// 查找与创建之间没有事务隔离，并发请求可能各自建一条，这是接受的竞态
	existing, err := s.shareRepo.FindActiveByModelAndOwner(modelID, callerID, now)
	if err != nil {
		return nil, fmt.Errorf("检查现有分享链接失败: %w", err)
	}
	if existing != nil {
		// 复用现有分享，只推进最后访问时间，authKey 和过期时间保持不变
		existing.LastAccessedAt = &now
		if err := s.shareRepo.Update(existing); err != nil {
			logger.Error("IssueOrReuse: 刷新分享链接失败", zap.Uint64("shareID", existing.ID), zap.Error(err))
			return nil, fmt.Errorf("刷新分享链接失败: %w", err)
		}
		return s.toView(existing), nil
	}

	// 3. 生成 256 位随机 authKey 并创建新分享
	authKey, err := utils.GenerateAuthKey()
	if err != nil {
		return nil, fmt.Errorf("生成分享密钥失败: %w", err)
	}

	newLink := &models.ShareLink{
		ModelID:     modelID,
		AuthKey:     authKey,
		SharedBy:    callerID,
		IsActive:    true,
		ExpiresAt:   now.Add(s.cfg.Share.ShareTTL()),
		AccessCount: 0,
		ShareURL:    s.buildShareURL(authKey),
	}

	if err := s.shareRepo.Create(newLink); err != nil {
		logger.Error("IssueOrReuse: 创建分享链接记录失败", zap.Uint64("modelID", modelID), zap.Error(err))
		return nil, fmt.Errorf("创建分享链接失败: %w", err)
	}

	logger.Info("IssueOrReuse: 分享链接创建成功",
		zap.Uint64("shareID", newLink.ID),
		zap.Uint64("modelID", modelID),
		zap.Uint64("sharedBy", callerID))
	return s.toView(newLink), nil
}

// Disable 禁用模型当前激活的分享链接
// 再次调用时已无激活分享，返回 ErrShareNotFound 而不是静默成功
func (s *shareService) Disable(ctx context.Context, modelID, callerID uint64) error {
	link, err := s.shareRepo.FindActiveByModel(modelID)
	if err != nil {
		return fmt.Errorf("查询分享链接失败: %w", err)
	}
	if link == nil {
		return xerr.ErrShareNotFound
	}

	link.IsActive = false
	if err := s.shareRepo.Update(link); err != nil {
		logger.Error("Disable: 更新分享链接状态失败", zap.Uint64("shareID", link.ID), zap.Error(err))
		return fmt.Errorf("禁用分享链接失败: %w", err)
	}

	logger.Info("Disable: 分享链接已禁用",
		zap.Uint64("shareID", link.ID),
		zap.Uint64("modelID", modelID),
		zap.Uint64("operator", callerID))
	return nil
}

// GetStatus 返回模型最近创建的分享状态
func (s *shareService) GetStatus(ctx context.Context, modelID uint64) (*ShareStatusView, error) {
	link, err := s.shareRepo.FindLatestByModel(modelID)
	if err != nil {
		return nil, fmt.Errorf("查询分享状态失败: %w", err)
	}
	if link == nil {
		// 从未分享过
		return &ShareStatusView{
			IsShared:    false,
			AccessCount: 0,
			IsActive:    false,
		}, nil
	}

	now := time.Now()
	shareURL := link.ShareURL
	expiresAt := link.ExpiresAt
	return &ShareStatusView{
		IsShared:       true,
		ShareURL:       &shareURL,
		AuthKey:        link.AuthKey,
		ExpiresAt:      &expiresAt,
		AccessCount:    link.AccessCount,
		IsActive:       link.IsValid(now), // 视图中的激活状态要同时排除已过期
		LastAccessedAt: link.LastAccessedAt,
	}, nil
}

// Resolve 通过 authKey 解析分享链接
// key 不存在返回 ErrShareNotFound；记录存在但被禁用或已过期返回 ErrShareGone，
// 两者必须产生不同的响应
func (s *shareService) Resolve(ctx context.Context, authKey string) (*models.Model, *ShareLinkView, error) {
	link, err := s.shareRepo.FindByAuthKey(authKey)
	if err != nil {
		return nil, nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	if link == nil {
		return nil, nil, xerr.ErrShareNotFound
	}

	now := time.Now()
	if !link.IsValid(now) {
		return nil, nil, xerr.ErrShareGone
	}

	// 原子累加访问计数并推进最后访问时间
	if err := s.shareRepo.IncrementAccess(link.ID, now); err != nil {
		logger.Error("Resolve: 更新分享访问次数失败", zap.Uint64("shareID", link.ID), zap.Error(err))
		return nil, nil, fmt.Errorf("更新分享访问次数失败: %w", err)
	}
	link.AccessCount++
	link.LastAccessedAt = &now

	model := link.Model
	if model == nil {
		model, err = s.modelRepo.FindByID(link.ModelID)
		if err != nil {
			return nil, nil, fmt.Errorf("查询分享模型失败: %w", err)
		}
		if model == nil {
			return nil, nil, xerr.ErrModelNotFound
		}
	}

	logger.Info("Resolve: 分享链接访问成功", zap.Uint64("shareID", link.ID), zap.Int64("accessCount", link.AccessCount))
	return model, s.toView(link), nil
}

// ListAll 分页返回系统内全部分享记录（特意不按发起者过滤）
func (s *shareService) ListAll(ctx context.Context, page, pageSize int) ([]models.ShareLink, PaginationMeta, error) {
	links, total, err := s.shareRepo.FindAll(page, pageSize)
	if err != nil {
		logger.Error("ListAll: 查询分享列表失败", zap.Error(err))
		return nil, PaginationMeta{}, fmt.Errorf("查询分享列表失败: %w", err)
	}
	return links, NewPaginationMeta(page, pageSize, total), nil
}

// ValidateViewKey 校验 authKey 是否是指定模型的有效分享
func (s *shareService) ValidateViewKey(ctx context.Context, modelID uint64, authKey string) error {
	link, err := s.shareRepo.FindValidByModelAndKey(modelID, authKey, time.Now())
	if err != nil {
		return fmt.Errorf("查询分享链接失败: %w", err)
	}
	if link == nil {
		return xerr.ErrShareNotFound
	}
	return nil
}

func (s *shareService) toView(link *models.ShareLink) *ShareLinkView {
	return &ShareLinkView{
		ShareURL:    link.ShareURL,
		AuthKey:     link.AuthKey,
		ExpiresAt:   link.ExpiresAt,
		AccessCount: link.AccessCount,
		IsActive:    link.IsActive,
	}
}

func (s *shareService) buildShareURL(authKey string) string {
	base := strings.TrimRight(s.cfg.Share.BaseURL, "/")
	return fmt.Sprintf("%s/api/shared/view/%s", base, authKey)
}
