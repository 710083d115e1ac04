package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService 定义了用户注册登录的业务操作
type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*models.User, error)
	// Login 验证凭据并签发 JWT
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	GetProfile(ctx context.Context, userID uint64) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// 确保 authService 实现了 AuthService 的方法
var _ AuthService = (*authService)(nil)

// NewAuthService 创建一个新的 AuthService 实例
func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (s *authService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	if username == "" || password == "" || email == "" {
		return nil, xerr.ErrInvalidParams
	}

	// 检查用户名是否存在
	existing, err := s.userRepo.GetUserByUsername(username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("检查用户名失败: %w", err)
	}
	if existing != nil {
		return nil, xerr.ErrUserAlreadyExists
	}

	// 检查邮箱是否存在
	existing, err = s.userRepo.GetUserByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("检查邮箱失败: %w", err)
	}
	if existing != nil {
		return nil, xerr.ErrEmailAlreadyExists
	}

	// 哈希密码
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Email:        email,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	logger.Info("Register: 用户注册成功", zap.Uint64("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login 验证用户名密码，成功时返回签发的 JWT
// 用户不存在和密码错误返回同一个错误，避免暴露账号是否注册
func (s *authService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, xerr.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, xerr.ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Email,
		s.cfg.JWT.SecretKey, s.cfg.JWT.Issuer, s.cfg.JWT.ExpiresIn)
	if err != nil {
		logger.Error("Login: 生成 token 失败", zap.Uint64("userID", user.ID), zap.Error(err))
		return "", nil, fmt.Errorf("生成 token 失败: %w", err)
	}

	logger.Info("Login: 用户登录成功", zap.Uint64("userID", user.ID))
	return token, user, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, xerr.ErrUserNotFound
	}
	return user, nil
}
