package handlers

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/services/admin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService admin.AuthService
}

func NewAuthHandler(authService admin.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles user registration.
// @Summary 用户注册
// @Description 使用用户名、密码和邮箱注册新用户
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 201 {object} xerr.Response "注册成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 400 {object} xerr.Response "用户名或邮箱已存在"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, xerr.ErrUserAlreadyExists) {
			xerr.Error(c, http.StatusBadRequest, xerr.UserAlreadyExistsCode, err.Error())
		} else if errors.Is(err, xerr.ErrEmailAlreadyExists) {
			xerr.Error(c, http.StatusBadRequest, xerr.EmailAlreadyExistsCode, err.Error())
		} else if errors.Is(err, xerr.ErrInvalidParams) {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		} else {
			logger.Error("Register: 用户注册失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "用户注册失败")
		}
		return
	}

	xerr.Success(c, http.StatusCreated, "注册成功", gin.H{"user": user})
}

// Login handles user login and issues a JWT.
// @Summary 用户登录
// @Description 验证用户名和密码，返回访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录凭据"
// @Success 200 {object} xerr.Response "登录成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 401 {object} xerr.Response "用户名或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, xerr.ErrInvalidCredentials) {
			xerr.Error(c, http.StatusUnauthorized, xerr.InvalidCredentialsCode, err.Error())
		} else {
			logger.Error("Login: 用户登录失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "用户登录失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "登录成功", gin.H{
		"token": token,
		"user":  user,
	})
}

// Profile returns the authenticated user's profile.
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "用户信息"
// @Failure 401 {object} xerr.Response "未认证"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		xerr.Error(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "未认证")
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else {
			logger.Error("Profile: 获取用户信息失败", zap.Uint64("userID", userID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取用户信息失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "获取用户信息成功", gin.H{"user": user})
}
