package xerr

import "errors"

var (
	// 通用错误
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams    = errors.New("无效的请求参数")
	ErrValidationFailed = errors.New("参数验证失败")
	ErrFileTooLarge     = errors.New("上传模型文件过大，超出限制")
	ErrFileTypeInvalid  = errors.New("仅支持上传 .glb 模型文件")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")

	// 资源未找到错误
	ErrUserNotFound     = errors.New("用户不存在")
	ErrModelNotFound    = errors.New("模型不存在")
	ErrCategoryNotFound = errors.New("分类不存在")
	ErrTagNotFound      = errors.New("标签不存在")
	ErrShareNotFound    = errors.New("分享链接不存在")

	// 业务逻辑冲突
	ErrUserAlreadyExists     = errors.New("该用户名已被注册")
	ErrEmailAlreadyExists    = errors.New("邮箱已被注册")
	ErrCategoryAlreadyExists = errors.New("分类名已存在")
	ErrTagAlreadyExists      = errors.New("标签名已存在")

	// 分享链接存在但已被禁用或过期，与"不存在"是两种不同的失败
	ErrShareGone = errors.New("分享链接已失效或过期")

	// 数据库与外部服务错误
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrStorageError  = errors.New("存储服务操作失败")
	ErrSearchError   = errors.New("搜索服务操作失败")
)
