package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode    = 40000 // 无效的请求参数
	ValidationFailedCode = 40001 // 参数验证失败
	FileTooLargeCode     = 40002 // 模型文件过大
	FileTypeInvalidCode  = 40003 // 不是 GLB 模型文件

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode         = 40400 // 通用资源未找到
	UserNotFoundCode     = 40401 // 用户不存在
	ModelNotFoundCode    = 40402 // 模型不存在
	CategoryNotFoundCode = 40403 // 分类不存在
	TagNotFoundCode      = 40404 // 标签不存在
	ShareNotFoundCode    = 40405 // 分享链接不存在

	// --- 业务逻辑冲突系列 (409xx) ---
	UserAlreadyExistsCode     = 40900 // 用户名已存在
	EmailAlreadyExistsCode    = 40901 // 邮箱已存在
	CategoryAlreadyExistsCode = 40902 // 分类名已存在
	TagAlreadyExistsCode      = 40903 // 标签名已存在

	// --- 资源已失效系列 (410xx) ---
	ShareGoneCode = 41000 // 分享链接已失效或过期

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败（如MinIO）
	SearchErrorCode         = 50003 // 搜索服务操作失败
)
