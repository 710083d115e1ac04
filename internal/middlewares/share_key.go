package middlewares

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/services/share"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShareKeyMiddleware 校验查看器路由的分享密钥
// 查看器页面用查询参数 token 携带 authKey 访问模型字节，
// 这些路由不走 Bearer 认证
func ShareKeyMiddleware(shareService share.ShareService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Share token is required")
			return
		}

		modelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || modelID == 0 {
			xerr.AbortWithError(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的模型 ID")
			return
		}

		if err := shareService.ValidateViewKey(c.Request.Context(), modelID, token); err != nil {
			if errors.Is(err, xerr.ErrShareNotFound) {
				xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Invalid or expired share token")
				return
			}
			logger.Error("ShareKeyMiddleware: 校验分享密钥失败", zap.Uint64("modelID", modelID), zap.Error(err))
			xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "校验分享密钥失败")
			return
		}

		c.Next()
	}
}
