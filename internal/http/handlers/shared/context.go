package shared

import (
	"github.com/shopcore-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ContextKeyUserID 认证中间件写入的用户 ID 键名
const ContextKeyUserID = "user_id"

// GetUserID 从上下文读取已认证用户 ID，缺失或类型异常时统一返回错误响应。
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		RespondError(c, response.CodeForbidden, "未登录或登录已过期", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeInvalid, "用户标识无效", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeInvalid, "用户标识无效", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInvalid, "用户标识类型异常", nil)
		return 0, false
	}
}
