package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"mokki/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetTokenMeta 从 Gin 上下文中提取当前 Access Token 的 jti 与过期时间。
// 登出时用于写黑名单。
func MustGetTokenMeta(c *gin.Context) (string, time.Time, bool) {
	jtiV, exists := c.Get("jti")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", time.Time{}, false
	}
	jti, ok := jtiV.(string)
	if !ok || jti == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", time.Time{}, false
	}

	expV, exists := c.Get("token_exp")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", time.Time{}, false
	}
	exp, ok := expV.(time.Time)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return "", time.Time{}, false
	}

	return jti, exp, true
}

// MustGetHouseID 从路径参数提取 house_id
func MustGetHouseID(c *gin.Context) (string, bool) {
	id := c.Param("house_id")
	if id == "" {
		response.BadRequest(c, 10001, "house_id 不能为空")
		return "", false
	}
	return id, true
}
