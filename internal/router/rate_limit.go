package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopcore-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	Message       string
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware Redis 频率限制中间件。
// 窗口内超限后写入封禁 key，封禁期内直接拒绝。
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}
		blockKey := key + ":blocked"

		ctx := c.Request.Context()
		if rule.BlockSeconds > 0 {
			blocked, err := client.Exists(ctx, blockKey).Result()
			if err == nil && blocked > 0 {
				rateLimited(c, rule)
				return
			}
		}

		result, err := rateLimitScript.Run(ctx, client, []string{key}, rule.WindowSeconds).Result()
		if err != nil {
			// 限流不可用时放行，避免 Redis 故障阻断支付
			c.Next()
			return
		}

		values, ok := result.([]interface{})
		if !ok || len(values) < 1 {
			c.Next()
			return
		}
		count, ok := toInt64(values[0])
		if !ok {
			c.Next()
			return
		}
		if count > int64(rule.MaxRequests) {
			if rule.BlockSeconds > 0 {
				_ = client.Set(ctx, blockKey, 1, time.Duration(rule.BlockSeconds)*time.Second).Err()
			}
			rateLimited(c, rule)
			return
		}

		c.Next()
	}
}

func rateLimited(c *gin.Context, rule RateLimitRule) {
	msg := strings.TrimSpace(rule.Message)
	if msg == "" {
		msg = "请求过于频繁，请稍后再试"
	}
	response.Error(c, response.CodeInvalid, msg)
	c.Abort()
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserID 使用已认证用户 ID 作为限流 key，未认证时退回 IP
func KeyByUserID(c *gin.Context) string {
	if value, ok := c.Get("user_id"); ok {
		if uid, ok := value.(uint); ok && uid != 0 {
			return fmt.Sprintf("u%d", uid)
		}
	}
	return c.ClientIP()
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
