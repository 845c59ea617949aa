package router

import (
	"fmt"
	"strings"

	"github.com/shopcore-next/internal/cache"
	"github.com/shopcore-next/internal/config"
	adminhandlers "github.com/shopcore-next/internal/http/handlers/admin"
	publichandlers "github.com/shopcore-next/internal/http/handlers/public"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sc"
	}
	confirmRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:confirm", redisPrefix),
		WindowSeconds: cfg.Security.ConfirmRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ConfirmRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.ConfirmRateLimit.BlockSeconds,
		Message:       "支付确认请求过于频繁，请稍后再试",
	}
	webhookRule := confirmRule
	webhookRule.Prefix = fmt.Sprintf("%s:rate:webhook", redisPrefix)
	webhookRule.Message = "状态推送过于频繁，请稍后再试"

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products/:id", publicHandler.GetProduct)
			// 网关服务端推送，凭据校验在处理器内完成
			public.POST("/payments/webhook",
				RateLimitMiddleware(cache.Client(), webhookRule, KeyByIP),
				publicHandler.PaymentStatusWebhook)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.DELETE("/cart/items", publicHandler.RemoveCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)

			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.GET("/orders/:id/payment", publicHandler.GetOrderPayment)
			user.GET("/orders/:id/changes", publicHandler.ListOrderChanges)
			user.POST("/order-items/:item_id/cancel", publicHandler.CancelOrderItem)

			user.POST("/payments/confirm",
				RateLimitMiddleware(cache.Client(), confirmRule, KeyByUserID),
				publicHandler.ConfirmPayment)

			user.POST("/changes", publicHandler.RequestChange)
			user.DELETE("/changes/:id", publicHandler.WithdrawChange)
		}

		// 管理端接口
		admin := apiV1.Group("/admin")
		admin.Use(AdminKeyMiddleware(cfg.Security.AdminAPIKey))
		{
			admin.POST("/products", adminHandler.AdminCreateProduct)
			admin.PUT("/products/:id", adminHandler.AdminUpdateProduct)
			admin.DELETE("/products/:id", adminHandler.AdminDeleteProduct)
			admin.POST("/products/:id/option-types", adminHandler.AdminAddOptionType)
			admin.DELETE("/products/:id/option-types/:type_id", adminHandler.AdminDeleteOptionType)
			admin.POST("/products/:id/option-values", adminHandler.AdminAddOptionValue)
			admin.PUT("/products/:id/option-values/:value_id", adminHandler.AdminUpdateOptionValue)
			admin.DELETE("/products/:id/option-values/:value_id", adminHandler.AdminDeleteOptionValue)
			admin.POST("/products/:id/combinations/regenerate", adminHandler.AdminRegenerateCombinations)

			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.PUT("/orders/:id/delivery-status", adminHandler.AdminUpdateDeliveryStatus)
			admin.GET("/orders/:id/changes", adminHandler.AdminListOrderChanges)
			admin.PUT("/changes/:id/status", adminHandler.AdminAdvanceChangeStatus)
		}
	}

	return r
}
