package provider

import (
	"time"

	"github.com/shopcore-next/internal/cache"
	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/payment/kpay"
	"github.com/shopcore-next/internal/queue"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"github.com/shopspring/decimal"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo        repository.UserRepository
	ProductRepo     repository.ProductRepository
	OptionRepo      repository.OptionRepository
	CombinationRepo repository.CombinationRepository
	CartRepo        repository.CartRepository
	OrderRepo       repository.OrderRepository
	PaymentRepo     repository.PaymentRepository
	ChangeRepo      repository.ChangeRepository

	// Services
	UserAuthService    *service.UserAuthService
	CombinationService *service.CombinationService
	CartService        *service.CartService
	ProductService     *service.ProductService
	OrderService       *service.OrderService
	PaymentService     *service.PaymentService
	ChangeService      *service.ChangeService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OptionRepo = repository.NewOptionRepository(db)
	c.CombinationRepo = repository.NewCombinationRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.ChangeRepo = repository.NewChangeRepository(db)
}

func (c *Container) initServices() {
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.CombinationService = service.NewCombinationService(c.CombinationRepo, c.OptionRepo, c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.OptionRepo, c.CombinationService)
	c.ProductService = service.NewProductService(c.ProductRepo, c.OptionRepo, c.CombinationService, c.CartService)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.OptionRepo,
		c.PaymentRepo,
		c.UserRepo,
		c.CombinationService,
		c.QueueClient,
		c.Config.Order.PaymentExpireMinutes,
		c.defaultDeliveryFee(),
	)
	c.PaymentService = service.NewPaymentService(
		c.OrderRepo,
		c.PaymentRepo,
		c.UserRepo,
		c.CartRepo,
		c.gatewayConfig(),
		c.Config.Gateway.IssuerNames,
	)
	c.ChangeService = service.NewChangeService(c.ChangeRepo, c.OrderRepo)
}

func (c *Container) defaultDeliveryFee() models.Money {
	raw := c.Config.Order.DefaultDeliveryFee
	if raw == "" {
		return models.NewMoneyFromInt(0)
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil || fee.IsNegative() {
		logger.Warnw("provider_delivery_fee_invalid", "value", raw)
		return models.NewMoneyFromInt(0)
	}
	return models.NewMoneyFromDecimal(fee)
}

func (c *Container) gatewayConfig() *kpay.Config {
	timeout := time.Duration(c.Config.Gateway.TimeoutSeconds) * time.Second
	return &kpay.Config{
		BaseURL:   c.Config.Gateway.BaseURL,
		SecretKey: c.Config.Gateway.SecretKey,
		Timeout:   timeout,
	}
}

// Close 释放容器持有的资源
func (c *Container) Close() {
	if c.QueueClient != nil {
		c.QueueClient.Close()
	}
	cache.Close()
}
