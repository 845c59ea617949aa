package main

import (
	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	seedDemoUser(stdLog)
	seedDemoCatalog(stdLog)
}

type stdLogger interface {
	Printf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
}

func seedDemoUser(stdLog stdLogger) {
	email := "demo@example.com"
	var existing models.User
	if err := models.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		stdLog.Printf("演示用户已存在: %s", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("密码哈希失败: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  "홍길동",
		Mileage:      models.NewMoneyFromInt(5000),
	}
	if err := models.DB.Create(user).Error; err != nil {
		stdLog.Fatalf("创建演示用户失败: %v", err)
	}
	stdLog.Printf("已创建演示用户: %s (密码 demo1234, 里程 5000)", email)
}

func seedDemoCatalog(stdLog stdLogger) {
	var existing models.Product
	if err := models.DB.Where("name = ?", "데모 후드티").First(&existing).Error; err == nil {
		stdLog.Printf("演示商品已存在: %s", existing.Name)
		return
	}

	product := &models.Product{
		Name:        "데모 후드티",
		Price:       models.NewMoneyFromInt(39000),
		IsPremium:   true,
		InStock:     true,
		IsAvailable: true,
	}
	if err := models.DB.Create(product).Error; err != nil {
		stdLog.Fatalf("创建演示商品失败: %v", err)
	}

	colorType := &models.OptionType{ProductID: product.ID, Name: "색상", SortOrder: 1}
	sizeType := &models.OptionType{ProductID: product.ID, Name: "사이즈", SortOrder: 2}
	if err := models.DB.Create(colorType).Error; err != nil {
		stdLog.Fatalf("创建选项类型失败: %v", err)
	}
	if err := models.DB.Create(sizeType).Error; err != nil {
		stdLog.Fatalf("创建选项类型失败: %v", err)
	}

	values := []models.OptionValue{
		{OptionTypeID: colorType.ID, Name: "블랙", InStock: true, SortOrder: 1},
		{OptionTypeID: colorType.ID, Name: "그레이", InStock: true, SortOrder: 2},
		{OptionTypeID: sizeType.ID, Name: "M", InStock: true, SortOrder: 1},
		{OptionTypeID: sizeType.ID, Name: "L", InStock: true, SortOrder: 2},
		{OptionTypeID: sizeType.ID, Name: "XL", PriceDelta: models.NewMoneyFromInt(2000), InStock: true, SortOrder: 3},
	}
	for i := range values {
		if err := models.DB.Create(&values[i]).Error; err != nil {
			stdLog.Fatalf("创建选项值失败: %v", err)
		}
	}

	combinationSvc := service.NewCombinationService(
		repository.NewCombinationRepository(models.DB),
		repository.NewOptionRepository(models.DB),
		repository.NewProductRepository(models.DB),
	)
	count, err := combinationSvc.Regenerate(product.ID)
	if err != nil {
		stdLog.Fatalf("生成组合矩阵失败: %v", err)
	}
	stdLog.Printf("已创建演示商品: %s (组合 %d 个)", product.Name, count)
}
