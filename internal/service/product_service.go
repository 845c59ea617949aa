package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopcore-next/internal/cache"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"gorm.io/gorm"
)

// productDetailCacheTTL 详情缓存兜底过期时间，变更路径会主动失效
const productDetailCacheTTL = 5 * time.Minute

// ProductService 商品与选项管理服务。
// 选项结构的任何变更都会重建组合矩阵；价格与选项的变更会连带清除
// 引用方的购物车快照。
type ProductService struct {
	productRepo    repository.ProductRepository
	optionRepo     repository.OptionRepository
	combinationSvc *CombinationService
	cartSvc        *CartService
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, optionRepo repository.OptionRepository, combinationSvc *CombinationService, cartSvc *CartService) *ProductService {
	return &ProductService{
		productRepo:    productRepo,
		optionRepo:     optionRepo,
		combinationSvc: combinationSvc,
		cartSvc:        cartSvc,
	}
}

// ProductDetail 商品详情：选项树与组合矩阵
type ProductDetail struct {
	Product      *models.Product            `json:"product"`
	OptionTypes  []models.OptionType        `json:"option_types"`
	Combinations []models.OptionCombination `json:"combinations"`
}

// GetDetail 获取商品详情，命中缓存时不回源数据库
func (s *ProductService) GetDetail(productID uint) (*ProductDetail, error) {
	ctx := context.Background()
	var cached ProductDetail
	if hit, err := cache.GetJSON(ctx, productDetailCacheKey(productID), &cached); err == nil && hit {
		return &cached, nil
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	types, err := s.optionRepo.ListTypesWithValues(productID)
	if err != nil {
		return nil, err
	}
	combinations, err := s.combinationSvc.ListByProduct(productID)
	if err != nil {
		return nil, err
	}
	detail := &ProductDetail{
		Product:      product,
		OptionTypes:  types,
		Combinations: combinations,
	}
	if err := cache.SetJSON(ctx, productDetailCacheKey(productID), detail, productDetailCacheTTL); err != nil {
		logger.Debugw("product_detail_cache_set_failed", "product_id", productID, "error", err)
	}
	return detail, nil
}

func productDetailCacheKey(productID uint) string {
	return fmt.Sprintf("product:detail:%d", productID)
}

func (s *ProductService) invalidateDetailCache(productID uint) {
	if err := cache.Del(context.Background(), productDetailCacheKey(productID)); err != nil {
		logger.Warnw("product_detail_cache_del_failed", "product_id", productID, "error", err)
	}
}

// Create 创建商品
func (s *ProductService) Create(product *models.Product) error {
	if product == nil || product.Name == "" {
		return ErrProductNotAvailable
	}
	return s.productRepo.Create(product)
}

// Update 更新商品字段并清除引用它的购物车行（价格快照随编辑失效）
func (s *ProductService) Update(productID uint, updates map[string]interface{}) error {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.productRepo.Update(product, updates); err != nil {
		logger.Errorw("product_update_failed", "product_id", productID, "error", err)
		return err
	}
	_, _ = s.cartSvc.PurgeForProduct(productID)
	s.invalidateDetailCache(productID)
	return nil
}

// SoftDelete 下架并软删除商品，清除引用它的购物车行
func (s *ProductService) SoftDelete(productID uint) error {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.productRepo.SoftDelete(productID); err != nil {
		logger.Errorw("product_delete_failed", "product_id", productID, "error", err)
		return err
	}
	_, _ = s.cartSvc.PurgeForProduct(productID)
	s.invalidateDetailCache(productID)
	logger.Infow("product_deleted", "product_id", productID)
	return nil
}

// AddOptionType 新增选项类型并重建组合矩阵。
// 新类型让既有选择不再完整，引用该商品的购物车行一并清除。
func (s *ProductService) AddOptionType(optionType *models.OptionType) error {
	if optionType == nil || optionType.ProductID == 0 || optionType.Name == "" {
		return ErrOptionInvalid
	}
	product, err := s.productRepo.GetByID(optionType.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.optionRepo.WithTx(tx).CreateType(optionType); err != nil {
			return err
		}
		_, err := s.combinationSvc.RegenerateInTx(tx, optionType.ProductID)
		return err
	})
	if err != nil {
		logger.Errorw("option_type_create_failed", "product_id", optionType.ProductID, "error", err)
		return err
	}
	_, _ = s.cartSvc.PurgeForProduct(optionType.ProductID)
	s.invalidateDetailCache(optionType.ProductID)
	return nil
}

// AddOptionValue 新增选项值并重建组合矩阵。
// 既有选择仍然有效，不清除购物车。
func (s *ProductService) AddOptionValue(productID uint, value *models.OptionValue) error {
	if value == nil || value.OptionTypeID == 0 || value.Name == "" {
		return ErrOptionInvalid
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.optionRepo.WithTx(tx).CreateValue(value); err != nil {
			return err
		}
		_, err := s.combinationSvc.RegenerateInTx(tx, productID)
		return err
	})
	if err != nil {
		logger.Errorw("option_value_create_failed", "option_type_id", value.OptionTypeID, "error", err)
		return err
	}
	s.invalidateDetailCache(productID)
	return nil
}

// UpdateOptionValue 更新选项值并同步组合矩阵与购物车。
// 仅翻转缺货时走快路径原地更新组合库存，其余编辑重建矩阵。
func (s *ProductService) UpdateOptionValue(productID, valueID uint, updates map[string]interface{}) error {
	value, err := s.optionRepo.GetValueByID(valueID)
	if err != nil {
		return err
	}
	if value == nil {
		return ErrOptionValueNotFound
	}
	if len(updates) == 0 {
		return nil
	}

	stockOnly := false
	if len(updates) == 1 {
		if inStock, ok := updates["in_stock"].(bool); ok && !inStock {
			stockOnly = true
		}
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.optionRepo.WithTx(tx).UpdateValue(valueID, updates); err != nil {
			return err
		}
		if stockOnly {
			_, err := s.combinationSvc.MarkValueOutOfStockInTx(tx, valueID)
			return err
		}
		_, err := s.combinationSvc.RegenerateInTx(tx, productID)
		return err
	})
	if err != nil {
		logger.Errorw("option_value_update_failed", "option_value_id", valueID, "error", err)
		return err
	}
	_, _ = s.cartSvc.PurgeForOptionValue(valueID)
	s.invalidateDetailCache(productID)
	return nil
}

// RegenerateCombinations 手工重建组合矩阵（管理端兜底操作）
func (s *ProductService) RegenerateCombinations(productID uint) (int, error) {
	count, err := s.combinationSvc.Regenerate(productID)
	if err != nil {
		return 0, err
	}
	s.invalidateDetailCache(productID)
	return count, nil
}

// DeleteOptionType 软删除选项类型及其值并重建组合矩阵，
// 清除引用该商品的购物车行
func (s *ProductService) DeleteOptionType(productID, typeID uint) error {
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.optionRepo.WithTx(tx).SoftDeleteType(typeID); err != nil {
			return err
		}
		_, err := s.combinationSvc.RegenerateInTx(tx, productID)
		return err
	})
	if err != nil {
		logger.Errorw("option_type_delete_failed", "option_type_id", typeID, "error", err)
		return err
	}
	_, _ = s.cartSvc.PurgeForProduct(productID)
	s.invalidateDetailCache(productID)
	return nil
}

// DeleteOptionValue 软删除选项值并重建组合矩阵，清除引用它的购物车行
func (s *ProductService) DeleteOptionValue(productID, valueID uint) error {
	value, err := s.optionRepo.GetValueByID(valueID)
	if err != nil {
		return err
	}
	if value == nil {
		return ErrOptionValueNotFound
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.optionRepo.WithTx(tx).SoftDeleteValue(valueID); err != nil {
			return err
		}
		_, err := s.combinationSvc.RegenerateInTx(tx, productID)
		return err
	})
	if err != nil {
		logger.Errorw("option_value_delete_failed", "option_value_id", valueID, "error", err)
		return err
	}
	_, _ = s.cartSvc.PurgeForOptionValue(valueID)
	s.invalidateDetailCache(productID)
	return nil
}
