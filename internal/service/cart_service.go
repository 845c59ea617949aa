package service

import (
	"time"

	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartService 购物车服务。
// 商品或选项的管理端变更会使快照失效，相关购物车行直接清除而不是留给
// 下单时报错，这是购物车一致性的唯一保障手段。
type CartService struct {
	cartRepo       repository.CartRepository
	productRepo    repository.ProductRepository
	optionRepo     repository.OptionRepository
	combinationSvc *CombinationService
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, optionRepo repository.OptionRepository, combinationSvc *CombinationService) *CartService {
	return &CartService{
		cartRepo:       cartRepo,
		productRepo:    productRepo,
		optionRepo:     optionRepo,
		combinationSvc: combinationSvc,
	}
}

// AddCartInput 加入购物车输入
type AddCartInput struct {
	UserID         uint
	ProductID      uint
	OptionValue1ID uint
	OptionValue2ID uint
	Quantity       int
}

// List 获取用户购物车
func (s *CartService) List(userID uint) ([]models.CartItem, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	return s.cartRepo.ListByUser(userID)
}

// Add 加入购物车：校验商品在售与选项组合有效，记录当前单价快照。
// 同一选择组合重复加入时数量累加。
func (s *CartService) Add(input AddCartInput) (*models.CartItem, error) {
	if input.UserID == 0 || input.ProductID == 0 || input.Quantity <= 0 {
		return nil, ErrCartItemInvalid
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		logger.Errorw("cart_add_product_fetch_failed", "product_id", input.ProductID, "error", err)
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsAvailable || !product.InStock {
		return nil, ErrProductNotAvailable
	}

	optionPrice := decimal.Zero
	valueIDs := make([]uint, 0, 2)
	for _, valueID := range []uint{input.OptionValue1ID, input.OptionValue2ID} {
		if valueID == 0 {
			continue
		}
		value, err := s.optionRepo.GetValueByID(valueID)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, ErrOptionValueNotFound
		}
		optionPrice = optionPrice.Add(value.PriceDelta.Decimal)
		valueIDs = append(valueIDs, valueID)
	}

	types, err := s.optionRepo.ListTypesWithValues(input.ProductID)
	if err != nil {
		return nil, err
	}
	if len(types) > 0 {
		if len(valueIDs) != len(types) {
			return nil, ErrOptionInvalid
		}
		combination, err := s.combinationSvc.Resolve(input.ProductID, valueIDs)
		if err != nil {
			return nil, err
		}
		if !combination.InStock {
			return nil, ErrCombinationOutOfStock
		}
	} else if len(valueIDs) > 0 {
		return nil, ErrOptionInvalid
	}

	now := time.Now()
	item := &models.CartItem{
		UserID:         input.UserID,
		ProductID:      input.ProductID,
		OptionValue1ID: input.OptionValue1ID,
		OptionValue2ID: input.OptionValue2ID,
		Quantity:       input.Quantity,
		UnitPrice:      models.NewMoneyFromDecimal(product.EffectivePrice().Decimal.Add(optionPrice)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.cartRepo.Upsert(item); err != nil {
		logger.Errorw("cart_add_upsert_failed", "user_id", input.UserID, "product_id", input.ProductID, "error", err)
		return nil, err
	}
	return item, nil
}

// Remove 按选择组合删除购物车行
func (s *CartService) Remove(userID, productID, optionValue1ID, optionValue2ID uint) error {
	if userID == 0 || productID == 0 {
		return ErrCartItemInvalid
	}
	return s.cartRepo.DeleteByUserAndSelection(userID, productID, optionValue1ID, optionValue2ID)
}

// ClearByUser 清空用户购物车（支付完成后调用）
func (s *CartService) ClearByUser(userID uint) error {
	if userID == 0 {
		return ErrUserNotFound
	}
	return s.cartRepo.ClearByUser(userID)
}

// PurgeForProduct 商品变更/下架时清除全部用户中引用它的购物车行
func (s *CartService) PurgeForProduct(productID uint) (int64, error) {
	removed, err := s.cartRepo.DeleteByProduct(productID)
	if err != nil {
		logger.Errorw("cart_purge_product_failed", "product_id", productID, "error", err)
		return 0, err
	}
	if removed > 0 {
		logger.Infow("cart_purged_for_product", "product_id", productID, "removed", removed)
	}
	return removed, nil
}

// PurgeForOptionValue 选项值变更/删除时清除任一槽位引用它的购物车行
func (s *CartService) PurgeForOptionValue(optionValueID uint) (int64, error) {
	removed, err := s.cartRepo.DeleteByOptionValue(optionValueID)
	if err != nil {
		logger.Errorw("cart_purge_option_value_failed", "option_value_id", optionValueID, "error", err)
		return 0, err
	}
	if removed > 0 {
		logger.Infow("cart_purged_for_option_value", "option_value_id", optionValueID, "removed", removed)
	}
	return removed, nil
}
