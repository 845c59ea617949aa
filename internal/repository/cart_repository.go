package repository

import (
	"errors"

	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	Upsert(item *models.CartItem) error
	DeleteByUserAndSelection(userID, productID, optionValue1ID, optionValue2ID uint) error
	ClearByUser(userID uint) error
	DeleteByProduct(productID uint) (int64, error)
	DeleteByOptionValue(optionValueID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车项
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("updated_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert 添加或更新购物车项（同选择组合的行累加数量并刷新价格快照）
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	var existing models.CartItem
	err := r.db.Where(
		"user_id = ? AND product_id = ? AND option_value1_id = ? AND option_value2_id = ?",
		item.UserID, item.ProductID, item.OptionValue1ID, item.OptionValue2ID,
	).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(item).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"quantity":   existing.Quantity + item.Quantity,
		"unit_price": item.UnitPrice,
		"updated_at": item.UpdatedAt,
	}
	return r.db.Model(&existing).Updates(updates).Error
}

// DeleteByUserAndSelection 删除购物车项
func (r *GormCartRepository) DeleteByUserAndSelection(userID, productID, optionValue1ID, optionValue2ID uint) error {
	return r.db.Where(
		"user_id = ? AND product_id = ? AND option_value1_id = ? AND option_value2_id = ?",
		userID, productID, optionValue1ID, optionValue2ID,
	).Delete(&models.CartItem{}).Error
}

// ClearByUser 清空用户购物车
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// DeleteByProduct 删除全部用户中引用该商品的购物车项，返回删除行数
func (r *GormCartRepository) DeleteByProduct(productID uint) (int64, error) {
	result := r.db.Where("product_id = ?", productID).Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteByOptionValue 删除任一槽位引用该选项值的购物车项，返回删除行数
func (r *GormCartRepository) DeleteByOptionValue(optionValueID uint) (int64, error) {
	result := r.db.Where("option_value1_id = ? OR option_value2_id = ?", optionValueID, optionValueID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
