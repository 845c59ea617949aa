package repository

import (
	"errors"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
)

// ChangeRepository 换货/退货申请数据访问接口
type ChangeRepository interface {
	Create(change *models.ChangeItem) error
	GetByID(id uint) (*models.ChangeItem, error)
	GetOpenByOrderItem(orderItemID uint) (*models.ChangeItem, error)
	ListByOrder(orderID uint) ([]models.ChangeItem, error)
	Update(id uint, updates map[string]interface{}) error
	HardDelete(id uint) error
	WithTx(tx *gorm.DB) *GormChangeRepository
}

// GormChangeRepository GORM 实现
type GormChangeRepository struct {
	db *gorm.DB
}

// NewChangeRepository 创建换退货仓库
func NewChangeRepository(db *gorm.DB) *GormChangeRepository {
	return &GormChangeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormChangeRepository) WithTx(tx *gorm.DB) *GormChangeRepository {
	if tx == nil {
		return r
	}
	return &GormChangeRepository{db: tx}
}

// Create 创建换退货申请
func (r *GormChangeRepository) Create(change *models.ChangeItem) error {
	return r.db.Create(change).Error
}

// GetByID 根据 ID 获取申请
func (r *GormChangeRepository) GetByID(id uint) (*models.ChangeItem, error) {
	var change models.ChangeItem
	if err := r.db.First(&change, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &change, nil
}

// GetOpenByOrderItem 获取订单项的未结申请（requested/processing）
func (r *GormChangeRepository) GetOpenByOrderItem(orderItemID uint) (*models.ChangeItem, error) {
	var change models.ChangeItem
	err := r.db.Where("order_item_id = ? AND status IN ?", orderItemID,
		[]string{constants.ChangeStatusRequested, constants.ChangeStatusProcessing}).
		First(&change).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &change, nil
}

// ListByOrder 获取订单的全部换退货申请
func (r *GormChangeRepository) ListByOrder(orderID uint) ([]models.ChangeItem, error) {
	var changes []models.ChangeItem
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}

// Update 更新申请字段
func (r *GormChangeRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.ChangeItem{}).Where("id = ?", id).Updates(updates).Error
}

// HardDelete 物理删除申请（用户撤回专用）
func (r *GormChangeRepository) HardDelete(id uint) error {
	return r.db.Unscoped().Delete(&models.ChangeItem{}, id).Error
}
