package repository

import (
	"errors"

	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付记录数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByOrderID(orderID uint) (*models.Payment, error)
	GetByPaymentKey(paymentKey string) (*models.Payment, error)
	Update(id uint, updates map[string]interface{}) error
	HardDeleteByOrder(orderID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByOrderID 获取订单的在途支付记录
func (r *GormPaymentRepository) GetByOrderID(orderID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("order_id = ?", orderID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByPaymentKey 根据网关支付键获取支付记录
func (r *GormPaymentRepository) GetByPaymentKey(paymentKey string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("payment_key = ?", paymentKey).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// Update 更新支付记录字段
func (r *GormPaymentRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Payment{}).Where("id = ?", id).Updates(updates).Error
}

// HardDeleteByOrder 物理删除订单的支付记录（支付前取消专用），返回删除行数
func (r *GormPaymentRepository) HardDeleteByOrder(orderID uint) (int64, error) {
	result := r.db.Unscoped().Where("order_id = ?", orderID).Delete(&models.Payment{})
	return result.RowsAffected, result.Error
}
