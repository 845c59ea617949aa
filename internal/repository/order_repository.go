package repository

import (
	"errors"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderListFilter 订单列表筛选参数
type OrderListFilter struct {
	UserID         uint
	DeliveryStatus string
	StartTime      *time.Time
	EndTime        *time.Time
	Page           int
	PageSize       int
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	UpdateOrderNo(id uint, orderNo string) error
	CreateItems(items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id, userID uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByOrderNoForUpdate(orderNo string) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	Update(id uint, updates map[string]interface{}) error
	UpdateDeliveryStatus(id uint, status, reason string) error
	GetItemByID(id uint) (*models.OrderItem, error)
	ListItems(orderID uint) ([]models.OrderItem, error)
	UpdateItemStatus(id uint, status int) error
	CountItemsNotInStatus(orderID uint, status int) (int64, error)
	HardDeleteItems(orderID uint) (int64, error)
	HardDeleteHeader(id uint) error
	ListExpiredPending(before time.Time, limit int) ([]models.Order, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单头
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// UpdateOrderNo 回填正式订单编号
func (r *GormOrderRepository) UpdateOrderNo(id uint, orderNo string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("order_no", orderNo).Error
}

// CreateItems 批量创建订单项
func (r *GormOrderRepository) CreateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// GetByID 根据 ID 获取订单（含订单项与支付记录）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Payment").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户本人的订单
func (r *GormOrderRepository) GetByIDAndUser(id, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Payment").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单编号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Payment").
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNoForUpdate 以行锁获取订单，用于对账时的并发保护。
// sqlite 不支持 FOR UPDATE，锁子句在其上是空操作，由单写者特性兜底。
func (r *GormOrderRepository) GetByOrderNoForUpdate(orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser 分页查询用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	return r.listWithFilter(query, filter)
}

// List 管理端订单列表（UserID 为 0 时不按用户过滤）
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	return r.listWithFilter(query, filter)
}

func (r *GormOrderRepository) listWithFilter(query *gorm.DB, filter OrderListFilter) ([]models.Order, int64, error) {
	if filter.DeliveryStatus != "" {
		query = query.Where("delivery_status = ?", filter.DeliveryStatus)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at < ?", *filter.EndTime)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := applyPagination(query, filter.Page, filter.PageSize).
		Preload("Items").Preload("Payment").
		Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Update 更新订单字段
func (r *GormOrderRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateDeliveryStatus 更新配送状态与状态说明
func (r *GormOrderRepository) UpdateDeliveryStatus(id uint, status, reason string) error {
	updates := map[string]interface{}{"delivery_status": status}
	if reason != "" {
		updates["status_reason"] = reason
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// GetItemByID 根据 ID 获取订单项
func (r *GormOrderRepository) GetItemByID(id uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListItems 获取订单的全部订单项
func (r *GormOrderRepository) ListItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItemStatus 更新订单项状态
func (r *GormOrderRepository) UpdateItemStatus(id uint, status int) error {
	return r.db.Model(&models.OrderItem{}).Where("id = ?", id).Update("status", status).Error
}

// CountItemsNotInStatus 统计订单中不处于指定状态的订单项数量，用于整单状态归并
func (r *GormOrderRepository) CountItemsNotInStatus(orderID uint, status int) (int64, error) {
	var count int64
	err := r.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND status <> ?", orderID, status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// HardDeleteItems 物理删除订单项（支付前取消专用），返回删除的行数
func (r *GormOrderRepository) HardDeleteItems(orderID uint) (int64, error) {
	result := r.db.Unscoped().Where("order_id = ?", orderID).Delete(&models.OrderItem{})
	return result.RowsAffected, result.Error
}

// HardDeleteHeader 物理删除订单头（先删订单项与支付行）
func (r *GormOrderRepository) HardDeleteHeader(id uint) error {
	return r.db.Unscoped().Delete(&models.Order{}, id).Error
}

// ListExpiredPending 获取超过支付时限仍待支付的订单
func (r *GormOrderRepository) ListExpiredPending(before time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Where("delivery_status = ? AND created_at < ?", constants.DeliveryStatusPendingPayment, before).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
