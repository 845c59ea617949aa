package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（订单头）
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                 // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"` // 订单编号（ORD_<ID>，插入后回填）
	UserID         uint           `gorm:"index;not null" json:"user_id"`        // 用户ID
	RecipientName  string         `gorm:"not null" json:"recipient_name"`       // 收件人姓名
	RecipientPhone string         `gorm:"not null" json:"recipient_phone"`      // 收件人电话
	ZipCode        string         `gorm:"type:varchar(20)" json:"zip_code"`     // 邮编
	Address1       string         `gorm:"not null" json:"address1"`             // 地址
	Address2       string         `json:"address2"`                             // 详细地址
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`       // 商品小计
	DeliveryFee    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`   // 配送费
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	MileageUsed    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"mileage_used"`   // 使用里程
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`   // 实付金额
	DeliveryStatus string         `gorm:"index;not null" json:"delivery_status"` // 配送状态
	StatusReason   string         `json:"status_reason"`                        // 状态说明（支付渠道描述）
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                 // 支付时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间

	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`  // 订单项
	Payment *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"` // 支付记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
