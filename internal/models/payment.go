package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录：下单时以 pending 创建，网关对账时原地更新
type Payment struct {
	ID         uint           `gorm:"primarykey" json:"id"`                      // 主键
	OrderID    uint           `gorm:"uniqueIndex;not null" json:"order_id"`      // 订单ID（每单一条在途支付）
	UserID     uint           `gorm:"index;not null" json:"user_id"`             // 用户ID
	Method     string         `json:"method"`                                    // 支付方式（对账时由发卡机构代码映射）
	Amount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 支付金额
	Status     string         `gorm:"index;not null" json:"status"`              // 支付状态
	PaymentKey string         `gorm:"index" json:"payment_key"`                  // 网关支付键
	Provider   string         `json:"provider"`                                  // 网关提供方标识
	PaidAt     *time.Time     `gorm:"index" json:"paid_at"`                      // 支付时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
