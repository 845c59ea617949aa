package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
type OrderItem struct {
	ID             uint           `gorm:"primarykey" json:"id"`                  // 主键
	OrderID        uint           `gorm:"index;not null" json:"order_id"`        // 订单ID
	UserID         uint           `gorm:"index;not null" json:"user_id"`         // 用户ID
	ProductID      uint           `gorm:"index;not null" json:"product_id"`      // 商品ID
	ProductName    string         `gorm:"not null" json:"product_name"`          // 商品名称快照
	OptionValue1ID uint           `gorm:"default:0" json:"option_value1_id"`     // 选项槽位1（0 表示未使用）
	OptionValue2ID uint           `gorm:"default:0" json:"option_value2_id"`     // 选项槽位2（0 表示未使用）
	Quantity       int            `gorm:"not null" json:"quantity"`              // 数量
	BasePrice      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`   // 下单时单价快照
	OptionPrice    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"option_price"` // 选项价格加减合计
	TotalPrice     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`  // 小计
	Status         int            `gorm:"not null;default:0;index" json:"status"` // 订单项状态（0正常 1取消 2换货申请 3退货申请）
	ReviewWritten  bool           `gorm:"default:false" json:"review_written"`   // 是否已写评价
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`               // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`               // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                        // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
