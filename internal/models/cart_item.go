package models

import (
	"time"

	"gorm.io/gorm"
)

// CartItem 购物车项：同一 (用户, 商品, 两个选项槽位) 至多一行
type CartItem struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // 主键
	UserID         uint           `gorm:"not null;uniqueIndex:idx_cart_user_selection" json:"user_id"`   // 用户ID
	ProductID      uint           `gorm:"not null;uniqueIndex:idx_cart_user_selection" json:"product_id"` // 商品ID
	OptionValue1ID uint           `gorm:"default:0;uniqueIndex:idx_cart_user_selection;index" json:"option_value1_id"` // 选项槽位1（0 表示未使用）
	OptionValue2ID uint           `gorm:"default:0;uniqueIndex:idx_cart_user_selection;index" json:"option_value2_id"` // 选项槽位2（0 表示未使用）
	Quantity       int            `gorm:"not null" json:"quantity"`                                      // 数量
	UnitPrice      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`       // 加入时的单价快照
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
