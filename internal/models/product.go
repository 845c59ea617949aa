package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                       // 主键
	Name          string         `gorm:"not null" json:"name"`                                       // 商品名称
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`         // 原价
	DiscountPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_price"` // 折扣价（0 表示无折扣）
	IsPremium     bool           `gorm:"default:false" json:"is_premium"`                            // 精选商品标记
	InStock       bool           `gorm:"default:true;index" json:"in_stock"`                         // 库存状态
	IsAvailable   bool           `gorm:"default:true;index" json:"is_available"`                     // 是否可售
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                 // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	// 关联
	OptionTypes []OptionType `gorm:"foreignKey:ProductID" json:"option_types,omitempty"` // 选项类型列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePrice 返回结算单价：有折扣价用折扣价，否则用原价
func (p Product) EffectivePrice() Money {
	if p.DiscountPrice.Decimal.IsPositive() {
		return p.DiscountPrice
	}
	return p.Price
}
