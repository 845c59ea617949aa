package models

import (
	"time"

	"gorm.io/gorm"
)

// OptionType 商品选项类型表（如尺码、颜色）
type OptionType struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // 主键
	ProductID uint           `gorm:"index;not null" json:"product_id"`  // 商品ID
	Name      string         `gorm:"not null" json:"name"`              // 选项名称
	Required  bool           `gorm:"default:true" json:"required"`      // 是否必选
	SortOrder int            `gorm:"default:0;index" json:"sort_order"` // 排序权重
	CreatedAt time.Time      `json:"created_at"`                        // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间

	Values []OptionValue `gorm:"foreignKey:OptionTypeID" json:"values,omitempty"` // 选项值列表
}

// TableName 指定表名
func (OptionType) TableName() string {
	return "option_types"
}

// OptionValue 商品选项值表
type OptionValue struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OptionTypeID uint           `gorm:"index;not null" json:"option_type_id"`                      // 选项类型ID
	Name         string         `gorm:"not null" json:"name"`                                      // 选项值名称
	PriceDelta   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_delta"` // 价格加减项
	InStock      bool           `gorm:"default:true;index" json:"in_stock"`                        // 库存状态
	SortOrder    int            `gorm:"default:0;index" json:"sort_order"`                         // 排序权重
	CreatedAt    time.Time      `json:"created_at"`                                                // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (OptionValue) TableName() string {
	return "option_values"
}
