package models

import (
	"time"

	"gorm.io/gorm"
)

// OptionCombination 选项组合表：商品各选项类型的笛卡尔积展开
type OptionCombination struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                               // 主键
	ProductID      uint           `gorm:"index;not null;uniqueIndex:idx_product_combination" json:"product_id"` // 商品ID
	CombinationKey string         `gorm:"not null;uniqueIndex:idx_product_combination" json:"combination_key"`  // 组合键（选项值ID升序连接）
	InStock        bool           `gorm:"default:true;index" json:"in_stock"`                                 // 库存状态（所有成员值的 AND）
	CreatedAt      time.Time      `json:"created_at"`                                                         // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                                         // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                     // 软删除时间

	Mappings []CombinationMapping `gorm:"foreignKey:CombinationID" json:"mappings,omitempty"` // 组合成员映射
}

// TableName 指定表名
func (OptionCombination) TableName() string {
	return "option_combinations"
}

// CombinationMapping 组合与选项值的多对多映射行
type CombinationMapping struct {
	ID            uint `gorm:"primarykey" json:"id"`                   // 主键
	CombinationID uint `gorm:"index;not null" json:"combination_id"`   // 组合ID
	OptionValueID uint `gorm:"index;not null" json:"option_value_id"`  // 选项值ID
}

// TableName 指定表名
func (CombinationMapping) TableName() string {
	return "combination_mappings"
}
