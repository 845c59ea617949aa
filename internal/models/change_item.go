package models

import (
	"time"

	"gorm.io/gorm"
)

// ChangeItem 换货/退货申请表：同一订单项同一时间至多一条未结申请
type ChangeItem struct {
	ID            uint           `gorm:"primarykey" json:"id"`                   // 主键
	OrderItemID   uint           `gorm:"index;not null" json:"order_item_id"`    // 订单项ID
	OrderID       uint           `gorm:"index;not null" json:"order_id"`         // 订单ID
	UserID        uint           `gorm:"index;not null" json:"user_id"`          // 用户ID
	ChangeType    string         `gorm:"not null" json:"change_type"`            // 类型（exchange/return）
	Reason        string         `gorm:"type:text" json:"reason"`                // 申请原因
	RefundBank    string         `json:"refund_bank"`                            // 退款银行
	RefundAccount string         `json:"refund_account"`                         // 退款账号
	RefundHolder  string         `json:"refund_holder"`                          // 退款户名
	Status        string         `gorm:"index;not null" json:"status"`           // 处理状态（requested/processing/done）
	RequestedAt   time.Time      `gorm:"index" json:"requested_at"`              // 申请时间
	ProcessedAt   *time.Time     `json:"processed_at"`                           // 处理时间
	CreatedAt     time.Time      `json:"created_at"`                             // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                             // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (ChangeItem) TableName() string {
	return "change_items"
}
