package constants

// 配送状态常量（订单粗粒度生命周期）
const (
	DeliveryStatusPendingPayment  = "pending_payment"
	DeliveryStatusPaymentComplete = "payment_complete"
	DeliveryStatusPreparing       = "preparing"
	DeliveryStatusShipping        = "shipping"
	DeliveryStatusDelivered       = "delivered"
	DeliveryStatusCanceled        = "canceled"
)

// 订单项状态常量
const (
	OrderItemStatusNormal          = 0
	OrderItemStatusCanceled        = 1
	OrderItemStatusExchangeRequest = 2
	OrderItemStatusReturnRequest   = 3
)

// 支付状态常量
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// 支付提供方常量
const (
	PaymentProviderKpay = "kpay"
)

// 换货/退货类型常量
const (
	ChangeTypeExchange = "exchange"
	ChangeTypeReturn   = "return"
)

// 换货/退货状态常量
const (
	ChangeStatusRequested  = "requested"
	ChangeStatusProcessing = "processing"
	ChangeStatusDone       = "done"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 订单号：正式订单号为 ORD_<订单ID>，头记录插入阶段先写 TMP-<uuid> 占位。
const (
	OrderNoPrefix            = "ORD"
	OrderNoPlaceholderPrefix = "TMP"
)

// CombinationKeySeparator 组合键分隔符：选项值 ID 升序后连接
const CombinationKeySeparator = "-"

// 队列与任务常量
const (
	QueueDefault           = "default"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
)
