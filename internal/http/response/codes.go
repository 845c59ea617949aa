package response

// 业务状态码：1 表示成功，负数按失败类别划分
const (
	CodeSuccess   = 1  // 成功
	CodeInvalid   = -1 // 参数或状态校验失败
	CodeNotFound  = -2 // 资源不存在
	CodeForbidden = -3 // 未认证或无权访问
	CodeConflict  = -4 // 业务冲突（余额不足、金额不符、重复申请等）
	CodeExternal  = -5 // 外部依赖失败（支付网关等）
)
