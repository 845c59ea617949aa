package public

import (
	"errors"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// 购物车与下单共用的商品/选项校验错误
var selectionErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "商品不存在"},
	{target: service.ErrProductNotAvailable, code: response.CodeInvalid, msg: "商品不可购买"},
	{target: service.ErrOptionValueNotFound, code: response.CodeNotFound, msg: "选项值不存在"},
	{target: service.ErrOptionInvalid, code: response.CodeInvalid, msg: "选项选择不完整或无效"},
	{target: service.ErrCombinationNotFound, code: response.CodeNotFound, msg: "选项组合不存在"},
	{target: service.ErrCombinationOutOfStock, code: response.CodeConflict, msg: "选项组合已缺货"},
}

var cartErrorRules = concatMappedHandlerErrors(selectionErrorRules, []mappedHandlerError{
	{target: service.ErrCartItemInvalid, code: response.CodeInvalid, msg: "购物车项无效"},
})

var orderCreateErrorRules = concatMappedHandlerErrors(selectionErrorRules, []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeInvalid, msg: "订单项无效"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "用户不存在"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, msg: "账号已停用"},
	{target: service.ErrMileageInsufficient, code: response.CodeConflict, msg: "里程余额不足"},
})

var orderAccessErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrOrderForbidden, code: response.CodeForbidden, msg: "无权访问该订单"},
}

var orderCancelErrorRules = concatMappedHandlerErrors(orderAccessErrorRules, []mappedHandlerError{
	{target: service.ErrOrderCancelNotAllowed, code: response.CodeConflict, msg: "当前状态不允许取消"},
	{target: service.ErrOrderItemNotFound, code: response.CodeNotFound, msg: "订单项不存在"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeInvalid, msg: "订单状态无效"},
})

var paymentConfirmErrorRules = concatMappedHandlerErrors(orderAccessErrorRules, []mappedHandlerError{
	{target: service.ErrPaymentInvalid, code: response.CodeInvalid, msg: "支付参数无效"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "支付记录不存在"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeConflict, msg: "订单状态不允许支付"},
	{target: service.ErrPaymentAmountMismatch, code: response.CodeConflict, msg: "支付金额与订单不符"},
	{target: service.ErrMileageInsufficient, code: response.CodeConflict, msg: "里程余额不足"},
	{target: service.ErrPaymentGatewayFailed, code: response.CodeExternal, msg: "支付网关请求失败"},
	{target: service.ErrPaymentNotCompleted, code: response.CodeExternal, msg: "支付未完成"},
})

var changeRequestErrorRules = concatMappedHandlerErrors(orderAccessErrorRules, []mappedHandlerError{
	{target: service.ErrOrderItemNotFound, code: response.CodeNotFound, msg: "订单项不存在"},
	{target: service.ErrChangeNotFound, code: response.CodeNotFound, msg: "换/退货申请不存在"},
	{target: service.ErrChangeNotAllowed, code: response.CodeConflict, msg: "当前状态不允许申请换/退货"},
	{target: service.ErrChangeAlreadyOpen, code: response.CodeConflict, msg: "该订单项已有未结申请"},
	{target: service.ErrChangeStatusInvalid, code: response.CodeInvalid, msg: "申请状态无效"},
	{target: service.ErrRefundAccountMissing, code: response.CodeInvalid, msg: "退货需提供退款账户信息"},
})
