package service

import "errors"

// 业务错误集合，handler 层据此映射响应码
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrOptionValueNotFound = errors.New("option value not found")
	ErrOptionInvalid       = errors.New("option selection invalid")

	ErrCombinationNotFound   = errors.New("option combination not found")
	ErrCombinationOutOfStock = errors.New("option combination out of stock")

	ErrCartItemInvalid = errors.New("cart item invalid")

	ErrInvalidOrderItem      = errors.New("invalid order item")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderFetchFailed      = errors.New("order fetch failed")
	ErrOrderCreateFailed     = errors.New("order create failed")
	ErrOrderUpdateFailed     = errors.New("order update failed")
	ErrOrderStatusInvalid    = errors.New("order status invalid")
	ErrOrderCancelNotAllowed = errors.New("order cancel not allowed")
	ErrOrderItemNotFound     = errors.New("order item not found")
	ErrOrderForbidden        = errors.New("order belongs to another user")

	ErrMileageInsufficient = errors.New("mileage insufficient")

	ErrPaymentInvalid        = errors.New("payment invalid")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentUpdateFailed   = errors.New("payment update failed")
	ErrPaymentAmountMismatch = errors.New("payment amount mismatch")
	ErrPaymentGatewayFailed  = errors.New("payment gateway request failed")
	ErrPaymentNotCompleted   = errors.New("payment not completed by gateway")

	ErrChangeNotFound       = errors.New("change request not found")
	ErrChangeAlreadyOpen    = errors.New("change request already open")
	ErrChangeNotAllowed     = errors.New("change request not allowed")
	ErrChangeStatusInvalid  = errors.New("change status invalid")
	ErrRefundAccountMissing = errors.New("refund account required")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserDisabled       = errors.New("user disabled")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token invalid")
)
