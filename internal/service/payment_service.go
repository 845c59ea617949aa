package service

import (
	"context"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/payment/kpay"
	"github.com/shopcore-next/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService 支付对账服务
type PaymentService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	cartRepo    repository.CartRepository
	gatewayCfg  *kpay.Config
	issuerNames map[string]string
}

// NewPaymentService 创建支付对账服务
func NewPaymentService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, userRepo repository.UserRepository, cartRepo repository.CartRepository, gatewayCfg *kpay.Config, issuerNames map[string]string) *PaymentService {
	if issuerNames == nil {
		issuerNames = kpay.DefaultIssuerNames()
	}
	return &PaymentService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		cartRepo:    cartRepo,
		gatewayCfg:  gatewayCfg,
		issuerNames: issuerNames,
	}
}

// ConfirmInput 支付确认输入（前端回跳携带的网关三要素）
type ConfirmInput struct {
	UserID     uint
	OrderNo    string
	PaymentKey string
	Amount     models.Money
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// Confirm 支付确认对账：先与网关核对三要素，核对通过后在单个事务内
// 完成支付记录落账、里程扣减与订单状态翻转。
// 订单行加锁后二次校验状态，重复确认与并发确认都归并为成功返回。
func (s *PaymentService) Confirm(ctx context.Context, input ConfirmInput) (*models.Order, error) {
	if input.UserID == 0 || input.OrderNo == "" || input.PaymentKey == "" {
		return nil, ErrPaymentInvalid
	}

	log := paymentLogger(
		"order_no", input.OrderNo,
		"payment_key", input.PaymentKey,
		"user_id", input.UserID,
		"confirm_amount", input.Amount.String(),
	)
	log.Infow("payment_confirm_received")

	order, err := s.orderRepo.GetByOrderNo(input.OrderNo)
	if err != nil {
		log.Errorw("payment_confirm_order_fetch_failed", "error", err)
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		log.Warnw("payment_confirm_order_not_found")
		return nil, ErrOrderNotFound
	}
	if order.UserID != input.UserID {
		log.Warnw("payment_confirm_user_mismatch", "order_user_id", order.UserID)
		return nil, ErrOrderForbidden
	}

	// 幂等处理：已完成的订单不再走网关
	if order.DeliveryStatus == constants.DeliveryStatusPaymentComplete {
		log.Infow("payment_confirm_idempotent_success")
		return order, nil
	}
	if order.DeliveryStatus != constants.DeliveryStatusPendingPayment {
		log.Warnw("payment_confirm_order_status_invalid", "current_status", order.DeliveryStatus)
		return nil, ErrOrderStatusInvalid
	}
	if input.Amount.Decimal.Cmp(order.TotalAmount.Decimal) != 0 {
		log.Warnw("payment_confirm_amount_mismatch", "stored_amount", order.TotalAmount.String())
		return nil, ErrPaymentAmountMismatch
	}

	// 扣减前先核对余额，避免网关已扣款而本地入账失败
	if order.MileageUsed.Decimal.IsPositive() {
		user, err := s.userRepo.GetByID(order.UserID)
		if err != nil {
			log.Errorw("payment_confirm_user_fetch_failed", "error", err)
			return nil, ErrPaymentUpdateFailed
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		if order.MileageUsed.Decimal.GreaterThan(user.Mileage.Decimal) {
			log.Warnw("payment_confirm_mileage_insufficient",
				"mileage_used", order.MileageUsed.String(),
				"balance", user.Mileage.String(),
			)
			return nil, ErrMileageInsufficient
		}
	}

	result, err := kpay.Confirm(ctx, s.gatewayCfg, kpay.ConfirmInput{
		PaymentKey: input.PaymentKey,
		OrderNo:    input.OrderNo,
		Amount:     order.TotalAmount.Decimal.IntPart(),
	})
	// 网关超时或非完成态只记日志不落库，本地状态保持原样，用户可重试确认
	if err != nil {
		log.Errorw("payment_confirm_gateway_failed", "error", err)
		return nil, ErrPaymentGatewayFailed
	}
	if !kpay.IsDone(result.Status) {
		log.Warnw("payment_confirm_gateway_not_done", "gateway_status", result.Status)
		return nil, ErrPaymentNotCompleted
	}
	if result.TotalAmount != order.TotalAmount.Decimal.IntPart() {
		log.Warnw("payment_confirm_gateway_amount_mismatch",
			"gateway_amount", result.TotalAmount,
			"stored_amount", order.TotalAmount.String(),
		)
		return nil, ErrPaymentAmountMismatch
	}

	method := kpay.ResolveMethod(result, s.issuerNames)
	updated, idempotent, err := s.applyCompletion(input.OrderNo, result.PaymentKey, method)
	if err != nil {
		log.Errorw("payment_confirm_apply_failed", "error", err)
		return nil, err
	}
	log.Infow("payment_confirm_processed",
		"order_id", updated.ID,
		"method", method,
		"idempotent", idempotent,
	)
	return updated, nil
}

// applyCompletion 在单个事务内完成支付落账、里程扣减与订单状态翻转，
// 确认回跳与服务端状态推送共用此路径。
// 订单行加锁后二次校验状态，重复落账归并为幂等成功。
func (s *PaymentService) applyCompletion(orderNo, paymentKey, method string) (*models.Order, bool, error) {
	now := time.Now()
	var idempotent bool
	var orderID uint

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		locked, err := orderRepo.GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return ErrOrderFetchFailed
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		orderID = locked.ID
		// 加锁后二次校验：并发确认中先到者已翻转状态
		if locked.DeliveryStatus == constants.DeliveryStatusPaymentComplete {
			idempotent = true
			return nil
		}
		if locked.DeliveryStatus != constants.DeliveryStatusPendingPayment {
			return ErrOrderStatusInvalid
		}

		if locked.MileageUsed.Decimal.IsPositive() {
			affected, err := userRepo.DebitMileage(locked.UserID, locked.MileageUsed)
			if err != nil {
				return ErrPaymentUpdateFailed
			}
			if affected == 0 {
				return ErrMileageInsufficient
			}
		}

		payment, err := paymentRepo.GetByOrderID(locked.ID)
		if err != nil {
			return ErrPaymentUpdateFailed
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		if err := paymentRepo.Update(payment.ID, map[string]interface{}{
			"status":      constants.PaymentStatusCompleted,
			"method":      method,
			"amount":      locked.TotalAmount,
			"payment_key": paymentKey,
			"provider":    constants.PaymentProviderKpay,
			"paid_at":     now,
		}); err != nil {
			return ErrPaymentUpdateFailed
		}

		if err := orderRepo.Update(locked.ID, map[string]interface{}{
			"delivery_status": constants.DeliveryStatusPaymentComplete,
			"status_reason":   method,
			"paid_at":         now,
		}); err != nil {
			return ErrOrderUpdateFailed
		}

		// 支付完成与购物车结清同事务提交
		if err := s.cartRepo.WithTx(tx).ClearByUser(locked.UserID); err != nil {
			return ErrPaymentUpdateFailed
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil || updated == nil {
		return nil, idempotent, ErrOrderFetchFailed
	}
	return updated, idempotent, nil
}

// StatusUpdateInput 网关服务端状态推送输入
type StatusUpdateInput struct {
	OrderNo    string
	PaymentKey string
	Status     string
	Amount     models.Money
	Method     string
	IssuerCode string
}

// ApplyStatusUpdate 处理网关服务端状态推送。推送报文由网关鉴权背书，
// 不再回查网关，核对订单与金额后走与确认回跳相同的落账路径。
// 非完成态推送仅记录失败原因，订单保持待支付。
func (s *PaymentService) ApplyStatusUpdate(input StatusUpdateInput) (*models.Order, error) {
	if input.OrderNo == "" || input.PaymentKey == "" {
		return nil, ErrPaymentInvalid
	}

	log := paymentLogger(
		"order_no", input.OrderNo,
		"payment_key", input.PaymentKey,
		"gateway_status", input.Status,
	)
	log.Infow("payment_status_push_received")

	order, err := s.orderRepo.GetByOrderNo(input.OrderNo)
	if err != nil {
		log.Errorw("payment_status_push_order_fetch_failed", "error", err)
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		log.Warnw("payment_status_push_order_not_found")
		return nil, ErrOrderNotFound
	}

	if order.DeliveryStatus == constants.DeliveryStatusPaymentComplete {
		log.Infow("payment_status_push_idempotent_success")
		return order, nil
	}

	if !kpay.IsDone(input.Status) {
		log.Warnw("payment_status_push_not_done")
		s.markPaymentFailed(order, input.Status)
		return order, nil
	}

	if order.DeliveryStatus != constants.DeliveryStatusPendingPayment {
		log.Warnw("payment_status_push_order_status_invalid", "current_status", order.DeliveryStatus)
		return nil, ErrOrderStatusInvalid
	}
	if input.Amount.Decimal.Cmp(order.TotalAmount.Decimal) != 0 {
		log.Warnw("payment_status_push_amount_mismatch", "stored_amount", order.TotalAmount.String())
		return nil, ErrPaymentAmountMismatch
	}

	method := kpay.ResolveMethod(&kpay.ConfirmResult{
		Method:     input.Method,
		IssuerCode: input.IssuerCode,
	}, s.issuerNames)
	updated, idempotent, err := s.applyCompletion(input.OrderNo, input.PaymentKey, method)
	if err != nil {
		log.Errorw("payment_status_push_apply_failed", "error", err)
		return nil, err
	}
	log.Infow("payment_status_push_processed",
		"order_id", updated.ID,
		"method", method,
		"idempotent", idempotent,
	)
	return updated, nil
}

// markPaymentFailed 网关服务端推送终态失败时记录失败状态与原因，
// 订单保持待支付，用户可重新发起支付直至超时取消
func (s *PaymentService) markPaymentFailed(order *models.Order, reason string) {
	payment, err := s.paymentRepo.GetByOrderID(order.ID)
	if err != nil || payment == nil {
		return
	}
	if payment.Status == constants.PaymentStatusCompleted {
		return
	}
	if err := s.paymentRepo.Update(payment.ID, map[string]interface{}{
		"status": constants.PaymentStatusFailed,
	}); err != nil {
		logger.Warnw("payment_mark_failed_update_failed", "order_id", order.ID, "error", err)
		return
	}
	if reason != "" {
		if err := s.orderRepo.Update(order.ID, map[string]interface{}{
			"status_reason": truncateReason(reason),
		}); err != nil {
			logger.Warnw("payment_mark_failed_reason_update_failed", "order_id", order.ID, "error", err)
		}
	}
}

// GetByOrderID 获取订单的支付记录
func (s *PaymentService) GetByOrderID(orderID uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func truncateReason(reason string) string {
	const max = 255
	if len(reason) <= max {
		return reason
	}
	return reason[:max]
}
