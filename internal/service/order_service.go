package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/queue"
	"github.com/shopcore-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	optionRepo     repository.OptionRepository
	paymentRepo    repository.PaymentRepository
	userRepo       repository.UserRepository
	combinationSvc *CombinationService
	queueClient    *queue.Client
	expireMinutes  int
	deliveryFee    models.Money
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, optionRepo repository.OptionRepository, paymentRepo repository.PaymentRepository, userRepo repository.UserRepository, combinationSvc *CombinationService, queueClient *queue.Client, expireMinutes int, deliveryFee models.Money) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		optionRepo:     optionRepo,
		paymentRepo:    paymentRepo,
		userRepo:       userRepo,
		combinationSvc: combinationSvc,
		queueClient:    queueClient,
		expireMinutes:  expireMinutes,
		deliveryFee:    deliveryFee,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID         uint
	RecipientName  string
	RecipientPhone string
	ZipCode        string
	Address1       string
	Address2       string
	MileageToUse   models.Money
	Items          []CreateOrderLine
}

// CreateOrderLine 创建订单项输入
type CreateOrderLine struct {
	ProductID      uint
	OptionValue1ID uint
	OptionValue2ID uint
	Quantity       int
}

// 管理端配送状态推进表：支付完成后由管理端单向推进，取消为终态
var allowedTransitions = map[string]map[string]bool{
	constants.DeliveryStatusPaymentComplete: {
		constants.DeliveryStatusPreparing: true,
		constants.DeliveryStatusShipping:  true,
	},
	constants.DeliveryStatusPreparing: {
		constants.DeliveryStatusShipping: true,
	},
	constants.DeliveryStatusShipping: {
		constants.DeliveryStatusDelivered: true,
	},
}

// CreateOrder 创建订单：校验每一行的商品与选项组合、快照当时价格，
// 以待支付状态落库并创建在途支付记录。
// 订单编号两段式生成：头记录先以占位号插入，拿到自增 ID 后在同一事务内
// 回填 ORD_<ID>，避免编号与主键两套序列漂移。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 || len(input.Items) == 0 {
		return nil, ErrInvalidOrderItem
	}
	if strings.TrimSpace(input.RecipientName) == "" || strings.TrimSpace(input.Address1) == "" {
		return nil, ErrInvalidOrderItem
	}
	if input.MileageToUse.Decimal.IsNegative() {
		return nil, ErrInvalidOrderItem
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		logger.Errorw("order_create_user_fetch_failed", "user_id", input.UserID, "error", err)
		return nil, err
	}
	if user == nil || user.Status != constants.UserStatusActive {
		return nil, ErrUserNotFound
	}
	// 下单时仅校验余额充足，实际扣减延迟到支付对账成功
	if input.MileageToUse.Decimal.GreaterThan(user.Mileage.Decimal) {
		return nil, ErrMileageInsufficient
	}

	items, subtotal, err := s.buildOrderItems(input)
	if err != nil {
		return nil, err
	}

	total := subtotal.Add(s.deliveryFee.Decimal).Sub(input.MileageToUse.Decimal)
	if total.IsNegative() {
		return nil, ErrInvalidOrderItem
	}

	now := time.Now()
	order := &models.Order{
		OrderNo:        placeholderOrderNo(),
		UserID:         input.UserID,
		RecipientName:  strings.TrimSpace(input.RecipientName),
		RecipientPhone: strings.TrimSpace(input.RecipientPhone),
		ZipCode:        strings.TrimSpace(input.ZipCode),
		Address1:       strings.TrimSpace(input.Address1),
		Address2:       strings.TrimSpace(input.Address2),
		Subtotal:       models.NewMoneyFromDecimal(subtotal),
		DeliveryFee:    s.deliveryFee,
		DiscountAmount: models.NewMoneyFromDecimal(decimal.Zero),
		MileageUsed:    input.MileageToUse,
		TotalAmount:    models.NewMoneyFromDecimal(total),
		DeliveryStatus: constants.DeliveryStatusPendingPayment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		if err := orderRepo.Create(order); err != nil {
			return ErrOrderCreateFailed
		}
		order.OrderNo = formalOrderNo(order.ID)
		if err := orderRepo.UpdateOrderNo(order.ID, order.OrderNo); err != nil {
			return ErrOrderCreateFailed
		}
		for i := range items {
			items[i].OrderID = order.ID
			items[i].UserID = input.UserID
			items[i].CreatedAt = now
			items[i].UpdatedAt = now
		}
		if err := orderRepo.CreateItems(items); err != nil {
			return ErrOrderCreateFailed
		}
		// 金额在支付完成落账时写入，待支付阶段保持为零
		payment := &models.Payment{
			OrderID:   order.ID,
			UserID:    input.UserID,
			Amount:    models.NewMoneyFromDecimal(decimal.Zero),
			Status:    constants.PaymentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := paymentRepo.Create(payment); err != nil {
			return ErrOrderCreateFailed
		}
		order.Items = items
		order.Payment = payment
		return nil
	})
	if err != nil {
		logger.Errorw("order_create_failed", "user_id", input.UserID, "error", err)
		return nil, err
	}

	s.enqueueTimeoutCancel(order)
	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", input.UserID,
		"total_amount", order.TotalAmount.String(),
		"item_count", len(items),
	)
	return order, nil
}

func (s *OrderService) buildOrderItems(input CreateOrderInput) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, line := range input.Items {
		if line.ProductID == 0 || line.Quantity <= 0 {
			return nil, decimal.Zero, ErrInvalidOrderItem
		}
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if product == nil {
			return nil, decimal.Zero, ErrProductNotFound
		}
		if !product.IsAvailable || !product.InStock {
			return nil, decimal.Zero, ErrProductNotAvailable
		}

		optionPrice := decimal.Zero
		valueIDs := make([]uint, 0, 2)
		for _, valueID := range []uint{line.OptionValue1ID, line.OptionValue2ID} {
			if valueID == 0 {
				continue
			}
			value, err := s.optionRepo.GetValueByID(valueID)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if value == nil {
				return nil, decimal.Zero, ErrOptionValueNotFound
			}
			optionPrice = optionPrice.Add(value.PriceDelta.Decimal)
			valueIDs = append(valueIDs, valueID)
		}

		types, err := s.optionRepo.ListTypesWithValues(line.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if len(types) > 0 {
			if len(valueIDs) != len(types) {
				return nil, decimal.Zero, ErrOptionInvalid
			}
			combination, err := s.combinationSvc.Resolve(line.ProductID, valueIDs)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if !combination.InStock {
				return nil, decimal.Zero, ErrCombinationOutOfStock
			}
		} else if len(valueIDs) > 0 {
			return nil, decimal.Zero, ErrOptionInvalid
		}

		basePrice := product.EffectivePrice().Decimal
		lineTotal := basePrice.Add(optionPrice).Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:      line.ProductID,
			ProductName:    product.Name,
			OptionValue1ID: line.OptionValue1ID,
			OptionValue2ID: line.OptionValue2ID,
			Quantity:       line.Quantity,
			BasePrice:      models.NewMoneyFromDecimal(basePrice),
			OptionPrice:    models.NewMoneyFromDecimal(optionPrice),
			TotalPrice:     models.NewMoneyFromDecimal(lineTotal),
			Status:         constants.OrderItemStatusNormal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, nil
}

func (s *OrderService) enqueueTimeoutCancel(order *models.Order) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	delay := time.Duration(s.expireMinutes) * time.Minute
	if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, delay); err != nil {
		logger.Warnw("order_timeout_cancel_enqueue_failed", "order_id", order.ID, "error", err)
	}
}

// GetForUser 获取用户本人的订单
func (s *OrderService) GetForUser(userID, orderID uint) (*models.Order, error) {
	if userID == 0 || orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListForUser 分页获取用户订单
func (s *OrderService) ListForUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrUserNotFound
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.orderRepo.ListByUser(filter)
}

// ListForAdmin 管理端分页查询全量订单
func (s *OrderService) ListForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.orderRepo.List(filter)
}

// CancelSummary 支付前取消结果
type CancelSummary struct {
	PreviousStatus string `json:"previous_status"`
	ItemsDeleted   int64  `json:"items_deleted"`
	PaymentDeleted bool   `json:"payment_deleted"`
}

// CancelPendingOrder 支付前取消：订单从未对外发生过支付事实，
// 头、项、在途支付记录全部物理删除而不是留痕。
func (s *OrderService) CancelPendingOrder(userID, orderID uint) (*CancelSummary, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderForbidden
	}
	if order.DeliveryStatus != constants.DeliveryStatusPendingPayment {
		return nil, ErrOrderCancelNotAllowed
	}
	itemsDeleted, paymentDeleted, err := s.hardDeleteOrder(order)
	if err != nil {
		logger.Errorw("order_cancel_failed", "order_id", orderID, "error", err)
		return nil, ErrOrderUpdateFailed
	}
	logger.Infow("order_canceled_before_payment", "order_id", orderID, "order_no", order.OrderNo, "user_id", userID)
	return &CancelSummary{
		PreviousStatus: order.DeliveryStatus,
		ItemsDeleted:   itemsDeleted,
		PaymentDeleted: paymentDeleted,
	}, nil
}

// CancelExpiredOrder 超时取消：到期仍未支付的订单按支付前取消处理。
// 任务投递后订单可能已支付或已被用户删除，这两种情况直接跳过。
func (s *OrderService) CancelExpiredOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return nil
	}
	if order.DeliveryStatus != constants.DeliveryStatusPendingPayment {
		return nil
	}
	if _, _, err := s.hardDeleteOrder(order); err != nil {
		logger.Errorw("order_timeout_cancel_failed", "order_id", orderID, "error", err)
		return ErrOrderUpdateFailed
	}
	logger.Infow("order_canceled_by_timeout", "order_id", orderID, "order_no", order.OrderNo)
	return nil
}

// SweepExpiredOrders 兜底扫描：清理超时任务漏投或队列停摆期间积压的过期待支付订单。
// 返回成功清理的数量。
func (s *OrderService) SweepExpiredOrders(now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	deadline := now.Add(-time.Duration(s.expireMinutes) * time.Minute)
	expired, err := s.orderRepo.ListExpiredPending(deadline, limit)
	if err != nil {
		return 0, err
	}
	cleaned := 0
	for _, order := range expired {
		if err := s.CancelExpiredOrder(order.ID); err != nil {
			logger.Warnw("order_sweep_cancel_failed", "order_id", order.ID, "error", err)
			continue
		}
		cleaned++
	}
	if cleaned > 0 {
		logger.Infow("order_sweep_done", "cleaned", cleaned)
	}
	return cleaned, nil
}

// hardDeleteOrder 按依赖顺序删除：先订单项，再支付行，最后订单头
func (s *OrderService) hardDeleteOrder(order *models.Order) (int64, bool, error) {
	var itemsDeleted, paymentsDeleted int64
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		var err error
		if itemsDeleted, err = orderRepo.HardDeleteItems(order.ID); err != nil {
			return err
		}
		if paymentsDeleted, err = s.paymentRepo.WithTx(tx).HardDeleteByOrder(order.ID); err != nil {
			return err
		}
		return orderRepo.HardDeleteHeader(order.ID)
	})
	return itemsDeleted, paymentsDeleted > 0, err
}

// CancelLine 支付后取消单个订单项：发货前可取消，
// 全部订单项取消后整单归并为取消状态。
func (s *OrderService) CancelLine(userID, orderItemID uint) error {
	item, err := s.orderRepo.GetItemByID(orderItemID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if item == nil {
		return ErrOrderItemNotFound
	}
	if item.UserID != userID {
		return ErrOrderForbidden
	}
	if item.Status != constants.OrderItemStatusNormal {
		return ErrOrderCancelNotAllowed
	}
	order, err := s.orderRepo.GetByID(item.OrderID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return ErrOrderNotFound
	}
	switch order.DeliveryStatus {
	case constants.DeliveryStatusPaymentComplete, constants.DeliveryStatusPreparing:
	default:
		return ErrOrderCancelNotAllowed
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.UpdateItemStatus(orderItemID, constants.OrderItemStatusCanceled); err != nil {
			return err
		}
		remaining, err := orderRepo.CountItemsNotInStatus(order.ID, constants.OrderItemStatusCanceled)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return orderRepo.UpdateDeliveryStatus(order.ID, constants.DeliveryStatusCanceled, "")
		}
		return nil
	})
	if err != nil {
		logger.Errorw("order_line_cancel_failed", "order_item_id", orderItemID, "error", err)
		return ErrOrderUpdateFailed
	}
	logger.Infow("order_line_canceled", "order_id", order.ID, "order_item_id", orderItemID, "user_id", userID)
	return nil
}

// UpdateDeliveryStatus 管理端推进配送状态，非法跃迁直接拒绝
func (s *OrderService) UpdateDeliveryStatus(orderID uint, target string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if !allowedTransitions[order.DeliveryStatus][target] {
		logger.Warnw("order_status_transition_rejected",
			"order_id", orderID,
			"current_status", order.DeliveryStatus,
			"target_status", target,
		)
		return ErrOrderStatusInvalid
	}
	if err := s.orderRepo.UpdateDeliveryStatus(orderID, target, ""); err != nil {
		logger.Errorw("order_status_update_failed", "order_id", orderID, "error", err)
		return ErrOrderUpdateFailed
	}
	logger.Infow("order_status_updated", "order_id", orderID, "from", order.DeliveryStatus, "to", target)
	return nil
}

func placeholderOrderNo() string {
	return fmt.Sprintf("%s-%s", constants.OrderNoPlaceholderPrefix, uuid.NewString())
}

func formalOrderNo(orderID uint) string {
	return fmt.Sprintf("%s_%d", constants.OrderNoPrefix, orderID)
}
