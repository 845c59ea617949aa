package service

import (
	"strings"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"gorm.io/gorm"
)

// ChangeService 换货/退货申请服务。
// 申请与订单项状态联动：提交申请时订单项标记为对应的申请中状态，
// 撤回时恢复正常状态。
type ChangeService struct {
	changeRepo repository.ChangeRepository
	orderRepo  repository.OrderRepository
}

// NewChangeService 创建换退货服务
func NewChangeService(changeRepo repository.ChangeRepository, orderRepo repository.OrderRepository) *ChangeService {
	return &ChangeService{
		changeRepo: changeRepo,
		orderRepo:  orderRepo,
	}
}

// RequestChangeInput 换退货申请输入
type RequestChangeInput struct {
	UserID        uint
	OrderItemID   uint
	ChangeType    string
	Reason        string
	RefundBank    string
	RefundAccount string
	RefundHolder  string
}

var changeStatusTransitions = map[string]map[string]bool{
	constants.ChangeStatusRequested: {
		constants.ChangeStatusProcessing: true,
		constants.ChangeStatusDone:       true,
	},
	constants.ChangeStatusProcessing: {
		constants.ChangeStatusDone: true,
	},
}

// Request 提交换货或退货申请：仅发货后可申请，同一订单项至多一条未结申请。
// 退货申请必须携带退款账户。
func (s *ChangeService) Request(input RequestChangeInput) (*models.ChangeItem, error) {
	if input.UserID == 0 || input.OrderItemID == 0 {
		return nil, ErrChangeNotAllowed
	}
	var itemStatus int
	switch input.ChangeType {
	case constants.ChangeTypeExchange:
		itemStatus = constants.OrderItemStatusExchangeRequest
	case constants.ChangeTypeReturn:
		itemStatus = constants.OrderItemStatusReturnRequest
		if strings.TrimSpace(input.RefundBank) == "" ||
			strings.TrimSpace(input.RefundAccount) == "" ||
			strings.TrimSpace(input.RefundHolder) == "" {
			return nil, ErrRefundAccountMissing
		}
	default:
		return nil, ErrChangeNotAllowed
	}

	item, err := s.orderRepo.GetItemByID(input.OrderItemID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if item == nil {
		return nil, ErrOrderItemNotFound
	}
	if item.UserID != input.UserID {
		return nil, ErrOrderForbidden
	}
	if item.Status != constants.OrderItemStatusNormal {
		return nil, ErrChangeNotAllowed
	}

	order, err := s.orderRepo.GetByID(item.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	switch order.DeliveryStatus {
	case constants.DeliveryStatusShipping, constants.DeliveryStatusDelivered:
	default:
		return nil, ErrChangeNotAllowed
	}

	open, err := s.changeRepo.GetOpenByOrderItem(input.OrderItemID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrChangeAlreadyOpen
	}

	now := time.Now()
	change := &models.ChangeItem{
		OrderItemID:   input.OrderItemID,
		OrderID:       item.OrderID,
		UserID:        input.UserID,
		ChangeType:    input.ChangeType,
		Reason:        strings.TrimSpace(input.Reason),
		RefundBank:    strings.TrimSpace(input.RefundBank),
		RefundAccount: strings.TrimSpace(input.RefundAccount),
		RefundHolder:  strings.TrimSpace(input.RefundHolder),
		Status:        constants.ChangeStatusRequested,
		RequestedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.changeRepo.WithTx(tx).Create(change); err != nil {
			return err
		}
		return s.orderRepo.WithTx(tx).UpdateItemStatus(input.OrderItemID, itemStatus)
	})
	if err != nil {
		logger.Errorw("change_request_failed", "order_item_id", input.OrderItemID, "error", err)
		return nil, ErrOrderUpdateFailed
	}
	logger.Infow("change_requested",
		"change_id", change.ID,
		"order_id", item.OrderID,
		"order_item_id", input.OrderItemID,
		"change_type", input.ChangeType,
	)
	return change, nil
}

// Withdraw 撤回申请：仅待受理状态可撤回，订单项恢复正常，申请行物理删除
func (s *ChangeService) Withdraw(userID, changeID uint) error {
	change, err := s.changeRepo.GetByID(changeID)
	if err != nil {
		return err
	}
	if change == nil {
		return ErrChangeNotFound
	}
	if change.UserID != userID {
		return ErrOrderForbidden
	}
	if change.Status != constants.ChangeStatusRequested {
		return ErrChangeStatusInvalid
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.changeRepo.WithTx(tx).HardDelete(changeID); err != nil {
			return err
		}
		return s.orderRepo.WithTx(tx).UpdateItemStatus(change.OrderItemID, constants.OrderItemStatusNormal)
	})
	if err != nil {
		logger.Errorw("change_withdraw_failed", "change_id", changeID, "error", err)
		return ErrOrderUpdateFailed
	}
	logger.Infow("change_withdrawn", "change_id", changeID, "order_item_id", change.OrderItemID)
	return nil
}

// AdvanceStatus 管理端推进申请状态，处理完成时记录处理时间
func (s *ChangeService) AdvanceStatus(changeID uint, target string) error {
	change, err := s.changeRepo.GetByID(changeID)
	if err != nil {
		return err
	}
	if change == nil {
		return ErrChangeNotFound
	}
	if !changeStatusTransitions[change.Status][target] {
		return ErrChangeStatusInvalid
	}

	updates := map[string]interface{}{"status": target}
	if target == constants.ChangeStatusDone {
		updates["processed_at"] = time.Now()
	}
	if err := s.changeRepo.Update(changeID, updates); err != nil {
		logger.Errorw("change_status_update_failed", "change_id", changeID, "error", err)
		return ErrOrderUpdateFailed
	}
	logger.Infow("change_status_updated", "change_id", changeID, "from", change.Status, "to", target)
	return nil
}

// ListByOrder 获取订单的全部换退货申请
func (s *ChangeService) ListByOrder(userID, orderID uint) ([]models.ChangeItem, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.changeRepo.ListByOrder(orderID)
}

// ListByOrderForAdmin 管理端获取订单的全部换退货申请（不校验归属）
func (s *ChangeService) ListByOrderForAdmin(orderID uint) ([]models.ChangeItem, error) {
	return s.changeRepo.ListByOrder(orderID)
}
