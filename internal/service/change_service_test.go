package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupChangeServiceTest(t *testing.T) (*ChangeService, *OrderService, *CombinationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:change_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.OptionType{},
		&models.OptionValue{},
		&models.OptionCombination{},
		&models.CombinationMapping{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.ChangeItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	optionRepo := repository.NewOptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)
	changeRepo := repository.NewChangeRepository(db)
	combinationRepo := repository.NewCombinationRepository(db)
	combinationSvc := NewCombinationService(combinationRepo, optionRepo, productRepo)
	orderSvc := NewOrderService(orderRepo, productRepo, optionRepo, paymentRepo, userRepo, combinationSvc, nil, 15, models.NewMoneyFromInt(3000))
	changeSvc := NewChangeService(changeRepo, orderRepo)
	return changeSvc, orderSvc, combinationSvc, db
}

func createShippedOrder(t *testing.T, orderSvc *OrderService, combinationSvc *CombinationService, db *gorm.DB) (*models.User, *models.Order) {
	t.Helper()
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 0)
	order := createPendingOrder(t, orderSvc, user.ID, product, values)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("delivery_status", constants.DeliveryStatusShipping).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	return user, order
}

func TestRequestExchangeMarksItem(t *testing.T) {
	changeSvc, orderSvc, combinationSvc, db := setupChangeServiceTest(t)
	user, order := createShippedOrder(t, orderSvc, combinationSvc, db)

	change, err := changeSvc.Request(RequestChangeInput{
		UserID:      user.ID,
		OrderItemID: order.Items[0].ID,
		ChangeType:  constants.ChangeTypeExchange,
		Reason:      "사이즈 교환",
	})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if change.Status != constants.ChangeStatusRequested {
		t.Fatalf("unexpected change status: %s", change.Status)
	}

	var item models.OrderItem
	if err := db.First(&item, order.Items[0].ID).Error; err != nil {
		t.Fatalf("fetch item failed: %v", err)
	}
	if item.Status != constants.OrderItemStatusExchangeRequest {
		t.Fatalf("item should be marked exchange request, got %d", item.Status)
	}

	// 同一订单项不允许并存两条未结申请
	_, err = changeSvc.Request(RequestChangeInput{
		UserID:      user.ID,
		OrderItemID: order.Items[0].ID,
		ChangeType:  constants.ChangeTypeReturn,
		RefundBank:  "국민은행", RefundAccount: "123-456", RefundHolder: "홍길동",
	})
	if err != ErrChangeNotAllowed {
		t.Fatalf("expected ErrChangeNotAllowed for non-normal item, got: %v", err)
	}
}

func TestRequestReturnRequiresRefundAccount(t *testing.T) {
	changeSvc, orderSvc, combinationSvc, db := setupChangeServiceTest(t)
	user, order := createShippedOrder(t, orderSvc, combinationSvc, db)

	_, err := changeSvc.Request(RequestChangeInput{
		UserID:      user.ID,
		OrderItemID: order.Items[0].ID,
		ChangeType:  constants.ChangeTypeReturn,
		Reason:      "단순 변심",
	})
	if err != ErrRefundAccountMissing {
		t.Fatalf("expected ErrRefundAccountMissing, got: %v", err)
	}

	change, err := changeSvc.Request(RequestChangeInput{
		UserID:        user.ID,
		OrderItemID:   order.Items[0].ID,
		ChangeType:    constants.ChangeTypeReturn,
		Reason:        "단순 변심",
		RefundBank:    "국민은행",
		RefundAccount: "123-456",
		RefundHolder:  "홍길동",
	})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if change.RefundBank != "국민은행" {
		t.Fatalf("refund bank not stored: %s", change.RefundBank)
	}

	var item models.OrderItem
	if err := db.First(&item, order.Items[0].ID).Error; err != nil {
		t.Fatalf("fetch item failed: %v", err)
	}
	if item.Status != constants.OrderItemStatusReturnRequest {
		t.Fatalf("item should be marked return request, got %d", item.Status)
	}
}

func TestRequestRejectedBeforeShipping(t *testing.T) {
	changeSvc, orderSvc, combinationSvc, db := setupChangeServiceTest(t)
	user, order := createShippedOrder(t, orderSvc, combinationSvc, db)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("delivery_status", constants.DeliveryStatusPreparing).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}

	_, err := changeSvc.Request(RequestChangeInput{
		UserID:      user.ID,
		OrderItemID: order.Items[0].ID,
		ChangeType:  constants.ChangeTypeExchange,
	})
	if err != ErrChangeNotAllowed {
		t.Fatalf("expected ErrChangeNotAllowed before shipping, got: %v", err)
	}
}

func TestWithdrawRestoresItem(t *testing.T) {
	changeSvc, orderSvc, combinationSvc, db := setupChangeServiceTest(t)
	user, order := createShippedOrder(t, orderSvc, combinationSvc, db)

	change, err := changeSvc.Request(RequestChangeInput{
		UserID:      user.ID,
		OrderItemID: order.Items[0].ID,
		ChangeType:  constants.ChangeTypeExchange,
	})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}

	if err := changeSvc.Withdraw(user.ID+1, change.ID); err != ErrOrderForbidden {
		t.Fatalf("expected ErrOrderForbidden, got: %v", err)
	}
	if err := changeSvc.Withdraw(user.ID, change.ID); err != nil {
		t.Fatalf("Withdraw error: %v", err)
	}

	var item models.OrderItem
	if err := db.First(&item, order.Items[0].ID).Error; err != nil {
		t.Fatalf("fetch item failed: %v", err)
	}
	if item.Status != constants.OrderItemStatusNormal {
		t.Fatalf("item should be restored to normal, got %d", item.Status)
	}
	var count int64
	if err := db.Unscoped().Model(&models.ChangeItem{}).Count(&count).Error; err != nil {
		t.Fatalf("count changes failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("withdrawn change should be hard deleted, got %d rows", count)
	}
}

func TestAdvanceStatusTransitions(t *testing.T) {
	changeSvc, orderSvc, combinationSvc, db := setupChangeServiceTest(t)
	user, order := createShippedOrder(t, orderSvc, combinationSvc, db)

	change, err := changeSvc.Request(RequestChangeInput{
		UserID:      user.ID,
		OrderItemID: order.Items[0].ID,
		ChangeType:  constants.ChangeTypeExchange,
	})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}

	if err := changeSvc.AdvanceStatus(change.ID, constants.ChangeStatusProcessing); err != nil {
		t.Fatalf("AdvanceStatus error: %v", err)
	}
	if err := changeSvc.AdvanceStatus(change.ID, constants.ChangeStatusRequested); err != ErrChangeStatusInvalid {
		t.Fatalf("expected ErrChangeStatusInvalid for regression, got: %v", err)
	}
	if err := changeSvc.AdvanceStatus(change.ID, constants.ChangeStatusDone); err != nil {
		t.Fatalf("AdvanceStatus error: %v", err)
	}

	var stored models.ChangeItem
	if err := db.First(&stored, change.ID).Error; err != nil {
		t.Fatalf("fetch change failed: %v", err)
	}
	if stored.Status != constants.ChangeStatusDone || stored.ProcessedAt == nil {
		t.Fatalf("done change should carry processed_at, got: %+v", stored)
	}
}
