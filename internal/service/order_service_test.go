package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *CombinationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	optionRepo := repository.NewOptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)
	combinationRepo := repository.NewCombinationRepository(db)
	combinationSvc := NewCombinationService(combinationRepo, optionRepo, productRepo)
	orderSvc := NewOrderService(orderRepo, productRepo, optionRepo, paymentRepo, userRepo, combinationSvc, nil, 15, models.NewMoneyFromInt(3000))
	return orderSvc, combinationSvc, db
}

func seedOrderTestUser(t *testing.T, db *gorm.DB, mileage int64) *models.User {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("user_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hash",
		DisplayName:  "테스터",
		Status:       constants.UserStatusActive,
		Mileage:      models.NewMoneyFromInt(mileage),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestCreateOrderAssignsFormalOrderNo(t *testing.T) {
	orderSvc, combinationSvc, db := setupOrderServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 5000)

	order, err := orderSvc.CreateOrder(CreateOrderInput{
		UserID:         user.ID,
		RecipientName:  "홍길동",
		RecipientPhone: "010-1234-5678",
		Address1:       "서울시 강남구",
		MileageToUse:   models.NewMoneyFromInt(1000),
		Items: []CreateOrderLine{
			{ProductID: product.ID, OptionValue1ID: values[0].ID, OptionValue2ID: values[3].ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.OrderNo != fmt.Sprintf("ORD_%d", order.ID) {
		t.Fatalf("unexpected order no: %s", order.OrderNo)
	}
	if order.DeliveryStatus != constants.DeliveryStatusPendingPayment {
		t.Fatalf("unexpected delivery status: %s", order.DeliveryStatus)
	}
	// 11000（기본 10000 + M 옵션 1000）+ 配送 3000 - 里程 1000
	if order.TotalAmount.String() != "13000.00" {
		t.Fatalf("unexpected total: %s", order.TotalAmount.String())
	}
	if len(order.Items) != 1 || order.Items[0].Status != constants.OrderItemStatusNormal {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if order.Payment == nil || order.Payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending payment record, got: %+v", order.Payment)
	}
	// 金额在支付落账时写入，待支付阶段为零
	if !order.Payment.Amount.Decimal.IsZero() {
		t.Fatalf("pending payment amount should be zero, got %s", order.Payment.Amount.String())
	}

	// 下单仅校验余额，不得扣减
	var stored models.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("fetch user failed: %v", err)
	}
	if !stored.Mileage.Decimal.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("mileage should stay untouched at creation, got %s", stored.Mileage.String())
	}
}

func TestCreateOrderRejectsMileageOverBalance(t *testing.T) {
	orderSvc, combinationSvc, db := setupOrderServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 500)

	_, err := orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		RecipientName: "홍길동",
		Address1:      "서울시",
		MileageToUse:  models.NewMoneyFromInt(1000),
		Items: []CreateOrderLine{
			{ProductID: product.ID, OptionValue1ID: values[0].ID, OptionValue2ID: values[2].ID, Quantity: 1},
		},
	})
	if err != ErrMileageInsufficient {
		t.Fatalf("expected ErrMileageInsufficient, got: %v", err)
	}
}

func TestCreateOrderRejectsUnknownCombination(t *testing.T) {
	orderSvc, combinationSvc, db := setupOrderServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 0)

	_, err := orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		RecipientName: "홍길동",
		Address1:      "서울시",
		Items: []CreateOrderLine{
			// 同一类型的两个值不是有效选择
			{ProductID: product.ID, OptionValue1ID: values[0].ID, OptionValue2ID: values[1].ID, Quantity: 1},
		},
	})
	if err != ErrCombinationNotFound {
		t.Fatalf("expected ErrCombinationNotFound, got: %v", err)
	}

	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed creation should leave no order rows, got %d", count)
	}
}

func createPendingOrder(t *testing.T, orderSvc *OrderService, userID uint, product *models.Product, values []models.OptionValue) *models.Order {
	t.Helper()
	order, err := orderSvc.CreateOrder(CreateOrderInput{
		UserID:        userID,
		RecipientName: "홍길동",
		Address1:      "서울시",
		Items: []CreateOrderLine{
			{ProductID: product.ID, OptionValue1ID: values[0].ID, OptionValue2ID: values[2].ID, Quantity: 1},
			{ProductID: product.ID, OptionValue1ID: values[1].ID, OptionValue2ID: values[3].ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	return order
}

func TestCancelPendingOrderHardDeletes(t *testing.T) {
	orderSvc, combinationSvc, db := setupOrderServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 0)
	order := createPendingOrder(t, orderSvc, user.ID, product, values)

	if _, err := orderSvc.CancelPendingOrder(user.ID+1, order.ID); err != ErrOrderForbidden {
		t.Fatalf("expected ErrOrderForbidden for another user, got: %v", err)
	}
	summary, err := orderSvc.CancelPendingOrder(user.ID, order.ID)
	if err != nil {
		t.Fatalf("CancelPendingOrder error: %v", err)
	}
	if summary.PreviousStatus != constants.DeliveryStatusPendingPayment {
		t.Fatalf("summary previous status want pending_payment got %s", summary.PreviousStatus)
	}
	if summary.ItemsDeleted != 1 || !summary.PaymentDeleted {
		t.Fatalf("unexpected cancel summary: %+v", summary)
	}

	// 物理删除：软删除作用域之外也不应残留
	var orderCount, itemCount, paymentCount int64
	if err := db.Unscoped().Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if err := db.Unscoped().Model(&models.OrderItem{}).Count(&itemCount).Error; err != nil {
		t.Fatalf("count order items failed: %v", err)
	}
	if err := db.Unscoped().Model(&models.Payment{}).Count(&paymentCount).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if orderCount != 0 || itemCount != 0 || paymentCount != 0 {
		t.Fatalf("expected hard-deleted rows, got orders=%d items=%d payments=%d", orderCount, itemCount, paymentCount)
	}
}

func TestCancelExpiredOrderSkipsPaidOrder(t *testing.T) {
	orderSvc, combinationSvc, db := setupOrderServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 0)
	order := createPendingOrder(t, orderSvc, user.ID, product, values)

	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("delivery_status", constants.DeliveryStatusPaymentComplete).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	if err := orderSvc.CancelExpiredOrder(order.ID); err != nil {
		t.Fatalf("CancelExpiredOrder error: %v", err)
	}

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("paid order should survive timeout cancel: %v", err)
	}
	if stored.DeliveryStatus != constants.DeliveryStatusPaymentComplete {
		t.Fatalf("unexpected status: %s", stored.DeliveryStatus)
	}

	// 已删除的订单直接跳过
	if err := orderSvc.CancelExpiredOrder(order.ID + 100); err != nil {
		t.Fatalf("missing order should be skipped, got: %v", err)
	}
}

func TestCancelLineRollsUpToCanceled(t *testing.T) {
	orderSvc, combinationSvc, db := setupOrderServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 0)
	order := createPendingOrder(t, orderSvc, user.ID, product, values)

	// 待支付阶段不允许按行取消
	if err := orderSvc.CancelLine(user.ID, order.Items[0].ID); err != ErrOrderCancelNotAllowed {
		t.Fatalf("expected ErrOrderCancelNotAllowed before payment, got: %v", err)
	}

	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("delivery_status", constants.DeliveryStatusPaymentComplete).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}

	if err := orderSvc.CancelLine(user.ID, order.Items[0].ID); err != nil {
		t.Fatalf("CancelLine error: %v", err)
	}
	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("fetch order failed: %v", err)
	}
	if stored.DeliveryStatus != constants.DeliveryStatusPaymentComplete {
		t.Fatalf("partial cancel should keep header status, got: %s", stored.DeliveryStatus)
	}

	if err := orderSvc.CancelLine(user.ID, order.Items[1].ID); err != nil {
		t.Fatalf("CancelLine error: %v", err)
	}
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("fetch order failed: %v", err)
	}
	if stored.DeliveryStatus != constants.DeliveryStatusCanceled {
		t.Fatalf("all lines canceled should roll up to canceled, got: %s", stored.DeliveryStatus)
	}

	// 已取消的行不可重复取消
	if err := orderSvc.CancelLine(user.ID, order.Items[0].ID); err != ErrOrderCancelNotAllowed {
		t.Fatalf("expected ErrOrderCancelNotAllowed, got: %v", err)
	}
}

func TestUpdateDeliveryStatusTransitions(t *testing.T) {
	orderSvc, combinationSvc, db := setupOrderServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 0)
	order := createPendingOrder(t, orderSvc, user.ID, product, values)

	// 待支付状态只能由对账翻转，管理端不可直接推进
	if err := orderSvc.UpdateDeliveryStatus(order.ID, constants.DeliveryStatusPreparing); err != ErrOrderStatusInvalid {
		t.Fatalf("expected ErrOrderStatusInvalid from pending payment, got: %v", err)
	}

	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("delivery_status", constants.DeliveryStatusPaymentComplete).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	for _, target := range []string{
		constants.DeliveryStatusPreparing,
		constants.DeliveryStatusShipping,
		constants.DeliveryStatusDelivered,
	} {
		if err := orderSvc.UpdateDeliveryStatus(order.ID, target); err != nil {
			t.Fatalf("UpdateDeliveryStatus(%s) error: %v", target, err)
		}
	}
	if err := orderSvc.UpdateDeliveryStatus(order.ID, constants.DeliveryStatusPreparing); err != ErrOrderStatusInvalid {
		t.Fatalf("delivered order should reject regression, got: %v", err)
	}
}

func TestListForUserFilters(t *testing.T) {
	orderSvc, combinationSvc, db := setupOrderServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	user := seedOrderTestUser(t, db, 0)
	first := createPendingOrder(t, orderSvc, user.ID, product, values)
	second := createPendingOrder(t, orderSvc, user.ID, product, values)

	if err := db.Model(&models.Order{}).Where("id = ?", second.ID).
		Update("delivery_status", constants.DeliveryStatusPaymentComplete).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}

	orders, total, err := orderSvc.ListForUser(repository.OrderListFilter{UserID: user.ID, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListForUser error: %v", err)
	}
	if total != 2 || len(orders) != 2 {
		t.Fatalf("expected 2 orders, got total=%d len=%d", total, len(orders))
	}
	if orders[0].ID != second.ID {
		t.Fatalf("expected newest order first, got %d", orders[0].ID)
	}

	orders, total, err = orderSvc.ListForUser(repository.OrderListFilter{
		UserID:         user.ID,
		DeliveryStatus: constants.DeliveryStatusPendingPayment,
		Page:           1,
		PageSize:       10,
	})
	if err != nil {
		t.Fatalf("ListForUser error: %v", err)
	}
	if total != 1 || orders[0].ID != first.ID {
		t.Fatalf("status filter mismatch, total=%d", total)
	}
}
