package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (*CartService, *CombinationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.OptionType{},
		&models.OptionValue{},
		&models.OptionCombination{},
		&models.CombinationMapping{},
		&models.CartItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	combinationRepo := repository.NewCombinationRepository(db)
	optionRepo := repository.NewOptionRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	combinationSvc := NewCombinationService(combinationRepo, optionRepo, productRepo)
	cartSvc := NewCartService(cartRepo, productRepo, optionRepo, combinationSvc)
	return cartSvc, combinationSvc, db
}

func TestCartAddSnapshotsPriceAndAccumulates(t *testing.T) {
	cartSvc, combinationSvc, db := setupCartServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}

	input := AddCartInput{
		UserID:         1,
		ProductID:      product.ID,
		OptionValue1ID: values[0].ID,
		OptionValue2ID: values[3].ID, // M 加价 1000
		Quantity:       1,
	}
	item, err := cartSvc.Add(input)
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if item.UnitPrice.String() != "11000.00" {
		t.Fatalf("expected unit price 11000.00, got %s", item.UnitPrice.String())
	}

	input.Quantity = 2
	if _, err := cartSvc.Add(input); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	items, err := cartSvc.List(1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("same selection should merge into one row, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected accumulated quantity 3, got %d", items[0].Quantity)
	}
}

func TestCartAddRejectsInvalidSelection(t *testing.T) {
	cartSvc, combinationSvc, db := setupCartServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}

	// 有选项的商品必须选满全部类型
	_, err := cartSvc.Add(AddCartInput{
		UserID:         1,
		ProductID:      product.ID,
		OptionValue1ID: values[0].ID,
		Quantity:       1,
	})
	if err != ErrOptionInvalid {
		t.Fatalf("expected ErrOptionInvalid, got: %v", err)
	}

	// 缺货组合不可加入
	if err := db.Model(&models.OptionValue{}).Where("id = ?", values[0].ID).
		Update("in_stock", false).Error; err != nil {
		t.Fatalf("update option value failed: %v", err)
	}
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	_, err = cartSvc.Add(AddCartInput{
		UserID:         1,
		ProductID:      product.ID,
		OptionValue1ID: values[0].ID,
		OptionValue2ID: values[2].ID,
		Quantity:       1,
	})
	if err != ErrCombinationOutOfStock {
		t.Fatalf("expected ErrCombinationOutOfStock, got: %v", err)
	}
}

func TestCartPurgeForProductAndOptionValue(t *testing.T) {
	cartSvc, combinationSvc, db := setupCartServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := combinationSvc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}

	selections := [][2]uint{
		{values[0].ID, values[2].ID},
		{values[1].ID, values[2].ID},
		{values[1].ID, values[3].ID},
	}
	for i, selection := range selections {
		if _, err := cartSvc.Add(AddCartInput{
			UserID:         uint(i + 1),
			ProductID:      product.ID,
			OptionValue1ID: selection[0],
			OptionValue2ID: selection[1],
			Quantity:       1,
		}); err != nil {
			t.Fatalf("Add error: %v", err)
		}
	}

	removed, err := cartSvc.PurgeForOptionValue(values[2].ID)
	if err != nil {
		t.Fatalf("PurgeForOptionValue error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 rows purged for option value, got %d", removed)
	}

	removed, err = cartSvc.PurgeForProduct(product.ID)
	if err != nil {
		t.Fatalf("PurgeForProduct error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 remaining row purged for product, got %d", removed)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Count(&count).Error; err != nil {
		t.Fatalf("count cart items failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cart table, got %d", count)
	}
}
