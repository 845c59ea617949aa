package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCombinationServiceTest(t *testing.T) (*CombinationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:combination_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	combinationRepo := repository.NewCombinationRepository(db)
	optionRepo := repository.NewOptionRepository(db)
	productRepo := repository.NewProductRepository(db)
	svc := NewCombinationService(combinationRepo, optionRepo, productRepo)
	return svc, db
}

func seedProductWithOptions(t *testing.T, db *gorm.DB) (*models.Product, []models.OptionValue) {
	t.Helper()
	product := &models.Product{
		Name:        "테스트 상품",
		Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(10000)),
		InStock:     true,
		IsAvailable: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	colorType := &models.OptionType{ProductID: product.ID, Name: "색상", Required: true, SortOrder: 1}
	sizeType := &models.OptionType{ProductID: product.ID, Name: "사이즈", Required: true, SortOrder: 2}
	for _, optionType := range []*models.OptionType{colorType, sizeType} {
		if err := db.Create(optionType).Error; err != nil {
			t.Fatalf("create option type failed: %v", err)
		}
	}

	values := []models.OptionValue{
		{OptionTypeID: colorType.ID, Name: "레드", InStock: true, SortOrder: 1},
		{OptionTypeID: colorType.ID, Name: "블루", InStock: true, SortOrder: 2},
		{OptionTypeID: sizeType.ID, Name: "S", InStock: true, SortOrder: 1},
		{OptionTypeID: sizeType.ID, Name: "M", PriceDelta: models.NewMoneyFromDecimal(decimal.NewFromInt(1000)), InStock: true, SortOrder: 2},
	}
	for i := range values {
		if err := db.Create(&values[i]).Error; err != nil {
			t.Fatalf("create option value failed: %v", err)
		}
	}
	return product, values
}

func TestBuildCombinationKeyOrderIndependent(t *testing.T) {
	if got := BuildCombinationKey([]uint{7, 3}); got != "3-7" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := BuildCombinationKey([]uint{3, 7}); got != "3-7" {
		t.Fatalf("key should not depend on selection order, got: %s", got)
	}
	if got := BuildCombinationKey([]uint{5, 0}); got != "5" {
		t.Fatalf("zero slots should be skipped, got: %s", got)
	}
	if got := BuildCombinationKey(nil); got != "" {
		t.Fatalf("empty selection should yield empty key, got: %s", got)
	}
}

func TestRegenerateBuildsCartesianMatrix(t *testing.T) {
	svc, db := setupCombinationServiceTest(t)
	product, values := seedProductWithOptions(t, db)

	created, err := svc.Regenerate(product.ID)
	if err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	if created != 4 {
		t.Fatalf("expected 4 combinations, got %d", created)
	}

	combination, err := svc.Resolve(product.ID, []uint{values[3].ID, values[0].ID})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !combination.InStock {
		t.Fatalf("expected combination in stock")
	}

	var mappingCount int64
	if err := db.Model(&models.CombinationMapping{}).Count(&mappingCount).Error; err != nil {
		t.Fatalf("count mappings failed: %v", err)
	}
	if mappingCount != 8 {
		t.Fatalf("expected 8 mapping rows, got %d", mappingCount)
	}
}

func TestRegenerateTwiceYieldsSameMatrix(t *testing.T) {
	svc, db := setupCombinationServiceTest(t)
	product, _ := seedProductWithOptions(t, db)

	first, err := svc.Regenerate(product.ID)
	if err != nil {
		t.Fatalf("first Regenerate error: %v", err)
	}
	firstRows, err := svc.ListByProduct(product.ID)
	if err != nil {
		t.Fatalf("ListByProduct error: %v", err)
	}

	second, err := svc.Regenerate(product.ID)
	if err != nil {
		t.Fatalf("second Regenerate error: %v", err)
	}
	if second != first {
		t.Fatalf("repeated regenerate changed combination count: %d != %d", second, first)
	}

	secondRows, err := svc.ListByProduct(product.ID)
	if err != nil {
		t.Fatalf("ListByProduct error: %v", err)
	}
	if len(secondRows) != len(firstRows) {
		t.Fatalf("expected %d combinations, got %d", len(firstRows), len(secondRows))
	}
	firstKeys := make(map[string]bool, len(firstRows))
	for _, row := range firstRows {
		firstKeys[row.CombinationKey] = true
	}
	for _, row := range secondRows {
		if !firstKeys[row.CombinationKey] {
			t.Fatalf("unexpected combination key after regenerate: %s", row.CombinationKey)
		}
	}

	// 映射行同步重建，不残留旧矩阵的行
	var mappingCount int64
	if err := db.Model(&models.CombinationMapping{}).Count(&mappingCount).Error; err != nil {
		t.Fatalf("count mappings failed: %v", err)
	}
	if mappingCount != 8 {
		t.Fatalf("expected 8 mapping rows after repeated regenerate, got %d", mappingCount)
	}
}

func TestRegenerateStockIsConjunction(t *testing.T) {
	svc, db := setupCombinationServiceTest(t)
	product, values := seedProductWithOptions(t, db)

	// 레드 缺货后，含레드的组合全部缺货，其余不受影响
	if err := db.Model(&models.OptionValue{}).Where("id = ?", values[0].ID).
		Update("in_stock", false).Error; err != nil {
		t.Fatalf("update option value failed: %v", err)
	}
	if _, err := svc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}

	redS, err := svc.Resolve(product.ID, []uint{values[0].ID, values[2].ID})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if redS.InStock {
		t.Fatalf("combination containing out-of-stock value should be out of stock")
	}
	blueS, err := svc.Resolve(product.ID, []uint{values[1].ID, values[2].ID})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !blueS.InStock {
		t.Fatalf("combination without out-of-stock value should stay in stock")
	}
}

func TestRegenerateEmptyTypeYieldsNoCombinations(t *testing.T) {
	svc, db := setupCombinationServiceTest(t)
	product, _ := seedProductWithOptions(t, db)

	emptyType := &models.OptionType{ProductID: product.ID, Name: "포장", SortOrder: 3}
	if err := db.Create(emptyType).Error; err != nil {
		t.Fatalf("create option type failed: %v", err)
	}

	created, err := svc.Regenerate(product.ID)
	if err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	if created != 0 {
		t.Fatalf("type without values should yield empty matrix, got %d", created)
	}
	var count int64
	if err := db.Model(&models.OptionCombination{}).Count(&count).Error; err != nil {
		t.Fatalf("count combinations failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected purged matrix, got %d rows", count)
	}
}

func TestResolveUnknownSelection(t *testing.T) {
	svc, db := setupCombinationServiceTest(t)
	product, values := seedProductWithOptions(t, db)
	if _, err := svc.Regenerate(product.ID); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}

	// 同一类型的两个值不构成有效组合
	if _, err := svc.Resolve(product.ID, []uint{values[0].ID, values[1].ID}); err != ErrCombinationNotFound {
		t.Fatalf("expected ErrCombinationNotFound, got: %v", err)
	}
	if _, err := svc.Resolve(product.ID, nil); err != ErrOptionInvalid {
		t.Fatalf("expected ErrOptionInvalid for empty selection, got: %v", err)
	}
}
