package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"gorm.io/gorm"
)

// CombinationService 选项组合服务：维护商品的可购组合矩阵
type CombinationService struct {
	combinationRepo repository.CombinationRepository
	optionRepo      repository.OptionRepository
	productRepo     repository.ProductRepository
}

// NewCombinationService 创建选项组合服务
func NewCombinationService(combinationRepo repository.CombinationRepository, optionRepo repository.OptionRepository, productRepo repository.ProductRepository) *CombinationService {
	return &CombinationService{
		combinationRepo: combinationRepo,
		optionRepo:      optionRepo,
		productRepo:     productRepo,
	}
}

// BuildCombinationKey 生成组合键：选项值 ID 升序后用分隔符连接。
// 同一组选项值无论选择顺序如何都落在同一键上。
func BuildCombinationKey(valueIDs []uint) string {
	ids := make([]uint, 0, len(valueIDs))
	for _, id := range valueIDs {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, constants.CombinationKeySeparator)
}

// Regenerate 重建商品的组合矩阵：清空旧矩阵后按在售选项树做笛卡尔积。
// 组合库存为成员选项值库存的合取，任一成员缺货即组合缺货。
func (s *CombinationService) Regenerate(productID uint) (int, error) {
	if productID == 0 {
		return 0, ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		logger.Errorw("combination_regenerate_product_fetch_failed", "product_id", productID, "error", err)
		return 0, err
	}
	if product == nil {
		return 0, ErrProductNotFound
	}

	var created int
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = s.RegenerateInTx(tx, productID)
		return txErr
	})
	if err != nil {
		return 0, err
	}
	logger.Infow("combination_regenerated", "product_id", productID, "combination_count", created)
	return created, nil
}

// RegenerateInTx 在既有事务内重建组合矩阵，供商品/选项编辑流程复用
func (s *CombinationService) RegenerateInTx(tx *gorm.DB, productID uint) (int, error) {
	combinationRepo := s.combinationRepo.WithTx(tx)
	optionRepo := s.optionRepo.WithTx(tx)

	if err := combinationRepo.PurgeByProduct(productID); err != nil {
		return 0, err
	}

	types, err := optionRepo.ListTypesWithValues(productID)
	if err != nil {
		return 0, err
	}
	if len(types) == 0 {
		return 0, nil
	}
	for _, optionType := range types {
		// 任一选项类型没有在售值时无法构成完整选择，矩阵为空
		if len(optionType.Values) == 0 {
			return 0, nil
		}
	}

	combos := enumerateSelections(types)
	for _, selection := range combos {
		inStock := true
		valueIDs := make([]uint, 0, len(selection))
		for _, value := range selection {
			valueIDs = append(valueIDs, value.ID)
			if !value.InStock {
				inStock = false
			}
		}
		combination := &models.OptionCombination{
			ProductID:      productID,
			CombinationKey: BuildCombinationKey(valueIDs),
			InStock:        inStock,
		}
		if err := combinationRepo.Create(combination, valueIDs); err != nil {
			return 0, err
		}
	}
	return len(combos), nil
}

// Resolve 按选项值选择定位组合，未命中返回 ErrCombinationNotFound
func (s *CombinationService) Resolve(productID uint, valueIDs []uint) (*models.OptionCombination, error) {
	key := BuildCombinationKey(valueIDs)
	if key == "" {
		return nil, ErrOptionInvalid
	}
	combination, err := s.combinationRepo.GetByProductAndKey(productID, key)
	if err != nil {
		return nil, err
	}
	if combination == nil {
		return nil, ErrCombinationNotFound
	}
	return combination, nil
}

// ListByProduct 获取商品的组合矩阵
func (s *CombinationService) ListByProduct(productID uint) ([]models.OptionCombination, error) {
	return s.combinationRepo.ListByProduct(productID)
}

// MarkValueOutOfStockInTx 选项值缺货时的快路径：直接翻转含该值的组合，
// 不重建矩阵，组合 ID 保持稳定。恢复库存需重建以重算合取。
func (s *CombinationService) MarkValueOutOfStockInTx(tx *gorm.DB, optionValueID uint) (int64, error) {
	affected, err := s.combinationRepo.WithTx(tx).UpdateStockByValue(optionValueID, false)
	if err != nil {
		logger.Errorw("combination_mark_out_of_stock_failed", "option_value_id", optionValueID, "error", err)
		return 0, err
	}
	logger.Infow("combination_marked_out_of_stock", "option_value_id", optionValueID, "affected", affected)
	return affected, nil
}

// enumerateSelections 按选项类型逐层展开笛卡尔积
func enumerateSelections(types []models.OptionType) [][]models.OptionValue {
	results := [][]models.OptionValue{{}}
	for _, optionType := range types {
		next := make([][]models.OptionValue, 0, len(results)*len(optionType.Values))
		for _, prefix := range results {
			for _, value := range optionType.Values {
				selection := make([]models.OptionValue, len(prefix), len(prefix)+1)
				copy(selection, prefix)
				selection = append(selection, value)
				next = append(next, selection)
			}
		}
		results = next
	}
	return results
}
