package repository

import (
	"errors"

	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
)

// CombinationRepository 选项组合数据访问接口
type CombinationRepository interface {
	ListByProduct(productID uint) ([]models.OptionCombination, error)
	GetByProductAndKey(productID uint, key string) (*models.OptionCombination, error)
	Create(combination *models.OptionCombination, valueIDs []uint) error
	PurgeByProduct(productID uint) error
	UpdateStockByValue(optionValueID uint, inStock bool) (int64, error)
	WithTx(tx *gorm.DB) *GormCombinationRepository
}

// GormCombinationRepository GORM 实现
type GormCombinationRepository struct {
	db *gorm.DB
}

// NewCombinationRepository 创建选项组合仓库
func NewCombinationRepository(db *gorm.DB) *GormCombinationRepository {
	return &GormCombinationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCombinationRepository) WithTx(tx *gorm.DB) *GormCombinationRepository {
	if tx == nil {
		return r
	}
	return &GormCombinationRepository{db: tx}
}

// ListByProduct 获取商品的组合矩阵
func (r *GormCombinationRepository) ListByProduct(productID uint) ([]models.OptionCombination, error) {
	var combinations []models.OptionCombination
	err := r.db.Preload("Mappings").
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&combinations).Error
	if err != nil {
		return nil, err
	}
	return combinations, nil
}

// GetByProductAndKey 根据组合键获取组合
func (r *GormCombinationRepository) GetByProductAndKey(productID uint, key string) (*models.OptionCombination, error) {
	var combination models.OptionCombination
	err := r.db.Where("product_id = ? AND combination_key = ?", productID, key).
		First(&combination).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &combination, nil
}

// Create 创建组合及其成员映射行
func (r *GormCombinationRepository) Create(combination *models.OptionCombination, valueIDs []uint) error {
	if err := r.db.Create(combination).Error; err != nil {
		return err
	}
	if len(valueIDs) == 0 {
		return nil
	}
	mappings := make([]models.CombinationMapping, 0, len(valueIDs))
	for _, valueID := range valueIDs {
		mappings = append(mappings, models.CombinationMapping{
			CombinationID: combination.ID,
			OptionValueID: valueID,
		})
	}
	return r.db.Create(&mappings).Error
}

// PurgeByProduct 物理删除商品的全部组合与映射行。
// 先删映射再删组合，避免留下孤儿映射。
func (r *GormCombinationRepository) PurgeByProduct(productID uint) error {
	err := r.db.Unscoped().
		Where("combination_id IN (?)",
			r.db.Model(&models.OptionCombination{}).Select("id").Where("product_id = ?", productID).Unscoped(),
		).
		Delete(&models.CombinationMapping{}).Error
	if err != nil {
		return err
	}
	return r.db.Unscoped().Where("product_id = ?", productID).Delete(&models.OptionCombination{}).Error
}

// UpdateStockByValue 按成员选项值批量更新组合库存标记
func (r *GormCombinationRepository) UpdateStockByValue(optionValueID uint, inStock bool) (int64, error) {
	result := r.db.Model(&models.OptionCombination{}).
		Where("id IN (?)",
			r.db.Model(&models.CombinationMapping{}).Select("combination_id").Where("option_value_id = ?", optionValueID),
		).
		Update("in_stock", inStock)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
