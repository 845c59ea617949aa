package repository

import (
	"errors"

	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
)

// OptionRepository 选项类型/选项值数据访问接口
type OptionRepository interface {
	ListTypesWithValues(productID uint) ([]models.OptionType, error)
	GetValueByID(id uint) (*models.OptionValue, error)
	CreateType(optionType *models.OptionType) error
	CreateValue(value *models.OptionValue) error
	UpdateValue(id uint, updates map[string]interface{}) error
	SoftDeleteType(id uint) error
	SoftDeleteValue(id uint) error
	WithTx(tx *gorm.DB) *GormOptionRepository
}

// GormOptionRepository GORM 实现
type GormOptionRepository struct {
	db *gorm.DB
}

// NewOptionRepository 创建选项仓库
func NewOptionRepository(db *gorm.DB) *GormOptionRepository {
	return &GormOptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOptionRepository) WithTx(tx *gorm.DB) *GormOptionRepository {
	if tx == nil {
		return r
	}
	return &GormOptionRepository{db: tx}
}

// ListTypesWithValues 获取商品的在售选项树，类型与值均按 sort_order, id 升序。
// 软删除的类型与值由 gorm 默认作用域过滤。
func (r *GormOptionRepository) ListTypesWithValues(productID uint) ([]models.OptionType, error) {
	var types []models.OptionType
	err := r.db.
		Preload("Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, id asc")
		}).
		Where("product_id = ?", productID).
		Order("sort_order asc, id asc").
		Find(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

// GetValueByID 根据 ID 获取选项值
func (r *GormOptionRepository) GetValueByID(id uint) (*models.OptionValue, error) {
	var value models.OptionValue
	if err := r.db.First(&value, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &value, nil
}

// CreateType 创建选项类型
func (r *GormOptionRepository) CreateType(optionType *models.OptionType) error {
	return r.db.Create(optionType).Error
}

// CreateValue 创建选项值
func (r *GormOptionRepository) CreateValue(value *models.OptionValue) error {
	return r.db.Create(value).Error
}

// UpdateValue 更新选项值字段
func (r *GormOptionRepository) UpdateValue(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.OptionValue{}).Where("id = ?", id).Updates(updates).Error
}

// SoftDeleteType 软删除选项类型及其下属选项值
func (r *GormOptionRepository) SoftDeleteType(id uint) error {
	if err := r.db.Where("option_type_id = ?", id).Delete(&models.OptionValue{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.OptionType{}, id).Error
}

// SoftDeleteValue 软删除选项值
func (r *GormOptionRepository) SoftDeleteValue(id uint) error {
	return r.db.Delete(&models.OptionValue{}, id).Error
}
