package admin

import (
	"errors"
	"strconv"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || value == 0 {
		respondError(c, response.CodeInvalid, "路径参数无效", nil)
		return 0, false
	}
	return uint(value), true
}

func respondProductError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "商品不存在", nil)
	case errors.Is(err, service.ErrProductNotAvailable):
		respondError(c, response.CodeInvalid, "商品参数无效", nil)
	case errors.Is(err, service.ErrOptionValueNotFound):
		respondError(c, response.CodeNotFound, "选项值不存在", nil)
	case errors.Is(err, service.ErrOptionInvalid):
		respondError(c, response.CodeInvalid, "选项参数无效", nil)
	default:
		respondError(c, response.CodeInvalid, fallbackMsg, err)
	}
}

// AdminProductRequest 商品创建请求
type AdminProductRequest struct {
	Name          string        `json:"name" binding:"required"`
	Price         models.Money  `json:"price" binding:"required"`
	DiscountPrice *models.Money `json:"discount_price"`
	IsPremium     bool          `json:"is_premium"`
	InStock       *bool         `json:"in_stock"`
	IsAvailable   *bool         `json:"is_available"`
}

// AdminCreateProduct 创建商品
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req AdminProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Price:       req.Price,
		IsPremium:   req.IsPremium,
		InStock:     true,
		IsAvailable: true,
	}
	if req.DiscountPrice != nil {
		product.DiscountPrice = *req.DiscountPrice
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}

	if err := h.ProductService.Create(product); err != nil {
		respondProductError(c, err, "商品创建失败")
		return
	}
	response.Success(c, product)
}

// AdminUpdateProductRequest 商品更新请求（仅更新给出的字段）
type AdminUpdateProductRequest struct {
	Name          *string       `json:"name"`
	Price         *models.Money `json:"price"`
	DiscountPrice *models.Money `json:"discount_price"`
	IsPremium     *bool         `json:"is_premium"`
	InStock       *bool         `json:"in_stock"`
	IsAvailable   *bool         `json:"is_available"`
}

// AdminUpdateProduct 更新商品
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req AdminUpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.DiscountPrice != nil {
		updates["discount_price"] = *req.DiscountPrice
	}
	if req.IsPremium != nil {
		updates["is_premium"] = *req.IsPremium
	}
	if req.InStock != nil {
		updates["in_stock"] = *req.InStock
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	if err := h.ProductService.Update(productID, updates); err != nil {
		respondProductError(c, err, "商品更新失败")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// AdminDeleteProduct 下架并删除商品
func (h *Handler) AdminDeleteProduct(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.SoftDelete(productID); err != nil {
		respondProductError(c, err, "商品删除失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AdminOptionTypeRequest 选项类型请求
type AdminOptionTypeRequest struct {
	Name      string `json:"name" binding:"required"`
	Required  *bool  `json:"required"`
	SortOrder int    `json:"sort_order"`
}

// AdminAddOptionType 新增选项类型
func (h *Handler) AdminAddOptionType(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req AdminOptionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	optionType := &models.OptionType{
		ProductID: productID,
		Name:      req.Name,
		Required:  true,
		SortOrder: req.SortOrder,
	}
	if req.Required != nil {
		optionType.Required = *req.Required
	}

	if err := h.ProductService.AddOptionType(optionType); err != nil {
		respondProductError(c, err, "选项类型创建失败")
		return
	}
	response.Success(c, optionType)
}

// AdminDeleteOptionType 删除选项类型
func (h *Handler) AdminDeleteOptionType(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	typeID, ok := parseUintParam(c, "type_id")
	if !ok {
		return
	}
	if err := h.ProductService.DeleteOptionType(productID, typeID); err != nil {
		respondProductError(c, err, "选项类型删除失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AdminOptionValueRequest 选项值请求
type AdminOptionValueRequest struct {
	OptionTypeID uint          `json:"option_type_id" binding:"required"`
	Name         string        `json:"name" binding:"required"`
	PriceDelta   *models.Money `json:"price_delta"`
	InStock      *bool         `json:"in_stock"`
	SortOrder    int           `json:"sort_order"`
}

// AdminAddOptionValue 新增选项值
func (h *Handler) AdminAddOptionValue(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req AdminOptionValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	value := &models.OptionValue{
		OptionTypeID: req.OptionTypeID,
		Name:         req.Name,
		InStock:      true,
		SortOrder:    req.SortOrder,
	}
	if req.PriceDelta != nil {
		value.PriceDelta = *req.PriceDelta
	}
	if req.InStock != nil {
		value.InStock = *req.InStock
	}

	if err := h.ProductService.AddOptionValue(productID, value); err != nil {
		respondProductError(c, err, "选项值创建失败")
		return
	}
	response.Success(c, value)
}

// AdminUpdateOptionValueRequest 选项值更新请求（仅更新给出的字段）
type AdminUpdateOptionValueRequest struct {
	Name       *string       `json:"name"`
	PriceDelta *models.Money `json:"price_delta"`
	InStock    *bool         `json:"in_stock"`
	SortOrder  *int          `json:"sort_order"`
}

// AdminUpdateOptionValue 更新选项值（仅置缺货时走快路径，其余编辑重建矩阵）
func (h *Handler) AdminUpdateOptionValue(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	valueID, ok := parseUintParam(c, "value_id")
	if !ok {
		return
	}
	var req AdminUpdateOptionValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.PriceDelta != nil {
		updates["price_delta"] = *req.PriceDelta
	}
	if req.InStock != nil {
		updates["in_stock"] = *req.InStock
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if err := h.ProductService.UpdateOptionValue(productID, valueID, updates); err != nil {
		respondProductError(c, err, "选项值更新失败")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// AdminDeleteOptionValue 删除选项值
func (h *Handler) AdminDeleteOptionValue(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	valueID, ok := parseUintParam(c, "value_id")
	if !ok {
		return
	}
	if err := h.ProductService.DeleteOptionValue(productID, valueID); err != nil {
		respondProductError(c, err, "选项值删除失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AdminRegenerateCombinations 重建商品组合矩阵
func (h *Handler) AdminRegenerateCombinations(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	count, err := h.ProductService.RegenerateCombinations(productID)
	if err != nil {
		respondProductError(c, err, "组合矩阵重建失败")
		return
	}
	requestLog(c).Infow("combination_matrix_rebuilt", "product_id", productID, "count", count)
	response.Success(c, gin.H{"combinations": count})
}
