package public

import (
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	ProductID      uint `json:"product_id" binding:"required"`
	OptionValue1ID uint `json:"option_value1_id"`
	OptionValue2ID uint `json:"option_value2_id"`
	Quantity       int  `json:"quantity" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	items, err := h.CartService.List(uid)
	if err != nil {
		respondError(c, response.CodeInvalid, "购物车查询失败", err)
		return
	}

	response.Success(c, gin.H{"items": items})
}

// AddCartItem 添加购物车项（同规格累加数量）
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	item, err := h.CartService.Add(service.AddCartInput{
		UserID:         uid,
		ProductID:      req.ProductID,
		OptionValue1ID: req.OptionValue1ID,
		OptionValue2ID: req.OptionValue2ID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInvalid, "添加购物车失败")
		return
	}

	response.Success(c, item)
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req struct {
		ProductID      uint `json:"product_id" binding:"required"`
		OptionValue1ID uint `json:"option_value1_id"`
		OptionValue2ID uint `json:"option_value2_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	if err := h.CartService.Remove(uid, req.ProductID, req.OptionValue1ID, req.OptionValue2ID); err != nil {
		respondError(c, response.CodeInvalid, "删除购物车项失败", err)
		return
	}

	response.Success(c, gin.H{"removed": true})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	if err := h.CartService.ClearByUser(uid); err != nil {
		respondError(c, response.CodeInvalid, "清空购物车失败", err)
		return
	}

	response.Success(c, gin.H{"cleared": true})
}
