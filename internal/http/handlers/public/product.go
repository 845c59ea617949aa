package public

import (
	"errors"
	"strconv"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetProduct 获取商品详情（含选项与组合矩阵）
func (h *Handler) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeInvalid, "商品标识无效", nil)
		return
	}

	detail, err := h.ProductService.GetDetail(uint(productID))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "商品不存在", nil)
			return
		}
		respondError(c, response.CodeInvalid, "商品查询失败", err)
		return
	}

	response.Success(c, detail)
}
