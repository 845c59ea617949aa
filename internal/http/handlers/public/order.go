package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderLineRequest 订单项请求
type OrderLineRequest struct {
	ProductID      uint `json:"product_id" binding:"required"`
	OptionValue1ID uint `json:"option_value1_id"`
	OptionValue2ID uint `json:"option_value2_id"`
	Quantity       int  `json:"quantity" binding:"required"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	RecipientName  string             `json:"recipient_name" binding:"required"`
	RecipientPhone string             `json:"recipient_phone" binding:"required"`
	ZipCode        string             `json:"zip_code"`
	Address1       string             `json:"address1" binding:"required"`
	Address2       string             `json:"address2"`
	MileageToUse   models.Money       `json:"mileage_to_use"`
	Items          []OrderLineRequest `json:"items" binding:"required"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	lines := make([]service.CreateOrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.CreateOrderLine{
			ProductID:      item.ProductID,
			OptionValue1ID: item.OptionValue1ID,
			OptionValue2ID: item.OptionValue2ID,
			Quantity:       item.Quantity,
		})
	}

	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:         uid,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		ZipCode:        req.ZipCode,
		Address1:       req.Address1,
		Address2:       req.Address2,
		MileageToUse:   req.MileageToUse,
		Items:          lines,
	})
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInvalid, "订单创建失败")
		return
	}

	response.Success(c, order)
}

// ListOrders 获取订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		UserID:         uid,
		DeliveryStatus: strings.TrimSpace(c.Query("delivery_status")),
		Page:           page,
		PageSize:       pageSize,
	}
	if ts, err := strconv.ParseInt(c.Query("start_time"), 10, 64); err == nil && ts > 0 {
		start := time.Unix(ts, 0)
		filter.StartTime = &start
	}
	if ts, err := strconv.ParseInt(c.Query("end_time"), 10, 64); err == nil && ts > 0 {
		end := time.Unix(ts, 0)
		filter.EndTime = &end
	}

	orders, total, err := h.OrderService.ListForUser(filter)
	if err != nil {
		respondError(c, response.CodeInvalid, "订单查询失败", err)
		return
	}

	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeInvalid, "订单标识无效", nil)
		return
	}

	order, err := h.OrderService.GetForUser(uid, uint(orderID))
	if err != nil {
		respondWithMappedError(c, err, orderAccessErrorRules, response.CodeInvalid, "订单查询失败")
		return
	}

	response.Success(c, order)
}

// CancelOrder 取消待支付订单（整单硬删除）
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeInvalid, "订单标识无效", nil)
		return
	}

	summary, err := h.OrderService.CancelPendingOrder(uid, uint(orderID))
	if err != nil {
		respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInvalid, "订单取消失败")
		return
	}

	response.Success(c, summary)
}

// CancelOrderItem 取消已支付订单中的单个订单项
func (h *Handler) CancelOrderItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeInvalid, "订单项标识无效", nil)
		return
	}

	if err := h.OrderService.CancelLine(uid, uint(itemID)); err != nil {
		respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInvalid, "订单项取消失败")
		return
	}

	response.Success(c, gin.H{"canceled": true})
}
