package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		DeliveryStatus: strings.TrimSpace(c.Query("delivery_status")),
		Page:           page,
		PageSize:       pageSize,
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		filter.UserID = uint(userID)
	}
	if ts, err := strconv.ParseInt(c.Query("start_time"), 10, 64); err == nil && ts > 0 {
		start := time.Unix(ts, 0)
		filter.StartTime = &start
	}
	if ts, err := strconv.ParseInt(c.Query("end_time"), 10, 64); err == nil && ts > 0 {
		end := time.Unix(ts, 0)
		filter.EndTime = &end
	}

	orders, total, err := h.OrderService.ListForAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInvalid, "订单查询失败", err)
		return
	}

	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// AdminUpdateDeliveryStatusRequest 配送状态推进请求
type AdminUpdateDeliveryStatusRequest struct {
	DeliveryStatus string `json:"delivery_status" binding:"required"`
}

// AdminUpdateDeliveryStatus 推进订单配送状态（仅允许单向推进）
func (h *Handler) AdminUpdateDeliveryStatus(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req AdminUpdateDeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	if err := h.OrderService.UpdateDeliveryStatus(orderID, strings.TrimSpace(req.DeliveryStatus)); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeConflict, "不允许的状态流转", nil)
		default:
			respondError(c, response.CodeInvalid, "配送状态更新失败", err)
		}
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// AdminListOrderChanges 管理端查看订单换退货申请
func (h *Handler) AdminListOrderChanges(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	changes, err := h.ChangeService.ListByOrderForAdmin(orderID)
	if err != nil {
		respondError(c, response.CodeInvalid, "申请查询失败", err)
		return
	}
	response.Success(c, gin.H{"items": changes})
}

// AdminAdvanceChangeStatusRequest 换退货申请状态推进请求
type AdminAdvanceChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminAdvanceChangeStatus 推进换退货申请状态
func (h *Handler) AdminAdvanceChangeStatus(c *gin.Context) {
	changeID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req AdminAdvanceChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	if err := h.ChangeService.AdvanceStatus(changeID, strings.TrimSpace(req.Status)); err != nil {
		switch {
		case errors.Is(err, service.ErrChangeNotFound):
			respondError(c, response.CodeNotFound, "申请不存在", nil)
		case errors.Is(err, service.ErrChangeStatusInvalid):
			respondError(c, response.CodeConflict, "不允许的状态流转", nil)
		default:
			respondError(c, response.CodeInvalid, "申请状态更新失败", err)
		}
		return
	}
	response.Success(c, gin.H{"updated": true})
}
