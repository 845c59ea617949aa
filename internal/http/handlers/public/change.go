package public

import (
	"strconv"
	"strings"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RequestChangeRequest 换货/退货申请请求
type RequestChangeRequest struct {
	OrderItemID   uint   `json:"order_item_id" binding:"required"`
	ChangeType    string `json:"change_type" binding:"required"`
	Reason        string `json:"reason"`
	RefundBank    string `json:"refund_bank"`
	RefundAccount string `json:"refund_account"`
	RefundHolder  string `json:"refund_holder"`
}

// RequestChange 提交换货/退货申请
func (h *Handler) RequestChange(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req RequestChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	change, err := h.ChangeService.Request(service.RequestChangeInput{
		UserID:        uid,
		OrderItemID:   req.OrderItemID,
		ChangeType:    strings.TrimSpace(req.ChangeType),
		Reason:        strings.TrimSpace(req.Reason),
		RefundBank:    strings.TrimSpace(req.RefundBank),
		RefundAccount: strings.TrimSpace(req.RefundAccount),
		RefundHolder:  strings.TrimSpace(req.RefundHolder),
	})
	if err != nil {
		respondWithMappedError(c, err, changeRequestErrorRules, response.CodeInvalid, "申请提交失败")
		return
	}

	response.Success(c, change)
}

// WithdrawChange 撤回换货/退货申请（仅 requested 状态）
func (h *Handler) WithdrawChange(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	changeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || changeID == 0 {
		respondError(c, response.CodeInvalid, "申请标识无效", nil)
		return
	}

	if err := h.ChangeService.Withdraw(uid, uint(changeID)); err != nil {
		respondWithMappedError(c, err, changeRequestErrorRules, response.CodeInvalid, "申请撤回失败")
		return
	}

	response.Success(c, gin.H{"withdrawn": true})
}

// ListOrderChanges 获取订单下的换货/退货申请列表
func (h *Handler) ListOrderChanges(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeInvalid, "订单标识无效", nil)
		return
	}

	changes, err := h.ChangeService.ListByOrder(uid, uint(orderID))
	if err != nil {
		respondWithMappedError(c, err, changeRequestErrorRules, response.CodeInvalid, "申请查询失败")
		return
	}

	response.Success(c, gin.H{"items": changes})
}
