package public

import (
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/payment/kpay"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ConfirmPaymentRequest 支付确认请求（前端支付窗口回跳后携带网关凭据）
type ConfirmPaymentRequest struct {
	OrderNo    string       `json:"order_no" binding:"required"`
	PaymentKey string       `json:"payment_key" binding:"required"`
	Amount     models.Money `json:"amount" binding:"required"`
}

// ConfirmPayment 支付确认与对账
func (h *Handler) ConfirmPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "请求参数错误", err)
		return
	}

	order, err := h.PaymentService.Confirm(c.Request.Context(), service.ConfirmInput{
		UserID:     uid,
		OrderNo:    strings.TrimSpace(req.OrderNo),
		PaymentKey: strings.TrimSpace(req.PaymentKey),
		Amount:     req.Amount,
	})
	if err != nil {
		respondWithMappedError(c, err, paymentConfirmErrorRules, response.CodeInvalid, "支付确认失败")
		return
	}

	response.Success(c, order)
}

// PaymentWebhookRequest 网关服务端状态推送报文，字段命名跟随网关协议
type PaymentWebhookRequest struct {
	OrderID     string `json:"orderId" binding:"required"`
	PaymentKey  string `json:"paymentKey" binding:"required"`
	Status      string `json:"status" binding:"required"`
	TotalAmount int64  `json:"totalAmount"`
	Method      string `json:"method"`
	Card        *struct {
		IssuerCode string `json:"issuerCode"`
	} `json:"card"`
}

// PaymentStatusWebhook 接收网关服务端状态推送。
// 推送携带与出站确认相同的 Basic 凭据，校验通过后走共用落账路径。
func (h *Handler) PaymentStatusWebhook(c *gin.Context) {
	if !h.verifyGatewayCredential(c) {
		respondError(c, response.CodeForbidden, "网关凭据校验失败", nil)
		return
	}

	var req PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeInvalid, "推送报文不完整", err)
		return
	}

	input := service.StatusUpdateInput{
		OrderNo:    strings.TrimSpace(req.OrderID),
		PaymentKey: strings.TrimSpace(req.PaymentKey),
		Status:     req.Status,
		Amount:     models.NewMoneyFromInt(req.TotalAmount),
		Method:     req.Method,
	}
	if req.Card != nil {
		input.IssuerCode = req.Card.IssuerCode
	}

	order, err := h.PaymentService.ApplyStatusUpdate(input)
	if err != nil {
		respondWithMappedError(c, err, paymentConfirmErrorRules, response.CodeInvalid, "状态推送处理失败")
		return
	}

	response.Success(c, gin.H{
		"order_no":        order.OrderNo,
		"delivery_status": order.DeliveryStatus,
	})
}

func (h *Handler) verifyGatewayCredential(c *gin.Context) bool {
	secret := h.Config.Gateway.SecretKey
	if secret == "" {
		return false
	}
	got := c.GetHeader("Authorization")
	want := "Basic " + kpay.BasicCredential(secret)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// GetOrderPayment 获取订单支付记录
func (h *Handler) GetOrderPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeInvalid, "订单标识无效", nil)
		return
	}

	// 先做归属校验，再取支付记录
	if _, err := h.OrderService.GetForUser(uid, uint(orderID)); err != nil {
		respondWithMappedError(c, err, orderAccessErrorRules, response.CodeInvalid, "订单查询失败")
		return
	}
	payment, err := h.PaymentService.GetByOrderID(uint(orderID))
	if err != nil {
		respondWithMappedError(c, err, paymentConfirmErrorRules, response.CodeInvalid, "支付记录查询失败")
		return
	}

	response.Success(c, payment)
}
