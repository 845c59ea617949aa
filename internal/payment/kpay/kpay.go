package kpay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("kpay config invalid")
	ErrRequestFailed   = errors.New("kpay request failed")
	ErrResponseInvalid = errors.New("kpay response invalid")
	ErrConfirmRejected = errors.New("kpay confirm rejected")
)

// StatusDone 确认成功时网关返回的终态
const StatusDone = "DONE"

// Config 支付网关配置
type Config struct {
	BaseURL   string        `json:"base_url"`   // 网关地址，如 https://api.kpay.example.com
	SecretKey string        `json:"secret_key"` // 商户密钥，Basic 认证使用
	Timeout   time.Duration `json:"-"`          // 请求超时，零值时取 15s
}

// ConfirmInput 支付确认输入，三要素缺一不可
type ConfirmInput struct {
	PaymentKey string
	OrderNo    string
	Amount     int64
}

// ConfirmResult 支付确认结果
type ConfirmResult struct {
	PaymentKey  string                 // 网关支付键
	OrderNo     string                 // 商户订单编号
	Status      string                 // 网关状态（DONE 为成功）
	Method      string                 // 支付手段（卡/转账等）
	TotalAmount int64                  // 确认金额
	ApprovedAt  string                 // 网关批准时间
	IssuerCode  string                 // 发卡机构代码（卡支付时）
	Raw         map[string]interface{} // 原始响应
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}

// Confirm 向网关确认一笔支付。
// 网关要求确认请求携带创建时相同的订单号与金额，不一致时拒绝。
func Confirm(ctx context.Context, cfg *Config, input ConfirmInput) (*ConfirmResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	if input.PaymentKey == "" || input.OrderNo == "" || input.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment_key, order_no and amount are required", ErrConfigInvalid)
	}

	params := map[string]interface{}{
		"paymentKey": input.PaymentKey,
		"orderId":    input.OrderNo,
		"amount":     input.Amount,
	}
	endpoint := cfg.BaseURL + "/v1/payments/confirm"
	respBytes, statusCode, err := postJSON(ctx, cfg, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if statusCode < 200 || statusCode >= 300 {
		var failure struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(respBytes, &failure); err != nil || failure.Code == "" {
			return nil, fmt.Errorf("%w: http status %d", ErrConfirmRejected, statusCode)
		}
		return nil, fmt.Errorf("%w: %s (%s)", ErrConfirmRejected, failure.Message, failure.Code)
	}

	var resp struct {
		PaymentKey  string `json:"paymentKey"`
		OrderID     string `json:"orderId"`
		Status      string `json:"status"`
		Method      string `json:"method"`
		TotalAmount int64  `json:"totalAmount"`
		ApprovedAt  string `json:"approvedAt"`
		Card        *struct {
			IssuerCode string `json:"issuerCode"`
		} `json:"card"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrResponseInvalid)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	result := &ConfirmResult{
		PaymentKey:  resp.PaymentKey,
		OrderNo:     resp.OrderID,
		Status:      resp.Status,
		Method:      resp.Method,
		TotalAmount: resp.TotalAmount,
		ApprovedAt:  resp.ApprovedAt,
		Raw:         raw,
	}
	if resp.Card != nil {
		result.IssuerCode = resp.Card.IssuerCode
	}
	return result, nil
}

// IsDone 判断网关状态是否为支付完成
func IsDone(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusDone)
}

// DefaultIssuerNames 发卡机构代码到展示名的默认映射，可被配置覆盖
func DefaultIssuerNames() map[string]string {
	return map[string]string{
		"361": "BC카드",
		"364": "광주카드",
		"365": "삼성카드",
		"366": "신한카드",
		"367": "현대카드",
		"368": "롯데카드",
		"369": "수협카드",
		"370": "씨티카드",
		"371": "우리카드",
		"372": "전북카드",
		"373": "제주카드",
		"374": "하나카드",
		"381": "KB국민카드",
		"41":  "NH농협카드",
		"71":  "우체국카드",
	}
}

// ResolveMethod 将网关返回的支付手段解析为落库的支付方式。
// 卡支付时优先用发卡机构展示名，未知代码回退到网关原始 method。
func ResolveMethod(result *ConfirmResult, issuerNames map[string]string) string {
	if result == nil {
		return ""
	}
	if result.IssuerCode != "" {
		if issuerNames == nil {
			issuerNames = DefaultIssuerNames()
		}
		if name, ok := issuerNames[result.IssuerCode]; ok {
			return name
		}
	}
	return result.Method
}

func postJSON(ctx context.Context, cfg *Config, endpoint string, params map[string]interface{}) ([]byte, int, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+BasicCredential(cfg.SecretKey))

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBytes, resp.StatusCode, nil
}

// BasicCredential 网关约定以 secret_key + ":" 做 Basic 认证用户名，密码为空。
// 服务端状态推送携带相同凭据，接收端据此校验来源。
func BasicCredential(secretKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
}
