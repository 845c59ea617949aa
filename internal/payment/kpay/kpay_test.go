package kpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	cfg := &Config{
		BaseURL:   "https://api.kpay.example.com",
		SecretKey: "test_sk_abc",
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig should pass, got: %v", err)
	}
	if err := ValidateConfig(&Config{BaseURL: "https://api.kpay.example.com"}); err == nil {
		t.Fatalf("expected error for missing secret key")
	}
}

func TestConfirmSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/confirm" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") == "" {
			t.Fatalf("missing basic auth header")
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["orderId"] != "ORD_42" {
			t.Fatalf("unexpected order id: %v", req["orderId"])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"paymentKey":  "pk_test_1",
			"orderId":     "ORD_42",
			"status":      "DONE",
			"method":      "카드",
			"totalAmount": 13000,
			"approvedAt":  "2026-03-01T12:00:00+09:00",
			"card":        map[string]interface{}{"issuerCode": "366"},
		})
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, SecretKey: "test_sk_abc"}
	result, err := Confirm(context.Background(), cfg, ConfirmInput{
		PaymentKey: "pk_test_1",
		OrderNo:    "ORD_42",
		Amount:     13000,
	})
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if !IsDone(result.Status) {
		t.Fatalf("expected DONE status, got: %s", result.Status)
	}
	if result.TotalAmount != 13000 {
		t.Fatalf("unexpected amount: %d", result.TotalAmount)
	}
	if result.IssuerCode != "366" {
		t.Fatalf("unexpected issuer code: %s", result.IssuerCode)
	}
}

func TestConfirmRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    "NOT_FOUND_PAYMENT",
			"message": "존재하지 않는 결제입니다.",
		})
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, SecretKey: "test_sk_abc"}
	_, err := Confirm(context.Background(), cfg, ConfirmInput{
		PaymentKey: "pk_missing",
		OrderNo:    "ORD_1",
		Amount:     1000,
	})
	if !errors.Is(err, ErrConfirmRejected) {
		t.Fatalf("expected ErrConfirmRejected, got: %v", err)
	}
}

func TestConfirmInputValidation(t *testing.T) {
	cfg := &Config{BaseURL: "https://api.kpay.example.com", SecretKey: "sk"}
	_, err := Confirm(context.Background(), cfg, ConfirmInput{OrderNo: "ORD_1", Amount: 1000})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for missing payment key, got: %v", err)
	}
	_, err = Confirm(context.Background(), cfg, ConfirmInput{PaymentKey: "pk", OrderNo: "ORD_1"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for non-positive amount, got: %v", err)
	}
}

func TestResolveMethod(t *testing.T) {
	result := &ConfirmResult{Method: "카드", IssuerCode: "381"}
	if got := ResolveMethod(result, nil); got != "KB국민카드" {
		t.Fatalf("unexpected method for known issuer: %s", got)
	}
	result = &ConfirmResult{Method: "가상계좌"}
	if got := ResolveMethod(result, nil); got != "가상계좌" {
		t.Fatalf("expected raw method fallback, got: %s", got)
	}
	result = &ConfirmResult{Method: "카드", IssuerCode: "999"}
	if got := ResolveMethod(result, map[string]string{"999": "테스트카드"}); got != "테스트카드" {
		t.Fatalf("expected injected issuer name, got: %s", got)
	}
}
