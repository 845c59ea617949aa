package worker

import (
	"context"
	"testing"

	"github.com/shopcore-next/internal/provider"
	"github.com/shopcore-next/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleOrderTimeoutCancelInvalidPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})

	task := asynq.NewTask(queue.TaskOrderTimeoutCancel, []byte("not-json"))
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error for malformed payload")
	}
}

func TestHandleOrderTimeoutCancelSkipsZeroOrderID(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})

	task, err := queue.NewOrderTimeoutCancelTask(queue.OrderTimeoutCancelPayload{OrderID: 0})
	if err != nil {
		t.Fatalf("NewOrderTimeoutCancelTask error: %v", err)
	}
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("zero order id should be skipped, got: %v", err)
	}
}

func TestHandleOrderTimeoutCancelSkipsNilService(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})

	task, err := queue.NewOrderTimeoutCancelTask(queue.OrderTimeoutCancelPayload{OrderID: 42})
	if err != nil {
		t.Fatalf("NewOrderTimeoutCancelTask error: %v", err)
	}
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("nil order service should be skipped, got: %v", err)
	}
}
