package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/util"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	util.SetLogger(zap.NewNop())
}

type recordingNotifier struct {
	confirmed []string
	shortfall []int64
	err       error
}

func (n *recordingNotifier) PaymentConfirmed(_ context.Context, e *models.OrderPaidEvent) error {
	n.confirmed = append(n.confirmed, e.OrderID)
	return n.err
}

func (n *recordingNotifier) PaymentShortfall(_ context.Context, e *models.PaymentUnderpaidEvent) error {
	n.shortfall = append(n.shortfall, e.Shortfall)
	return n.err
}

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestEventRouter(t *testing.T) {
	notifier := &recordingNotifier{}
	router := NewEventRouter(notifier)
	ctx := context.Background()

	paid := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeOrderPaid, Timestamp: time.Now()},
		OrderID:   "SN-601810",
	}
	require.NoError(t, router.HandleMessage(ctx, message(t, paid)))

	underpaid := &models.PaymentUnderpaidEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypePaymentUnderpaid},
		OrderID:   "SN-601810",
		Shortfall: 5000,
	}
	require.NoError(t, router.HandleMessage(ctx, message(t, underpaid)))

	created := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{EventID: "e3", EventType: models.EventTypeOrderCreated},
		OrderID:   "SN-601810",
	}
	require.NoError(t, router.HandleMessage(ctx, message(t, created)))

	assert.Equal(t, []string{"SN-601810"}, notifier.confirmed)
	assert.Equal(t, []int64{5000}, notifier.shortfall)
}

func TestEventRouter_Errors(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	router := NewEventRouter(notifier)

	err := router.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)

	paid := &models.OrderPaidEvent{BaseEvent: models.BaseEvent{EventType: models.EventTypeOrderPaid}}
	err = router.HandleMessage(context.Background(), message(t, paid))
	assert.Error(t, err, "notifier errors must leave the message uncommitted")
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier()
	assert.NoError(t, n.PaymentConfirmed(context.Background(), &models.OrderPaidEvent{OrderID: "SN-601810"}))
	assert.NoError(t, n.PaymentShortfall(context.Background(), &models.PaymentUnderpaidEvent{OrderID: "SN-601810"}))
}
