package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	util.SetLogger(zap.NewNop())
}

// scriptedReader answers pending until paidAfter reads have happened, then paid
type scriptedReader struct {
	mu        sync.Mutex
	reads     int
	paidAfter int
	failOn    map[int]bool
	inFlight  int
	overlap   bool
}

func (r *scriptedReader) OrderStatus(_ context.Context, _ string) (models.OrderStatus, error) {
	r.mu.Lock()
	r.reads++
	n := r.reads
	r.inFlight++
	if r.inFlight > 1 {
		r.overlap = true
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if r.failOn[n] {
		return "", errors.New("network unreachable")
	}
	if r.paidAfter > 0 && n > r.paidAfter {
		return models.OrderStatusPaid, nil
	}
	return models.OrderStatusPending, nil
}

func (r *scriptedReader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func TestWait_DetectsPaidOnNextTick(t *testing.T) {
	reader := &scriptedReader{paidAfter: 4}
	p := New(reader, 10*time.Millisecond, 0)

	res, err := p.Wait(context.Background(), "SN-601810", models.PaymentMethodQR)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, res.Status)
	assert.Equal(t, 5, res.Attempts)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 5, reader.count(), "polling continued after paid")
	assert.False(t, reader.overlap)
}

func TestWait_ThreeSecondInterval(t *testing.T) {
	if testing.Short() {
		t.Skip("runs for about fifteen seconds")
	}

	reader := &scriptedReader{paidAfter: 4}
	p := New(reader, 3*time.Second, 0)

	start := time.Now()
	res, err := p.Wait(context.Background(), "SN-601810", models.PaymentMethodQR)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Attempts)
	assert.Less(t, time.Since(start), 16*time.Second)
}

func TestWait_CODSkipsPolling(t *testing.T) {
	reader := &scriptedReader{}
	p := New(reader, time.Millisecond, 0)

	res, err := p.Wait(context.Background(), "SN-601810", models.PaymentMethodCOD)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, res.Status)
	assert.Zero(t, reader.count())
}

func TestWait_ReadErrorsAreRetried(t *testing.T) {
	reader := &scriptedReader{paidAfter: 3, failOn: map[int]bool{1: true, 2: true}}
	p := New(reader, 5*time.Millisecond, 0)

	res, err := p.Wait(context.Background(), "SN-601810", models.PaymentMethodQR)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Attempts)
}

func TestWait_CancelStopsPolling(t *testing.T) {
	reader := &scriptedReader{}
	p := New(reader, 5*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Wait(ctx, "SN-601810", models.PaymentMethodQR)
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	reads := reader.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, reads, reader.count(), "polling continued after cancel")
}

func TestWait_MaxAttempts(t *testing.T) {
	reader := &scriptedReader{}
	p := New(reader, time.Millisecond, 3)

	res, err := p.Wait(context.Background(), "SN-601810", models.PaymentMethodQR)
	assert.ErrorIs(t, err, ErrPaymentTimedOut)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, models.OrderStatusPending, res.Status)
}

func TestHTTPStatusReader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/orders/SN-601810/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"order_id":"SN-601810","status":"paid"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	reader := NewHTTPStatusReader(srv.URL+"/", srv.Client())

	status, err := reader.OrderStatus(context.Background(), "SN-601810")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, status)

	_, err = reader.OrderStatus(context.Background(), "SN-999999")
	assert.Error(t, err)
}
