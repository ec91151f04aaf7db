package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"sacviet-order-service/internal/api"
	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/poller"
	"sacviet-order-service/internal/service"
	"sacviet-order-service/internal/store"
	"sacviet-order-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	util.SetLogger(zap.NewNop())
}

type recordingOpener struct {
	mu    sync.Mutex
	links []string
}

func (o *recordingOpener) Open(_ context.Context, link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links = append(o.links, link)
	return nil
}

func startOrderService(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.NewMemoryStore()
	h := api.NewHandler(service.NewOrderService(st, nil, nil, 5), service.NewPaymentService(st, nil, nil), "")
	router := gin.New()
	h.SetupRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func postTransfer(baseURL, content string, amount int64) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"content":        content,
		"transferAmount": amount,
		"transferType":   "in",
	})
	resp, err := http.Post(baseURL+"/api/webhook", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(resp.Status)
	}
	return nil
}

func filledCart() *Cart {
	cart := NewCart()
	cart.Add(service.OrderItemRequest{ProductID: "p1", Name: "Khăn Piêu", Ethnic: "Thái", UnitPrice: 125000, Quantity: 2})
	return cart
}

var buyer = service.CustomerInfoRequest{Name: "Nguyễn Văn A", Phone: "0912345678", Address: "Hà Nội"}

func TestRun_QRWaitsForWebhook(t *testing.T) {
	srv := startOrderService(t)
	client := NewAPIClient(srv.URL, srv.Client())
	cart := filledCart()
	opener := &recordingOpener{}
	summary := &syncBuffer{}

	co := New(client, poller.New(client, 10*time.Millisecond, 0), cart, opener, Options{
		MessengerURL: "https://zalo.me/0987654321",
		Summary:      summary,
	})

	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			text := summary.String()
			if i := strings.Index(text, "SN-"); i >= 0 && len(text) >= i+9 {
				time.Sleep(50 * time.Millisecond)
				assert.NoError(t, postTransfer(srv.URL, "chuyen tien "+strings.ToLower(text[i:i+9]), 250000))
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	receipt, err := co.Run(ctx, "user-1", buyer, models.PaymentMethodQR)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, receipt.Order.Status)
	assert.Equal(t, StepCart, co.Step())
	assert.Zero(t, cart.Len())
	require.Len(t, opener.links, 1)

	u, err := url.Parse(opener.links[0])
	require.NoError(t, err)
	assert.Equal(t, "zalo.me", u.Host)
	assert.Equal(t, "Chào Sắc Việt, tôi vừa thanh toán thành công đơn hàng "+receipt.Order.OrderID, u.Query().Get("text"))

	orders, err := client.ListOrders(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Đã thanh toán", orders[0].StatusLabel)
}

func TestRun_CODCompletesImmediately(t *testing.T) {
	srv := startOrderService(t)
	client := NewAPIClient(srv.URL, srv.Client())
	cart := filledCart()
	opener := &recordingOpener{}

	co := New(client, poller.New(client, time.Hour, 0), cart, opener, Options{MessengerURL: "https://zalo.me/0987654321"})

	receipt, err := co.Run(context.Background(), "user-1", buyer, models.PaymentMethodCOD)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://zalo.me/0987654321"}, opener.links)
	assert.Zero(t, cart.Len())
	assert.Equal(t, models.OrderStatusPending, receipt.Order.Status, "receipt must match the server")

	status, err := client.OrderStatus(context.Background(), receipt.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, status)
}

func TestRun_CancelKeepsCart(t *testing.T) {
	srv := startOrderService(t)
	client := NewAPIClient(srv.URL, srv.Client())
	cart := filledCart()
	opener := &recordingOpener{}

	co := New(client, poller.New(client, 5*time.Millisecond, 0), cart, opener, Options{MessengerURL: "https://zalo.me/1"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	receipt, err := co.Run(ctx, "user-1", buyer, models.PaymentMethodQR)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, receipt)
	assert.Equal(t, StepSuccess, co.Step())
	assert.Equal(t, 1, cart.Len())
	assert.Empty(t, opener.links)
}

type failingCreator struct{}

func (failingCreator) CreateOrder(context.Context, *service.CreateOrderRequest) (*service.CreateOrderResponse, error) {
	return nil, errors.New("database unavailable")
}

func TestRun_CreateFailureKeepsCart(t *testing.T) {
	cart := filledCart()
	co := New(failingCreator{}, poller.New(nil, time.Second, 0), cart, nil, Options{})

	_, err := co.Run(context.Background(), "user-1", buyer, models.PaymentMethodQR)
	require.Error(t, err)
	assert.Equal(t, StepCheckout, co.Step())
	assert.Equal(t, 1, cart.Len())
}

func TestRun_EmptyCart(t *testing.T) {
	co := New(failingCreator{}, poller.New(nil, time.Second, 0), NewCart(), nil, Options{})

	_, err := co.Run(context.Background(), "user-1", buyer, models.PaymentMethodQR)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StepCart, co.Step())
}

func TestConfirmationLink(t *testing.T) {
	link := ConfirmationLink("https://zalo.me/0987654321", "SN-601810")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/0987654321", u.Path)
	assert.Equal(t, "Chào Sắc Việt, tôi vừa thanh toán thành công đơn hàng SN-601810", u.Query().Get("text"))
}
