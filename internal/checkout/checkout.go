// Package checkout drives the buyer side of an order: submit the cart, hand the
// buyer the order text, wait for the transfer to land, then run the
// post-payment actions.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/poller"
	"sacviet-order-service/internal/service"
	"sacviet-order-service/internal/util"

	"go.uber.org/zap"
)

// ErrEmptyCart is returned when checking out with nothing in the cart
var ErrEmptyCart = errors.New("cart is empty")

// Step is the checkout screen the buyer is on
type Step string

// Checkout steps
const (
	StepCart     Step = "cart"
	StepCheckout Step = "checkout"
	StepSuccess  Step = "success"
)

// OrderCreator submits orders. *APIClient implements it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*service.CreateOrderResponse, error)
}

// LinkOpener opens an external deep link, e.g. the shop's messenger chat
type LinkOpener interface {
	Open(ctx context.Context, link string) error
}

// Options configures a Checkout
type Options struct {
	// MessengerURL is the shop's chat link, e.g. https://zalo.me/0987654321
	MessengerURL string
	// RedirectDelay keeps the success screen up before the messenger opens
	RedirectDelay time.Duration
	// Summary receives the order text the buyer pastes into the chat
	Summary io.Writer
}

// Receipt describes a completed checkout
type Receipt struct {
	Order *models.Order
	Link  string
}

// Checkout runs one buyer's checkout flow
type Checkout struct {
	orders OrderCreator
	poller *poller.Poller
	cart   *Cart
	opener LinkOpener
	opts   Options
	logger *zap.Logger

	mu   sync.Mutex
	step Step
}

// New creates a checkout flow over cart
func New(orders OrderCreator, p *poller.Poller, cart *Cart, opener LinkOpener, opts Options) *Checkout {
	if opts.Summary == nil {
		opts.Summary = io.Discard
	}
	return &Checkout{
		orders: orders,
		poller: p,
		cart:   cart,
		opener: opener,
		opts:   opts,
		logger: util.GetLogger(),
		step:   StepCart,
	}
}

// Step returns the current checkout step
func (c *Checkout) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Checkout) setStep(s Step) {
	c.mu.Lock()
	c.step = s
	c.mu.Unlock()
}

// Run places the order and waits for payment.
//
// If the order cannot be stored the cart is kept and the step stays on
// checkout. Cancelling ctx abandons the wait; the order stays pending and the
// cart is kept.
func (c *Checkout) Run(ctx context.Context, userID string, customer service.CustomerInfoRequest, method models.PaymentMethod) (*Receipt, error) {
	if c.cart.Len() == 0 {
		return nil, ErrEmptyCart
	}
	c.setStep(StepCheckout)

	resp, err := c.orders.CreateOrder(ctx, &service.CreateOrderRequest{
		UserID:        userID,
		CustomerInfo:  customer,
		PaymentMethod: string(method),
		Items:         c.cart.Items(),
	})
	if err != nil {
		c.logger.Error("Checkout failed", zap.Error(err))
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	order := resp.Order

	if _, err := io.WriteString(c.opts.Summary, resp.Summary); err != nil {
		c.logger.Warn("Failed to write order summary", zap.Error(err))
	}
	c.setStep(StepSuccess)
	c.logger.Info("Order placed, awaiting payment",
		zap.String("order_id", order.OrderID),
		zap.String("payment_method", string(method)))

	result, err := c.poller.Wait(ctx, order.OrderID, method)
	if err != nil {
		return &Receipt{Order: order}, err
	}
	// A COD order stays pending on the server until the shop settles it.
	if method != models.PaymentMethodCOD {
		order.Status = result.Status
	}

	link := c.opts.MessengerURL
	if method == models.PaymentMethodQR {
		link = ConfirmationLink(c.opts.MessengerURL, order.OrderID)
	}

	err = c.afterPayment(ctx, link)
	return &Receipt{Order: order, Link: link}, err
}

func (c *Checkout) afterPayment(ctx context.Context, link string) error {
	if c.opts.RedirectDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opts.RedirectDelay):
		}
	}

	if c.opener != nil && link != "" {
		if err := c.opener.Open(ctx, link); err != nil {
			c.logger.Warn("Failed to open messenger link", zap.String("link", link), zap.Error(err))
		}
	}
	c.cart.Clear()
	c.setStep(StepCart)
	return nil
}

// ConfirmationLink builds the messenger deep link pre-filled with the payment confirmation
func ConfirmationLink(messengerURL, orderID string) string {
	text := fmt.Sprintf("Chào Sắc Việt, tôi vừa thanh toán thành công đơn hàng %s", orderID)

	u, err := url.Parse(messengerURL)
	if err != nil {
		return messengerURL + "?text=" + url.QueryEscape(text)
	}
	q := u.Query()
	q.Set("text", text)
	u.RawQuery = q.Encode()
	return u.String()
}
