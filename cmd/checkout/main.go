package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sacviet-order-service/config"
	"sacviet-order-service/internal/checkout"
	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/poller"
	"sacviet-order-service/internal/service"
	"sacviet-order-service/internal/util"

	"go.uber.org/zap"
)

// printOpener prints the messenger link instead of launching a browser
type printOpener struct{}

func (printOpener) Open(_ context.Context, link string) error {
	_, err := fmt.Fprintf(os.Stdout, "\nMở Zalo để xác nhận đơn hàng: %s\n", link)
	return err
}

func main() {
	cfg := config.Load()

	apiURL := flag.String("api", cfg.Checkout.APIBaseURL, "order service base URL")
	userID := flag.String("user", "", "buyer user id")
	cartFile := flag.String("cart", "cart.json", "JSON file with the cart items")
	name := flag.String("name", "", "recipient name")
	phone := flag.String("phone", "", "recipient phone")
	address := flag.String("address", "", "delivery address")
	note := flag.String("note", "", "order note")
	method := flag.String("method", string(models.PaymentMethodQR), "payment method: cod or qr")
	flag.Parse()

	if err := util.InitLogger(cfg.Server.Env, cfg.Observ.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	paymentMethod, err := models.ParsePaymentMethod(*method)
	if err != nil {
		logger.Fatal("Invalid payment method", zap.Error(err))
	}

	items, err := readCart(*cartFile)
	if err != nil {
		logger.Fatal("Failed to read cart", zap.String("file", *cartFile), zap.Error(err))
	}
	cart := checkout.NewCart()
	for _, item := range items {
		cart.Add(item)
	}

	client := checkout.NewAPIClient(*apiURL, &http.Client{Timeout: 10 * time.Second})
	p := poller.New(client, cfg.Checkout.PollInterval, cfg.Checkout.PollMaxAttempts)
	flow := checkout.New(client, p, cart, printOpener{}, checkout.Options{
		MessengerURL:  cfg.Checkout.MessengerURL,
		RedirectDelay: cfg.Checkout.RedirectDelay,
		Summary:       os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	customer := service.CustomerInfoRequest{Name: *name, Phone: *phone, Address: *address, Note: *note}
	receipt, err := flow.Run(ctx, *userID, customer, paymentMethod)
	if err != nil {
		if receipt != nil {
			logger.Error("Checkout did not complete", zap.String("order_id", receipt.Order.OrderID), zap.Error(err))
		} else {
			logger.Error("Checkout failed", zap.Error(err))
		}
		os.Exit(1)
	}

	logger.Info("Checkout completed",
		zap.String("order_id", receipt.Order.OrderID),
		zap.String("status", string(receipt.Order.Status)))
}

func readCart(path string) ([]service.OrderItemRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []service.OrderItemRequest
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}
