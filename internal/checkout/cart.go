package checkout

import (
	"sync"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/service"
)

// Cart holds the buyer's items before checkout
type Cart struct {
	mu    sync.Mutex
	items []service.OrderItemRequest
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{}
}

// Add puts an item in the cart, merging quantities for a product already present
func (c *Cart) Add(item service.OrderItemRequest) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == item.ProductID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// UpdateQuantity sets a product's quantity; anything below one removes it
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity < 1 {
		c.Remove(productID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// Remove drops a product from the cart
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// BuyAgain re-adds every line of a past order
func (c *Cart) BuyAgain(order models.Order) {
	for _, item := range order.Items {
		c.Add(service.OrderItemRequest{
			ProductID: item.ProductID,
			Name:      item.Name,
			Ethnic:    item.Ethnic,
			Image:     item.Image,
			Price:     item.Price,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
}

// Items returns a copy of the cart lines
func (c *Cart) Items() []service.OrderItemRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]service.OrderItemRequest(nil), c.items...)
}

// Len returns the number of distinct lines
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Total sums quantity times unit price
func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, item := range c.items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
