// Package cart implements the shopping cart arithmetic shared by the checkout
// flow. The zero value is an empty cart. A Cart is not safe for concurrent use.
package cart

import "storefront-backend/internal/models"

type Cart struct {
	items []models.CartItem
	index map[string]int
}

func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// Add puts qty units of product into the cart, merging with an existing line
// for the same product id. Non-positive quantities are ignored.
func (c *Cart) Add(product models.Product, qty int64) {
	if qty <= 0 {
		return
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[product.ID]; ok {
		c.items[i].Quantity += qty
		return
	}
	c.index[product.ID] = len(c.items)
	c.items = append(c.items, models.CartItem{Product: product, Quantity: qty})
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line.
func (c *Cart) UpdateQuantity(productID string, qty int64) bool {
	i, ok := c.index[productID]
	if !ok {
		return false
	}
	if qty <= 0 {
		c.Remove(productID)
		return true
	}
	c.items[i].Quantity = qty
	return true
}

func (c *Cart) Remove(productID string) bool {
	i, ok := c.index[productID]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].ID] = j
	}
	return true
}

func (c *Cart) Clear() {
	c.items = nil
	c.index = make(map[string]int)
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []models.CartItem {
	result := make([]models.CartItem, len(c.items))
	copy(result, c.items)
	return result
}

// Len is the number of distinct products.
func (c *Cart) Len() int {
	return len(c.items)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int64 {
	var total int64
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Total is the sum of price times quantity across all lines.
func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.items {
		total += item.Subtotal()
	}
	return total
}
