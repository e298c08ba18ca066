package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Cart storage keys. Carts are namespaced by user id so switching accounts
// on the same machine never mixes baskets; an unauthenticated visitor gets
// the guest key.
const (
	cartKeyPrefix = "pasaloo_cart_"
	guestCartKey  = cartKeyPrefix + "guest"
)

// CartItem is one line of the locally persisted basket.
type CartItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Vendor   string  `json:"vendor"`
	StoreID  int64   `json:"store_id"`
	Quantity int     `json:"quantity"`
}

// Cart reads and writes the basket snapshot for whoever the session
// currently is. The snapshot lives only in client storage — checkout sends
// it to the server, nothing syncs it back.
type Cart struct {
	storage Storage
	session *Session
}

// NewCart binds a cart to the session's identity.
func NewCart(storage Storage, session *Session) *Cart {
	return &Cart{storage: storage, session: session}
}

// key picks the active cart namespace: the user's own when logged in,
// guest otherwise.
func (c *Cart) key() string {
	if user := c.session.User(); user != nil {
		return fmt.Sprintf("%s%d", cartKeyPrefix, user.ID)
	}
	return guestCartKey
}

// Items returns the current basket. A missing or corrupt snapshot reads as
// an empty basket.
func (c *Cart) Items() []CartItem {
	raw, ok := c.storage.Get(c.key())
	if !ok {
		return nil
	}
	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}

// Add puts quantity of item into the basket, merging with an existing line
// for the same product.
func (c *Cart) Add(item CartItem, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("client: quantity must be positive, got %d", quantity)
	}

	items := c.Items()
	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = quantity
		items = append(items, item)
	}
	return c.save(items)
}

// Remove drops the line for productID, if present.
func (c *Cart) Remove(productID int64) error {
	items := c.Items()
	kept := items[:0]
	for _, item := range items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	return c.save(kept)
}

// SetQuantity changes a line's quantity; zero or less removes the line.
func (c *Cart) SetQuantity(productID int64, quantity int) error {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	items := c.Items()
	for i := range items {
		if items[i].ID == productID {
			items[i].Quantity = quantity
			return c.save(items)
		}
	}
	return nil
}

// Count returns the total number of units across all lines.
func (c *Cart) Count() int {
	total := 0
	for _, item := range c.Items() {
		total += item.Quantity
	}
	return total
}

// Clear empties the active cart.
func (c *Cart) Clear() error {
	return c.storage.Delete(c.key())
}

func (c *Cart) save(items []CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("client: encoding cart: %w", err)
	}
	return c.storage.Set(c.key(), string(raw))
}

// clearAllCarts removes every cart snapshot, every user's and the guest's.
// Called on logout as part of the unconditional purge.
func clearAllCarts(storage Storage) {
	for _, key := range storage.Keys() {
		if strings.HasPrefix(key, cartKeyPrefix) {
			_ = storage.Delete(key)
		}
	}
}
