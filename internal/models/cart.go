package models

import (
	"math"
	"strings"
	"time"
)

// CartItem is a product snapshot taken when it was added to a cart.
type CartItem struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Type  string  `json:"type"`
}

type Cart struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// Contains reports whether the cart already holds productID.
func (c *Cart) Contains(productID string) bool {
	for _, item := range c.Items {
		if item.ID == productID {
			return true
		}
	}
	return false
}

// Recalculate sets Total to the sum of item prices rounded to cents.
func (c *Cart) Recalculate() {
	var total float64
	for _, item := range c.Items {
		total += item.Price
	}
	c.Total = math.Round(total*100) / 100
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
}

// CheckoutRequest carries the buyer details of a simulated checkout.
// Payment details are never accepted.
type CheckoutRequest struct {
	CartID    string `json:"cart_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
}

// Sanitized returns a copy with markup stripped and the e-mail lowercased.
func (r CheckoutRequest) Sanitized() CheckoutRequest {
	return CheckoutRequest{
		CartID:    strings.TrimSpace(r.CartID),
		Email:     strings.ToLower(cleanText(r.Email)),
		FirstName: cleanText(r.FirstName),
		LastName:  cleanText(r.LastName),
		Address:   cleanText(r.Address),
		City:      cleanText(r.City),
		Zip:       cleanText(r.Zip),
	}
}

// Validate returns field-level problems keyed by JSON field name.
func (r *CheckoutRequest) Validate() map[string]string {
	problems := make(map[string]string)

	if r.CartID == "" {
		problems["cart_id"] = "Cart id is required"
	}

	switch {
	case r.Email == "":
		problems["email"] = "Email is required"
	case len(r.Email) > 254 || !validEmail(r.Email):
		problems["email"] = "Please enter a valid email"
	}

	required := []struct{ field, value, label string }{
		{"first_name", r.FirstName, "First name"},
		{"last_name", r.LastName, "Last name"},
		{"address", r.Address, "Address"},
		{"city", r.City, "City"},
		{"zip", r.Zip, "ZIP / Postal code"},
	}
	for _, f := range required {
		switch {
		case f.value == "":
			problems[f.field] = f.label + " is required"
		case len([]rune(f.value)) > 200:
			problems[f.field] = f.label + " must be less than 200 characters"
		}
	}

	return problems
}

// Order is the receipt of a completed checkout.
type Order struct {
	ID        string     `json:"id"`
	CartID    string     `json:"cart_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

const OrderStatusConfirmed = "confirmed"
