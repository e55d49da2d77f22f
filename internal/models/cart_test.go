package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCart_Recalculate(t *testing.T) {
	c := Cart{Items: []CartItem{{ID: "a", Price: 0.1}, {ID: "b", Price: 0.2}, {ID: "c", Price: 49}}}
	c.Recalculate()
	assert.Equal(t, 49.3, c.Total)
	assert.True(t, c.Contains("b"))
	assert.False(t, c.Contains("z"))
}

func TestCheckoutRequest_Validate(t *testing.T) {
	valid := CheckoutRequest{
		CartID:    "6f1c1f8e-2c4b-4d0e-9a51-3f4f5b2b7c10",
		Email:     "buyer@example.com",
		FirstName: "Grace",
		LastName:  "Hopper",
		Address:   "1 Harbour St",
		City:      "Arlington",
		Zip:       "22201",
	}

	tests := []struct {
		name   string
		mutate func(r *CheckoutRequest)
		fields []string
	}{
		{name: "valid request", mutate: func(r *CheckoutRequest) {}},
		{name: "missing cart", mutate: func(r *CheckoutRequest) { r.CartID = "" }, fields: []string{"cart_id"}},
		{name: "bad email", mutate: func(r *CheckoutRequest) { r.Email = "buyer" }, fields: []string{"email"}},
		{name: "missing address", mutate: func(r *CheckoutRequest) { r.Address = ""; r.Zip = "" }, fields: []string{"address", "zip"}},
		{
			name:   "everything missing",
			mutate: func(r *CheckoutRequest) { *r = CheckoutRequest{} },
			fields: []string{"cart_id", "email", "first_name", "last_name", "address", "city", "zip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			problems := req.Validate()
			got := make([]string, 0, len(problems))
			for field := range problems {
				got = append(got, field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestCheckoutRequest_Sanitized(t *testing.T) {
	req := CheckoutRequest{
		CartID:    " abc ",
		Email:     " Buyer@Example.COM ",
		FirstName: "<b>Grace</b>",
		Address:   `<img src=x onerror="alert(1)">1 Harbour St`,
	}

	got := req.Sanitized()
	assert.Equal(t, "abc", got.CartID)
	assert.Equal(t, "buyer@example.com", got.Email)
	assert.Equal(t, "Grace", got.FirstName)
	assert.Equal(t, "1 Harbour St", got.Address)
}
