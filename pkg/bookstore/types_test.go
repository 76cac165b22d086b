package bookstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartItem_LineTotal(t *testing.T) {
	item := CartItem{Product: Product{Price: 45000}, Quantity: 3}
	assert.InDelta(t, 135000, item.LineTotal(), 0.001)
}

func TestCart_DecodesServerShape(t *testing.T) {
	body := `{"items":[{"product":{"_id":"p1","name":"Dế Mèn","author":"Tô Hoài","price":60000,"imageUrl":"/img/p1.jpg"},"quantity":2}]}`

	var c Cart
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p1", c.Items[0].Product.ID)
	assert.Equal(t, "Tô Hoài", c.Items[0].Product.Author)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestNewOrder_EncodesBackendFieldNames(t *testing.T) {
	order := NewOrder{
		OrderItems:      []OrderItem{{Product: "p1", Name: "Book", Price: 10, Quantity: 1}},
		ShippingAddress: ShippingAddress{FullName: "An", Address: "1 Lê Lợi", Email: "an@example.com", Phone: "0900"},
		TotalPrice:      10,
	}
	b, err := json.Marshal(order)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Contains(t, raw, "orderItems")
	assert.Contains(t, raw, "totalPrice")
	addr, ok := raw["shippingAddress"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "An", addr["fullName"])
}

func TestOrder_CloneIsDeep(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	o := &Order{
		ID:            "o1",
		OrderItems:    []OrderItem{{Product: "p1", Quantity: 1}},
		StatusHistory: []StatusEntry{{Status: "pending", UpdatedAt: &at}},
		CreatedAt:     &at,
	}

	cp := o.Clone()
	require.Equal(t, o, cp)

	cp.OrderItems[0].Quantity = 5
	cp.StatusHistory[0].Status = "shipping"
	*cp.StatusHistory[0].UpdatedAt = at.Add(time.Hour)
	*cp.CreatedAt = at.Add(time.Hour)

	assert.Equal(t, 1, o.OrderItems[0].Quantity)
	assert.Equal(t, "pending", o.StatusHistory[0].Status)
	assert.Equal(t, at, *o.StatusHistory[0].UpdatedAt)
	assert.Equal(t, at, *o.CreatedAt)
	assert.Nil(t, (*Order)(nil).Clone())
}
