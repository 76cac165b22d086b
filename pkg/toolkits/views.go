package toolkits

import (
	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/cart"
	"github.com/txn2/mcp-bookstore/pkg/orders"
	"github.com/txn2/mcp-bookstore/pkg/session"
)

// ProductView is a product with its prices formatted for display.
type ProductView struct {
	bookstore.Product
	PriceDisplay     string `json:"priceDisplay"`
	SalePriceDisplay string `json:"salePriceDisplay,omitempty"`
}

// ProductPageView is one page of products.
type ProductPageView struct {
	Products []ProductView `json:"products"`
	Page     int           `json:"page"`
	Pages    int           `json:"pages"`
}

// CartLineView is one cart line with display values.
type CartLineView struct {
	ProductID        string  `json:"productId"`
	Name             string  `json:"name"`
	Author           string  `json:"author,omitempty"`
	ImageURL         string  `json:"imageUrl,omitempty"`
	Quantity         int     `json:"quantity"`
	Price            float64 `json:"price"`
	PriceDisplay     string  `json:"priceDisplay"`
	LineTotalDisplay string  `json:"lineTotalDisplay"`
}

// CartView is the cart mirror with its derived values.
type CartView struct {
	Items           []CartLineView `json:"items"`
	Count           int            `json:"count"`
	Subtotal        float64        `json:"subtotal"`
	SubtotalDisplay string         `json:"subtotalDisplay"`
	// ClearPending is true while a post-checkout clear still has to be
	// replayed against the server.
	ClearPending bool `json:"clearPending,omitempty"`
}

// StatusEntryView is one history entry with its label and timestamp.
type StatusEntryView struct {
	Status    string `json:"status"`
	Label     string `json:"label"`
	Note      string `json:"note,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// OrderItemView is an order line with display values.
type OrderItemView struct {
	bookstore.OrderItem
	PriceDisplay     string `json:"priceDisplay"`
	LineTotalDisplay string `json:"lineTotalDisplay"`
}

// OrderView is an order with display values.
type OrderView struct {
	ID              string                    `json:"_id"`
	Status          string                    `json:"status"`
	StatusLabel     string                    `json:"statusLabel"`
	Items           []OrderItemView           `json:"items"`
	ShippingAddress bookstore.ShippingAddress `json:"shippingAddress"`
	TotalPrice      float64                   `json:"totalPrice"`
	TotalDisplay    string                    `json:"totalDisplay"`
	IsPaid          bool                      `json:"isPaid"`
	CreatedAt       string                    `json:"createdAt,omitempty"`
	DeliveredAt     string                    `json:"deliveredAt,omitempty"`
	History         []StatusEntryView         `json:"history,omitempty"`
}

// SessionView is the signed-in user without the bearer token.
type SessionView struct {
	Authenticated bool   `json:"authenticated"`
	ID            string `json:"_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	IsAdmin       bool   `json:"isAdmin"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
}

// Product renders p.
func (d Deps) Product(p bookstore.Product) ProductView {
	v := ProductView{Product: p, PriceDisplay: d.Format.Currency(p.Price)}
	if p.SalePrice != nil {
		v.SalePriceDisplay = d.Format.Currency(*p.SalePrice)
	}
	return v
}

// Products renders a list of products.
func (d Deps) Products(list []bookstore.Product) []ProductView {
	out := make([]ProductView, 0, len(list))
	for _, p := range list {
		out = append(out, d.Product(p))
	}
	return out
}

// ProductPage renders a page of products.
func (d Deps) ProductPage(p *bookstore.ProductPage) ProductPageView {
	if p == nil {
		return ProductPageView{Products: []ProductView{}}
	}
	return ProductPageView{Products: d.Products(p.Products), Page: p.Page, Pages: p.Pages}
}

// CartView renders the current cart mirror.
func (d Deps) CartView(c *cart.Store, pending bool) CartView {
	items := c.Items()
	lines := make([]CartLineView, 0, len(items))
	for _, it := range items {
		lines = append(lines, CartLineView{
			ProductID:        it.Product.ID,
			Name:             it.Product.Name,
			Author:           it.Product.Author,
			ImageURL:         it.Product.ImageURL,
			Quantity:         it.Quantity,
			Price:            it.Product.Price,
			PriceDisplay:     d.Format.Currency(it.Product.Price),
			LineTotalDisplay: d.Format.Currency(it.LineTotal()),
		})
	}
	subtotal := c.Subtotal()
	return CartView{
		Items:           lines,
		Count:           c.Count(),
		Subtotal:        subtotal,
		SubtotalDisplay: d.Format.Currency(subtotal),
		ClearPending:    pending,
	}
}

// Order renders o.
func (d Deps) Order(o bookstore.Order) OrderView {
	status := orders.StatusOf(o)
	items := make([]OrderItemView, 0, len(o.OrderItems))
	for _, it := range o.OrderItems {
		items = append(items, OrderItemView{
			OrderItem:        it,
			PriceDisplay:     d.Format.Currency(it.Price),
			LineTotalDisplay: d.Format.Currency(it.Price * float64(it.Quantity)),
		})
	}
	history := make([]StatusEntryView, 0, len(o.StatusHistory))
	for _, h := range o.StatusHistory {
		history = append(history, StatusEntryView{
			Status:    h.Status,
			Label:     orders.Status(h.Status).Label(),
			Note:      h.Note,
			UpdatedAt: d.Format.DateTimePtr(h.UpdatedAt),
		})
	}
	return OrderView{
		ID:              o.ID,
		Status:          string(status),
		StatusLabel:     status.Label(),
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		TotalPrice:      o.TotalPrice,
		TotalDisplay:    d.Format.Currency(o.TotalPrice),
		IsPaid:          o.IsPaid,
		CreatedAt:       d.Format.DatePtr(o.CreatedAt),
		DeliveredAt:     d.Format.DatePtr(o.DeliveredAt),
		History:         history,
	}
}

// Orders renders a list of orders.
func (d Deps) Orders(list []bookstore.Order) []OrderView {
	out := make([]OrderView, 0, len(list))
	for _, o := range list {
		out = append(out, d.Order(o))
	}
	return out
}

// Session renders the current session. The token is never included.
func (d Deps) Session() SessionView {
	return d.SessionOf(d.Sessions.Current())
}

// SessionOf renders s.
func (d Deps) SessionOf(s *session.Session) SessionView {
	if s == nil {
		return SessionView{}
	}
	v := SessionView{Authenticated: true, ID: s.ID, Name: s.Name, Email: s.Email, IsAdmin: s.IsAdmin}
	if exp, ok := s.ExpiresAt(); ok {
		v.ExpiresAt = d.Format.DateTime(exp)
	}
	return v
}
