// Package bookstore defines the wire types exchanged with the bookstore
// REST backend.
package bookstore

import "time"

// Product is a catalog entry.
type Product struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Author        string   `json:"author,omitempty"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Price         float64  `json:"price"`
	SalePrice     *float64 `json:"salePrice,omitempty"`
	Stock         int      `json:"stock,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedYear int      `json:"publishedYear,omitempty"`
	PageCount     int      `json:"pageCount,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	ReviewCount   int      `json:"reviewCount,omitempty"`
	Featured      bool     `json:"featured,omitempty"`
	Bestseller    bool     `json:"bestseller,omitempty"`
}

// CartItem is one line of the server-side cart.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns price times quantity.
func (c CartItem) LineTotal() float64 {
	return c.Product.Price * float64(c.Quantity)
}

// Cart is the body returned by every cart endpoint.
type Cart struct {
	Items []CartItem `json:"items"`
}

// OrderItem is a line item snapshot stored on an order.
type OrderItem struct {
	Product  string  `json:"product"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// ShippingAddress is the delivery contact for an order.
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// StatusEntry is one element of an order's status history.
type StatusEntry struct {
	Status    string     `json:"status"`
	Note      string     `json:"note,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Order is an order record as returned by the backend.
type Order struct {
	ID              string          `json:"_id"`
	User            any             `json:"user,omitempty"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	TotalPrice      float64         `json:"totalPrice"`
	OrderStatus     string          `json:"orderStatus,omitempty"`
	StatusHistory   []StatusEntry   `json:"statusHistory,omitempty"`
	IsPaid          bool            `json:"isPaid"`
	IsDelivered     bool            `json:"isDelivered,omitempty"`
	CreatedAt       *time.Time      `json:"createdAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
}

// Clone returns a deep copy of o. User is copied by reference; it is only
// ever decoded JSON that nothing mutates.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	if o.OrderItems != nil {
		cp.OrderItems = make([]OrderItem, len(o.OrderItems))
		copy(cp.OrderItems, o.OrderItems)
	}
	if o.StatusHistory != nil {
		cp.StatusHistory = make([]StatusEntry, len(o.StatusHistory))
		for i, e := range o.StatusHistory {
			e.UpdatedAt = cloneTime(e.UpdatedAt)
			cp.StatusHistory[i] = e
		}
	}
	cp.CreatedAt = cloneTime(o.CreatedAt)
	cp.DeliveredAt = cloneTime(o.DeliveredAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// NewOrder is the body of an order creation request.
type NewOrder struct {
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	TotalPrice      float64         `json:"totalPrice"`
}

// StatusUpdate is the body of an order status change.
type StatusUpdate struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// User is an account as listed by the admin endpoints.
type User struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"isAdmin"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Credentials is the body of a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of a register request.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProductPage is a page of the product catalog.
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// OrderPage is a page of the admin order list.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
}

// UserPage is a page of the admin user list.
type UserPage struct {
	Users []User `json:"users"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
}

// MonthlyRevenue is one bucket of the revenue summary.
type MonthlyRevenue struct {
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// RevenueSummary is returned by the order statistics endpoint.
type RevenueSummary struct {
	TotalRevenue   float64          `json:"totalRevenue"`
	TotalOrders    int              `json:"totalOrders,omitempty"`
	TotalProducts  int              `json:"totalProducts,omitempty"`
	TotalUsers     int              `json:"totalUsers,omitempty"`
	MonthlyRevenue []MonthlyRevenue `json:"monthlyRevenue"`
}
