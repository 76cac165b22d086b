// Package bookstoretest runs an in-memory bookstore REST backend over
// httptest for tests of the client-side stores and tools.
package bookstoretest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/session"
)

// TokenTTL is the lifetime written into issued tokens.
const TokenTTL = 30 * 24 * time.Hour

var signingKey = []byte("bookstoretest")

type account struct {
	user     bookstore.User
	password string
	token    string
}

type failure struct {
	status  int
	message string
}

// Backend is a fake bookstore server.
type Backend struct {
	srv *httptest.Server

	mu       sync.Mutex
	products map[string]bookstore.Product
	accounts map[string]*account // by email
	carts    map[string][]bookstore.CartItem
	orders   []*bookstore.Order
	summary  bookstore.RevenueSummary
	failures map[string]failure
	requests []string
}

// New starts a backend that is closed when t finishes.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		products: map[string]bookstore.Product{},
		accounts: map[string]*account{},
		carts:    map[string][]bookstore.CartItem{},
		failures: map[string]failure{},
	}
	b.srv = httptest.NewServer(b.routes())
	t.Cleanup(b.srv.Close)
	return b
}

// Config points an api.Client at the backend.
func (b *Backend) Config() api.Config {
	return api.Config{
		ProductsURL: b.srv.URL + "/api/products",
		CartURL:     b.srv.URL + "/api/cart",
		OrdersURL:   b.srv.URL + "/api/orders",
		UsersURL:    b.srv.URL + "/api/users",
	}
}

// Client returns a client for the backend.
func (b *Backend) Client() *api.Client {
	return api.New(b.Config())
}

// AddProduct stores p.
func (b *Backend) AddProduct(p bookstore.Product) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products[p.ID] = p
}

// AddUser creates an account and returns its session.
func (b *Backend) AddUser(name, email, password string, admin bool) session.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, email, password, admin)
}

func (b *Backend) addUserLocked(name, email, password string, admin bool) session.Session {
	id := uuid.NewString()
	acc := &account{
		user: bookstore.User{
			ID:        id,
			Name:      name,
			Email:     email,
			IsAdmin:   admin,
			CreatedAt: ptr(time.Now().UTC()),
		},
		password: password,
		token:    issueToken(id),
	}
	b.accounts[email] = acc
	return sessionOf(acc)
}

// AddOrder stores o. Its User field must hold the owner's id.
func (b *Backend) AddOrder(o bookstore.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := o
	b.orders = append(b.orders, &cp)
}

// SetSummary sets the revenue summary returned by the stats endpoint.
func (b *Backend) SetSummary(s bookstore.RevenueSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = s
}

// Fail makes every request to method and path answer status with message
// until Recover is called.
func (b *Backend) Fail(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message}
}

// Recover removes an injected failure.
func (b *Backend) Recover(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, method+" "+path)
}

// Requests returns "METHOD /path" for every request received.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// Cart returns the server-side cart of the user holding token.
func (b *Backend) Cart(token string) []bookstore.CartItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.carts[token])
}

// Orders returns every stored order.
func (b *Backend) Orders() []bookstore.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bookstore.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, *o)
	}
	return out
}

// HasUser reports whether an account with id exists.
func (b *Backend) HasUser(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.user.ID == id {
			return true
		}
	}
	return false
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", b.listProducts)
	mux.HandleFunc("POST /api/products", b.admin(b.createProduct))
	mux.HandleFunc("GET /api/products/search", b.searchProducts)
	mux.HandleFunc("GET /api/products/categories", b.categories)
	mux.HandleFunc("GET /api/products/{id}", b.getProduct)
	mux.HandleFunc("PUT /api/products/{id}", b.admin(b.updateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", b.admin(b.deleteProduct))
	mux.HandleFunc("GET /api/products/{first}/{second}", b.productSubresource)

	mux.HandleFunc("GET /api/cart", b.user(b.getCart))
	mux.HandleFunc("POST /api/cart/add", b.user(b.addToCart))
	mux.HandleFunc("PUT /api/cart/update/{id}", b.user(b.updateCart))
	mux.HandleFunc("DELETE /api/cart/remove/{id}", b.user(b.removeFromCart))
	mux.HandleFunc("DELETE /api/cart/clear", b.user(b.clearCart))

	mux.HandleFunc("POST /api/orders", b.user(b.createOrder))
	mux.HandleFunc("GET /api/orders", b.admin(b.listOrders))
	mux.HandleFunc("GET /api/orders/myorders", b.user(b.myOrders))
	mux.HandleFunc("GET /api/orders/stats/summary", b.admin(b.revenueSummary))
	mux.HandleFunc("GET /api/orders/{id}", b.user(b.getOrder))
	mux.HandleFunc("PUT /api/orders/{id}/status", b.admin(b.updateStatus))

	mux.HandleFunc("POST /api/users/login", b.login)
	mux.HandleFunc("POST /api/users/register", b.register)
	mux.HandleFunc("GET /api/users", b.admin(b.listUsers))
	mux.HandleFunc("DELETE /api/users/{id}", b.admin(b.deleteUser))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.requests = append(b.requests, key)
		f, failing := b.failures[key]
		b.mu.Unlock()
		if failing {
			writeError(w, f.status, f.message)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// authed is a handler that runs for an identified account.
type authed func(w http.ResponseWriter, r *http.Request, acc *account)

func (b *Backend) user(next authed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc := b.lookup(r)
		if acc == nil {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next(w, r, acc)
	}
}

func (b *Backend) admin(next authed) http.HandlerFunc {
	return b.user(func(w http.ResponseWriter, r *http.Request, acc *account) {
		if !acc.user.IsAdmin {
			writeError(w, http.StatusForbidden, "Not authorized as an admin")
			return
		}
		next(w, r, acc)
	})
}

func (b *Backend) lookup(r *http.Request) *account {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.token == token {
			return acc
		}
	}
	return nil
}

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	featured := r.URL.Query().Get("featured") == "true"
	bestseller := r.URL.Query().Get("bestseller") == "true"
	writeJSON(w, http.StatusOK, b.page(r, func(p bookstore.Product) bool {
		return (!featured || p.Featured) && (!bestseller || p.Bestseller)
	}))
}

func (b *Backend) searchProducts(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(r.URL.Query().Get("name"))
	writeJSON(w, http.StatusOK, b.page(r, func(p bookstore.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), name)
	}))
}

// productSubresource serves /category/{name} and /{id}/related, which
// overlap as mux patterns.
func (b *Backend) productSubresource(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "category":
		b.productsByCategory(w, r, second)
	case second == "related":
		b.relatedProducts(w, first)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (b *Backend) productsByCategory(w http.ResponseWriter, r *http.Request, name string) {
	writeJSON(w, http.StatusOK, b.page(r, func(p bookstore.Product) bool {
		return p.Category == name
	}))
}

func (b *Backend) page(r *http.Request, keep func(bookstore.Product) bool) bookstore.ProductPage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := bookstore.ProductPage{Products: []bookstore.Product{}, Page: 1, Pages: 1}
	if n, err := strconv.Atoi(r.URL.Query().Get("pageNumber")); err == nil && n > 0 {
		out.Page = n
	}
	for _, id := range sortedKeys(b.products) {
		if p := b.products[id]; keep(p) {
			out.Products = append(out.Products, p)
		}
	}
	return out
}

func (b *Backend) categories(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cats := []string{}
	for _, id := range sortedKeys(b.products) {
		if c := b.products[id].Category; c != "" && !slices.Contains(cats, c) {
			cats = append(cats, c)
		}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	p, ok := b.products[r.PathValue("id")]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) relatedProducts(w http.ResponseWriter, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	related := []bookstore.Product{}
	for _, id := range sortedKeys(b.products) {
		if other := b.products[id]; other.ID != p.ID && other.Category == p.Category {
			related = append(related, other)
		}
	}
	writeJSON(w, http.StatusOK, related)
}

func (b *Backend) createProduct(w http.ResponseWriter, r *http.Request, _ *account) {
	var p bookstore.Product
	if !decode(w, r, &p) {
		return
	}
	p.ID = uuid.NewString()
	b.AddProduct(p)
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) updateProduct(w http.ResponseWriter, r *http.Request, _ *account) {
	var p bookstore.Product
	if !decode(w, r, &p) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := b.products[id]; !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	p.ID = id
	b.products[id] = p
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) deleteProduct(w http.ResponseWriter, r *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := b.products[id]; !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	delete(b.products, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
}

func (b *Backend) getCart(w http.ResponseWriter, _ *http.Request, acc *account) {
	b.writeCart(w, acc)
}

func (b *Backend) addToCart(w http.ResponseWriter, r *http.Request, acc *account) {
	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if !decode(w, r, &body) {
		return
	}
	b.mu.Lock()
	p, ok := b.products[body.ProductID]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	items := b.carts[acc.token]
	found := false
	for i := range items {
		if items[i].Product.ID == p.ID {
			items[i].Quantity += body.Quantity
			found = true
		}
	}
	if !found {
		items = append(items, bookstore.CartItem{Product: p, Quantity: body.Quantity})
	}
	b.carts[acc.token] = items
	b.mu.Unlock()
	b.writeCart(w, acc)
}

func (b *Backend) updateCart(w http.ResponseWriter, r *http.Request, acc *account) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if !decode(w, r, &body) {
		return
	}
	b.mu.Lock()
	items := b.carts[acc.token]
	for i := range items {
		if items[i].Product.ID == r.PathValue("id") {
			items[i].Quantity = body.Quantity
		}
	}
	b.mu.Unlock()
	b.writeCart(w, acc)
}

func (b *Backend) removeFromCart(w http.ResponseWriter, r *http.Request, acc *account) {
	b.mu.Lock()
	b.carts[acc.token] = slices.DeleteFunc(b.carts[acc.token], func(it bookstore.CartItem) bool {
		return it.Product.ID == r.PathValue("id")
	})
	b.mu.Unlock()
	b.writeCart(w, acc)
}

func (b *Backend) clearCart(w http.ResponseWriter, _ *http.Request, acc *account) {
	b.mu.Lock()
	delete(b.carts, acc.token)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (b *Backend) writeCart(w http.ResponseWriter, acc *account) {
	b.mu.Lock()
	items := slices.Clone(b.carts[acc.token])
	b.mu.Unlock()
	if items == nil {
		items = []bookstore.CartItem{}
	}
	writeJSON(w, http.StatusOK, bookstore.Cart{Items: items})
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request, acc *account) {
	var in bookstore.NewOrder
	if !decode(w, r, &in) {
		return
	}
	if len(in.OrderItems) == 0 {
		writeError(w, http.StatusBadRequest, "No order items")
		return
	}
	now := time.Now().UTC()
	o := &bookstore.Order{
		ID:              uuid.NewString(),
		User:            acc.user.ID,
		OrderItems:      in.OrderItems,
		ShippingAddress: in.ShippingAddress,
		TotalPrice:      in.TotalPrice,
		OrderStatus:     "pending",
		StatusHistory:   []bookstore.StatusEntry{{Status: "pending", UpdatedAt: &now}},
		CreatedAt:       &now,
	}
	b.mu.Lock()
	b.orders = append(b.orders, o)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, o)
}

func (b *Backend) listOrders(w http.ResponseWriter, _ *http.Request, _ *account) {
	writeJSON(w, http.StatusOK, bookstore.OrderPage{Orders: b.Orders(), Page: 1, Pages: 1})
}

func (b *Backend) myOrders(w http.ResponseWriter, _ *http.Request, acc *account) {
	mine := []bookstore.Order{}
	for _, o := range b.Orders() {
		if o.User == acc.user.ID {
			mine = append(mine, o)
		}
	}
	writeJSON(w, http.StatusOK, mine)
}

func (b *Backend) getOrder(w http.ResponseWriter, r *http.Request, acc *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if o.ID == r.PathValue("id") {
			if o.User != acc.user.ID && !acc.user.IsAdmin {
				writeError(w, http.StatusForbidden, "Not authorized")
				return
			}
			writeJSON(w, http.StatusOK, o)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Order not found")
}

func (b *Backend) updateStatus(w http.ResponseWriter, r *http.Request, _ *account) {
	var in bookstore.StatusUpdate
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if o.ID != r.PathValue("id") {
			continue
		}
		now := time.Now().UTC()
		o.OrderStatus = in.Status
		o.StatusHistory = append(o.StatusHistory, bookstore.StatusEntry{Status: in.Status, Note: in.Note, UpdatedAt: &now})
		if in.Status == "delivered" {
			o.IsDelivered = true
			o.DeliveredAt = &now
		}
		writeJSON(w, http.StatusOK, o)
		return
	}
	writeError(w, http.StatusNotFound, "Order not found")
}

func (b *Backend) revenueSummary(w http.ResponseWriter, r *http.Request, _ *account) {
	b.mu.Lock()
	s := b.summary
	b.mu.Unlock()
	if n, err := strconv.Atoi(r.URL.Query().Get("months")); err == nil && n < len(s.MonthlyRevenue) {
		s.MonthlyRevenue = s.MonthlyRevenue[len(s.MonthlyRevenue)-n:]
	}
	writeJSON(w, http.StatusOK, s)
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds bookstore.Credentials
	if !decode(w, r, &creds) {
		return
	}
	b.mu.Lock()
	acc, ok := b.accounts[creds.Email]
	b.mu.Unlock()
	if !ok || acc.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, sessionOf(acc))
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var reg bookstore.Registration
	if !decode(w, r, &reg) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[reg.Email]; exists {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	writeJSON(w, http.StatusCreated, b.addUserLocked(reg.Name, reg.Email, reg.Password, false))
}

func (b *Backend) listUsers(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := []bookstore.User{}
	for _, email := range sortedKeys(b.accounts) {
		users = append(users, b.accounts[email].user)
	}
	writeJSON(w, http.StatusOK, bookstore.UserPage{Users: users, Page: 1, Pages: 1})
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for email, acc := range b.accounts {
		if acc.user.ID == r.PathValue("id") {
			delete(b.accounts, email)
			writeJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "User not found")
}

func issueToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("signing test token: %v", err))
	}
	return token
}

func sessionOf(acc *account) session.Session {
	return session.Session{
		ID:      acc.user.ID,
		Name:    acc.user.Name,
		Email:   acc.user.Email,
		IsAdmin: acc.user.IsAdmin,
		Token:   acc.token,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func ptr[T any](v T) *T { return &v }
