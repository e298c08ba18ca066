// Package client is the Go consumer of the marketplace API: endpoint URL
// construction, authenticated request headers, and a durable local session
// (token, profile snapshot, per-user cart) mirroring what the web frontend
// keeps in browser storage.
package client

import (
	"fmt"
	"net/http"
	"strings"
)

// bypassHeader skips the interstitial warning page of the tunnelling proxy
// the API is commonly exposed through during development. Harmless when the
// API is served directly.
const (
	bypassHeaderName  = "ngrok-skip-browser-warning"
	bypassHeaderValue = "true"
)

// Endpoints is the single source of backend URLs — a pure mapping from
// logical operation to absolute URL. Nothing else in the client builds a
// URL by hand.
type Endpoints struct {
	base string
}

// NewEndpoints creates an Endpoints rooted at baseURL (trailing slash
// tolerated).
func NewEndpoints(baseURL string) Endpoints {
	return Endpoints{base: strings.TrimRight(baseURL, "/")}
}

func (e Endpoints) Login() string          { return e.base + "/api/login" }
func (e Endpoints) Register() string       { return e.base + "/api/register" }
func (e Endpoints) Me() string             { return e.base + "/api/me" }
func (e Endpoints) UpdateProfile() string  { return e.base + "/api/profile" }
func (e Endpoints) UpdatePassword() string { return e.base + "/api/profile/password" }
func (e Endpoints) Logout() string         { return e.base + "/api/logout" }
func (e Endpoints) GoogleAuth() string     { return e.base + "/api/auth/google" }

func (e Endpoints) Stores() string   { return e.base + "/api/stores" }
func (e Endpoints) MyStore() string  { return e.base + "/api/stores/my-store" }
func (e Endpoints) Products() string { return e.base + "/api/products" }
func (e Endpoints) Orders() string   { return e.base + "/api/orders" }
func (e Endpoints) Checkout() string { return e.base + "/api/checkout" }

func (e Endpoints) Store(id int64) string   { return fmt.Sprintf("%s/api/stores/%d", e.base, id) }
func (e Endpoints) Product(id int64) string { return fmt.Sprintf("%s/api/products/%d", e.base, id) }
func (e Endpoints) Order(id int64) string   { return fmt.Sprintf("%s/api/orders/%d", e.base, id) }

func (e Endpoints) PublicProducts() string { return e.base + "/api/public/products" }
func (e Endpoints) PublicStores() string   { return e.base + "/api/public/stores" }
func (e Endpoints) PublicProduct(id int64) string {
	return fmt.Sprintf("%s/api/public/products/%d", e.base, id)
}
func (e Endpoints) PublicStore(id int64) string {
	return fmt.Sprintf("%s/api/public/stores/%d", e.base, id)
}
func (e Endpoints) StoreProducts(id int64) string {
	return fmt.Sprintf("%s/api/public/stores/%d/products", e.base, id)
}

// DefaultHeaders builds the headers every API call carries. The bearer
// token is attached only when requested AND present — callers of public
// endpoints pass "" and get an anonymous request.
func DefaultHeaders(token string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set(bypassHeaderName, bypassHeaderValue)
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
