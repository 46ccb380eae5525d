package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/handlers"
	"coffeeshop/internal/middleware"
	"coffeeshop/internal/notify"
	"coffeeshop/internal/session"
	"coffeeshop/internal/shop"
	"coffeeshop/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	tokens *auth.Tokens
	mem    *storage.Memory
}

func newServer(t *testing.T) *testServer {
	mem := storage.NewMemory()
	tokens := auth.NewTokens("test-secret", time.Hour)
	h := handlers.New(handlers.Deps{
		Store: storage.New(mem),
		Shop: shop.Options{
			Hasher: auth.NewHasher(auth.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 16, SaltLen: 8}),
			Admin:  &session.DefaultAdmin,
		},
		Notifier: notify.NewLocal(),
		Tokens:   tokens,
	})
	r := gin.New()
	profile := middleware.Profile(middleware.NewCookieStore("cookie-secret"), "coffeeshop_profile", tokens, nil)
	RegisterRoutes(r, h, profile, nil)
	return &testServer{t: t, router: r, tokens: tokens, mem: mem}
}

// client talks to the server as one profile.
type client struct {
	s     *testServer
	token string
}

func (s *testServer) client(profile string) *client {
	token, err := s.tokens.Issue(profile)
	require.NoError(s.t, err)
	return &client{s: s, token: token}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	w := httptest.NewRecorder()
	c.s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type cartBody struct {
	Items []struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func register(t *testing.T, c *client, email string) {
	t.Helper()
	w := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "Jane", "email": email, "password": "secret", "confirm_password": "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	c := newServer(t).client("p1")

	w := c.do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	products := decode[[]map[string]any](t, w)
	assert.Len(t, products, 6)
	assert.Equal(t, "Classic Americano", products[0]["name"])
	assert.Equal(t, "4.99", products[0]["price"])

	w = c.do(http.MethodGet, "/api/products?category=tea", nil)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = c.do(http.MethodGet, "/api/products/3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vanilla Latte", decode[map[string]any](t, w)["name"])

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/products/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/products/abc", nil).Code)

	w = c.do(http.MethodGet, "/api/categories", nil)
	assert.Equal(t, []string{"coffee"}, decode[[]string](t, w))

	w = c.do(http.MethodGet, "/api/state", nil)
	state := decode[map[string]any](t, w)
	assert.Equal(t, false, state["is_admin"])
	assert.NotContains(t, state, "user")
}

func TestCartRoutes(t *testing.T) {
	c := newServer(t).client("p1")

	w := c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "adding requires a login")

	register(t, c, "jane@example.com")

	w = c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": "1"})
	cart := decode[cartBody](t, w)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "9.98", cart.Total)

	w = c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": 2})
	cart = decode[cartBody](t, w)
	assert.Equal(t, 3, cart.Count)

	w = c.do(http.MethodPut, "/api/cart/1", map[string]any{"quantity": "0"})
	cart = decode[cartBody](t, w)
	assert.Equal(t, 1, cart.Items[0].Quantity, "quantity is clamped to 1")

	w = c.do(http.MethodPut, "/api/cart/1", map[string]any{"quantity": 5})
	assert.Equal(t, 5, decode[cartBody](t, w).Items[0].Quantity)

	w = c.do(http.MethodPost, "/api/cart/2/increment", nil)
	assert.Equal(t, 2, decode[cartBody](t, w).Items[1].Quantity)
	c.do(http.MethodPost, "/api/cart/2/decrement", nil)
	w = c.do(http.MethodPost, "/api/cart/2/decrement", nil)
	assert.Equal(t, 1, decode[cartBody](t, w).Items[1].Quantity, "decrement stops at 1")

	w = c.do(http.MethodDelete, "/api/cart/2", nil)
	assert.Len(t, decode[cartBody](t, w).Items, 1)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/api/cart/2/increment", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": 42}).Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": -1}).Code)

	w = c.do(http.MethodDelete, "/api/cart", nil)
	cart = decode[cartBody](t, w)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.Count)
}

func TestAuthRoutes(t *testing.T) {
	c := newServer(t).client("p1")

	w := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "Jane", "email": "jane@example.com", "password": "a", "confirm_password": "b",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Fields, "confirm_password")

	w = c.do(http.MethodPost, "/api/auth/register", map[string]string{"email": "jane@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[errorBody](t, w).Fields)

	register(t, c, "jane@example.com")
	w = c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "Jane", "email": "jane@example.com", "password": "x", "confirm_password": "x",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		User    map[string]any `json:"user"`
		IsAdmin bool           `json:"is_admin"`
	}](t, w)
	assert.Equal(t, "jane@example.com", me.User["email"])
	assert.NotContains(t, me.User, "password")
	assert.False(t, me.IsAdmin)

	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/auth/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/auth/me", nil).Code)

	w = c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "jane@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "jane@example.com", "password": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodPut, "/api/auth/profile", map[string]string{
		"username": "Janet", "email": "janet@example.com", "current_password": "secret", "new_password": "better",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	c.do(http.MethodPost, "/api/auth/logout", nil)
	w = c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "janet@example.com", "password": "better"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodPost, "/api/auth/admin/login", map[string]string{"email": "janet@example.com", "password": "better"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckoutRoutes(t *testing.T) {
	c := newServer(t).client("p1")
	register(t, c, "jane@example.com")

	form := map[string]string{
		"name": "Jane", "email": "jane@example.com", "address": "1 Bean St",
		"city": "Brewton", "zip": "12345", "payment_method": "card",
	}
	w := c.do(http.MethodPost, "/api/checkout", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"cart"}, decode[errorBody](t, w).Fields)

	c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": 4})
	w = c.do(http.MethodPost, "/api/checkout", map[string]string{"name": "Jane"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/checkout", form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[map[string]map[string]any](t, w)["order"]
	id, _ := order["id"].(string)
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, id)
	assert.Equal(t, "6.49", order["total"])
	assert.Equal(t, "Pending", order["status"])

	assert.Empty(t, decode[cartBody](t, c.do(http.MethodGet, "/api/cart", nil)).Items)

	w = c.do(http.MethodGet, "/api/orders", nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/orders/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/orders/ORD-00000000", nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	c := newServer(t).client("p1")

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/admin/stats", nil).Code)
	register(t, c, "jane@example.com")
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/api/admin/stats", nil).Code)

	w := c.do(http.MethodPost, "/api/auth/admin/login", map[string]string{"email": "admin@example.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	assert.EqualValues(t, 6, stats["products"])
	assert.EqualValues(t, 1, stats["customers"])

	w = c.do(http.MethodPost, "/api/admin/products", map[string]any{"name": "Flat White", "price": "4.20", "category": "coffee"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "4.2", created["price"])
	id := created["id"].(float64)
	assert.Greater(t, id, float64(6))
	// a client that reads ids as float64 can still address the product
	w = c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(id), decode[cartBody](t, w).Items[0].ID)
	c.do(http.MethodDelete, "/api/cart", nil)

	w = c.do(http.MethodPost, "/api/admin/products", map[string]any{"name": "", "price": "-1", "category": "coffee"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"name", "price"}, decode[errorBody](t, w).Fields)

	w = c.do(http.MethodPut, "/api/admin/products/2", map[string]any{"name": "Salted Caramel", "price": 6.25, "category": "coffee"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Salted Caramel", decode[map[string]any](t, w)["name"])
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPut, "/api/admin/products/99", map[string]any{"name": "x", "price": 1, "category": "c"}).Code)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/api/admin/products/6", nil).Code)
	assert.Len(t, decode[[]map[string]any](t, c.do(http.MethodGet, "/api/admin/products", nil)), 6)

	w = c.do(http.MethodGet, "/api/admin/products/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "id,name,price,category,description,image"))

	users := decode[[]map[string]any](t, c.do(http.MethodGet, "/api/admin/users", nil))
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "password")
	}
	assert.Empty(t, decode[[]map[string]any](t, c.do(http.MethodGet, "/api/admin/orders", nil)))
}

func TestAdminOrderStatus(t *testing.T) {
	c := newServer(t).client("p1")
	register(t, c, "jane@example.com")
	c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": 1})
	w := c.do(http.MethodPost, "/api/checkout", map[string]string{
		"name": "Jane", "email": "jane@example.com", "address": "1 Bean St",
		"city": "Brewton", "zip": "12345", "payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[map[string]map[string]any](t, w)["order"]["id"].(string)

	c.do(http.MethodPost, "/api/auth/admin/login", map[string]string{"email": "admin@example.com", "password": "admin123"})
	w = c.do(http.MethodPut, "/api/admin/orders/"+id+"/status", map[string]string{"status": "Shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = c.do(http.MethodPut, "/api/admin/orders/"+id+"/status", map[string]string{"status": "Delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Delivered", decode[map[string]any](t, w)["status"])

	stats := decode[map[string]any](t, c.do(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, "4.99", stats["total_sales"])
	assert.EqualValues(t, 1, stats["orders"])
}

func TestProfilesAreIsolated(t *testing.T) {
	s := newServer(t)
	a, b := s.client("a"), s.client("b")
	register(t, a, "jane@example.com")
	a.do(http.MethodPost, "/api/cart", map[string]any{"product_id": 1})

	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/api/auth/me", nil).Code)
	assert.Empty(t, decode[cartBody](t, b.do(http.MethodGet, "/api/cart", nil)).Items)
	// same email registers again in another profile
	register(t, b, "jane@example.com")

	_, ok, err := s.mem.Get(t.Context(), "profile:a:cart")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCookieProfile(t *testing.T) {
	s := newServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	body, _ := json.Marshal(map[string]string{
		"username": "Jane", "email": "jane@example.com", "password": "secret", "confirm_password": "secret",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/profile/token", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]string](t, w)["token"]

	c := &client{s: s, token: token}
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/auth/me", nil).Code, "token opens the cookie's profile")
}

func TestInvalidBody(t *testing.T) {
	c := newServer(t).client("p1")
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+c.token)
	w := httptest.NewRecorder()
	c.s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartWebSocket(t *testing.T) {
	s := newServer(t)
	c := s.client("p1")
	register(t, c, "jane@example.com")

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	header := http.Header{"Authorization": {"Bearer " + c.token}}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/cart", header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() map[string]any {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	assert.Equal(t, "connected", read()["type"])
	initial := read()
	assert.Equal(t, "cart_updated", initial["type"])
	assert.EqualValues(t, 0, initial["count"])

	c.do(http.MethodPost, "/api/cart", map[string]any{"product_id": 2})
	msg := read()
	assert.Equal(t, "cart_updated", msg["type"])
	assert.Equal(t, "updated", msg["event"])
	assert.EqualValues(t, 1, msg["count"])
	assert.Equal(t, "5.99", msg["total"])

	c.do(http.MethodDelete, "/api/cart", nil)
	msg = read()
	assert.Equal(t, "cleared", msg["event"])
	assert.EqualValues(t, 0, msg["count"])
}

func TestCorsConfig(t *testing.T) {
	cfg := CorsConfig([]string{"https://shop.example.com"})
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.AllowOrigins)
	assert.Nil(t, cfg.AllowOriginFunc)

	cfg = CorsConfig(nil)
	require.NotNil(t, cfg.AllowOriginFunc)
	assert.True(t, cfg.AllowOriginFunc("http://localhost:3000"))
}
