package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kirito-012/Ancient-Health/internal/backend"
	"github.com/Kirito-012/Ancient-Health/internal/catalog"
	"github.com/Kirito-012/Ancient-Health/internal/checkout"
	"github.com/Kirito-012/Ancient-Health/internal/gateway/razorpay"
	"github.com/Kirito-012/Ancient-Health/internal/notify"
	"github.com/Kirito-012/Ancient-Health/internal/orders"
	"github.com/Kirito-012/Ancient-Health/internal/session"
	"github.com/Kirito-012/Ancient-Health/pkg/health"
	"github.com/Kirito-012/Ancient-Health/pkg/httpclient"
	"github.com/Kirito-012/Ancient-Health/pkg/httputil"
	"github.com/Kirito-012/Ancient-Health/pkg/middleware"
)

// fakePlatform fakes the platform backend API with just enough behavior for
// the storefront flows: one user, one product, a server-held cart.
type fakePlatform struct {
	cartAddHits atomic.Int32
}

func (f *fakePlatform) handler() http.Handler {
	mux := http.NewServeMux()

	user := map[string]any{
		"_id":   "u1",
		"name":  "Asha",
		"email": "asha@example.com",
		"phone": "9876543210",
		"addresses": []map[string]any{
			{
				"_id": "a1", "name": "Asha", "phone": "9876543210",
				"address": "12 MG Road", "city": "Jaipur", "state": "Rajasthan",
				"pincode": "302001", "isDefault": true,
			},
		},
	}
	cart := map[string]any{
		"items": []map[string]any{
			{"productId": "p1", "title": "Ashwagandha Capsules", "price": 299.0, "quantity": 1, "stock": 10},
		},
		"totalItems": 1,
		"totalPrice": 299.0,
	}
	ok := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "unauthorized"})
			return false
		}
		return true
	}

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]any{"token": "token-1", "user": user})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			ok(w, map[string]any{"user": user})
		}
	})
	mux.HandleFunc("GET /api/cart", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			ok(w, cart)
		}
	})
	mux.HandleFunc("POST /api/cart/add", func(w http.ResponseWriter, r *http.Request) {
		f.cartAddHits.Add(1)
		if authorized(w, r) {
			ok(w, cart)
		}
	})
	mux.HandleFunc("DELETE /api/cart/clear", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			ok(w, map[string]any{"items": []any{}, "totalItems": 0, "totalPrice": 0})
		}
	})
	mux.HandleFunc("POST /api/orders/create", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			ok(w, map[string]any{"amount": 299.0, "razorpayOrderId": "order_abc", "key": "rzp_test_key"})
		}
	})
	mux.HandleFunc("POST /api/orders/verify", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["razorpayOrderId"] == "" || body["paymentMethod"] != "Razorpay" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "malformed verification payload"})
			return
		}
		ok(w, map[string]any{"_id": "ord-1", "orderNumber": "AH-1001"})
	})

	return mux
}

func newStorefront(t *testing.T) (http.Handler, *fakePlatform) {
	t.Helper()

	platform := &fakePlatform{}
	backendSrv := httptest.NewServer(platform.handler())
	t.Cleanup(backendSrv.Close)

	scriptSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("/* checkout */"))
	}))
	t.Cleanup(scriptSrv.Close)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := httpclient.New(httpclient.NoRetryConfig(5 * time.Second))
	public := httpclient.NewCircuitBreakerClient(client,
		httpclient.DefaultCircuitBreakerConfig("router-test-catalog"), log)

	api := backend.New(backendSrv.URL, client, public, log)
	widget := razorpay.New(scriptSrv.URL, client, log)
	notifier := notify.NewHub(log)
	brand := checkout.Brand{Name: "Ancient Health", ThemeColor: "#2d5f4f", Currency: "INR"}
	hub := session.NewHub(api, session.NewMemoryCredentialStore(), widget, notifier, brand, time.Hour, log)

	router := NewRouter(RouterDeps{
		Hub:           hub,
		Backend:       api,
		Widget:        widget,
		Viewer:        orders.NewViewer(api),
		Catalog:       catalog.NewService(api),
		Events:        nil, // analytics disabled, as when no brokers are configured
		HealthHandler: health.NewHandler(),
		CORS:          middleware.DefaultCORSConfig(),
		Logger:        log,
	})
	return router, platform
}

type apiResponse struct {
	Data    map[string]json.RawMessage `json:"data"`
	Notices []notify.Notice            `json:"notices"`
	Error   *httputil.ErrorResponse    `json:"error"`
}

func doJSON(t *testing.T, router http.Handler, method, path, sessionID, body string) (int, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Session-ID", sessionID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w.Code, resp
}

func TestCartAdd_WithoutLoginRedirectsToLogin(t *testing.T) {
	router, platform := newStorefront(t)

	code, resp := doJSON(t, router, http.MethodPost, "/api/cart/add", "sess-guest",
		`{"productId":"p1","quantity":1}`)

	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTH_REQUIRED", resp.Error.Code)
	assert.Equal(t, "Please login to add items to cart", resp.Error.Message)
	assert.Equal(t, "/login", resp.Error.Redirect)
	assert.Zero(t, platform.cartAddHits.Load(), "the backend must never see an unauthenticated mutation")
}

func TestCartAdd_AfterLogin(t *testing.T) {
	router, platform := newStorefront(t)

	code, _ := doJSON(t, router, http.MethodPost, "/api/auth/login", "sess-1",
		`{"email":"asha@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, code)

	code, resp := doJSON(t, router, http.MethodPost, "/api/cart/add", "sess-1",
		`{"productId":"p1","quantity":1}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int32(1), platform.cartAddHits.Load())

	var cart struct {
		TotalItems int `json:"totalItems"`
	}
	require.NoError(t, json.Unmarshal(resp.Data["cart"], &cart))
	assert.Equal(t, 1, cart.TotalItems)

	require.NotEmpty(t, resp.Notices)
	assert.Equal(t, "success", resp.Notices[0].Level)
	assert.Equal(t, "Product added to cart", resp.Notices[0].Message)
}

func TestCheckoutFlow_EndToEnd(t *testing.T) {
	router, _ := newStorefront(t)
	const sess = "sess-checkout"

	code, _ := doJSON(t, router, http.MethodPost, "/api/auth/login", sess,
		`{"email":"asha@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, code)

	code, resp := doJSON(t, router, http.MethodPost, "/api/checkout/address", sess, "")
	require.Equal(t, http.StatusOK, code)

	var status checkoutStatus
	require.NoError(t, json.Unmarshal(resp.Data["checkout"], &status))
	assert.Equal(t, "address_confirmed", status.State)
	require.NotNil(t, status.Address)
	assert.Equal(t, "a1", status.Address.ID)

	code, resp = doJSON(t, router, http.MethodPost, "/api/checkout/pay", sess, "")
	require.Equal(t, http.StatusOK, code)

	var opts struct {
		Key     string `json:"key"`
		Amount  int64  `json:"amount"`
		OrderID string `json:"order_id"`
		Prefill struct {
			Contact string `json:"contact"`
		} `json:"prefill"`
	}
	require.NoError(t, json.Unmarshal(resp.Data["gateway"], &opts))
	assert.Equal(t, "rzp_test_key", opts.Key)
	assert.Equal(t, int64(29900), opts.Amount)
	assert.Equal(t, "order_abc", opts.OrderID)
	assert.Equal(t, "+919876543210", opts.Prefill.Contact)

	code, resp = doJSON(t, router, http.MethodPost, "/api/checkout/callback/success", sess,
		`{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_123","razorpay_signature":"sig_456"}`)
	require.Equal(t, http.StatusOK, code)

	require.NoError(t, json.Unmarshal(resp.Data["checkout"], &status))
	assert.Equal(t, "success", status.State)
	assert.Equal(t, "ord-1", status.OrderID)
}

func TestCheckoutDismiss_ReturnsToConfirmedAddress(t *testing.T) {
	router, _ := newStorefront(t)
	const sess = "sess-dismiss"

	code, _ := doJSON(t, router, http.MethodPost, "/api/auth/login", sess,
		`{"email":"asha@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, router, http.MethodPost, "/api/checkout/address", sess, "")
	require.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, router, http.MethodPost, "/api/checkout/pay", sess, "")
	require.Equal(t, http.StatusOK, code)

	code, resp := doJSON(t, router, http.MethodPost, "/api/checkout/callback/dismiss", sess,
		`{"razorpay_order_id":"order_abc"}`)
	require.Equal(t, http.StatusOK, code)

	var status checkoutStatus
	require.NoError(t, json.Unmarshal(resp.Data["checkout"], &status))
	assert.Equal(t, "address_confirmed", status.State)
}

func TestCheckoutPay_WithoutAddressRedirects(t *testing.T) {
	router, _ := newStorefront(t)

	code, resp := doJSON(t, router, http.MethodPost, "/api/checkout/address", "sess-guest", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTH_REQUIRED", resp.Error.Code)
	assert.Equal(t, "/login", resp.Error.Redirect)
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	router, _ := newStorefront(t)

	code, resp := doJSON(t, router, http.MethodPost, "/api/auth/logout", "sess-never-seen", "")
	assert.Equal(t, http.StatusOK, code)

	var status string
	require.NoError(t, json.Unmarshal(resp.Data["status"], &status))
	assert.Equal(t, "logged_out", status)
}

func TestSessionID_IssuedWhenMissing(t *testing.T) {
	router, _ := newStorefront(t)

	req := httptest.NewRequest(http.MethodGet, "/api/checkout", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Session-ID"), "a missing session id must be issued")
}

type checkoutStatus struct {
	State   string `json:"state"`
	OrderID string `json:"orderId"`
	Address *struct {
		ID string `json:"_id"`
	} `json:"address"`
}
