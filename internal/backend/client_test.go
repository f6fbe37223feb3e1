package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kirito-012/Ancient-Health/internal/domain"
	"github.com/Kirito-012/Ancient-Health/pkg/httpclient"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := httpclient.New(httpclient.NoRetryConfig(5 * time.Second))
	public := httpclient.NewCircuitBreakerClient(base,
		httpclient.DefaultCircuitBreakerConfig("test-catalog"), testLogger())
	return New(srv.URL, base, public, testLogger())
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestMe_SendsBearerCredential(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"user": map[string]any{
					"_id": "u1", "name": "Asha", "email": "asha@example.com",
					"addresses": []map[string]any{
						{"_id": "a1", "city": "Jaipur", "isDefault": true},
					},
				},
			},
		})
	}))

	profile, err := client.Me(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, "Asha", profile.Name)
	require.Len(t, profile.Addresses, 1, "the profile nests under a user key")
	assert.Equal(t, "a1", profile.Addresses[0].ID)
}

func TestUpdateProfile_RefetchesAfterWrite(t *testing.T) {
	var putSeen bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/auth/profile":
			putSeen = true
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Asha P", body["name"])
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true})
		case r.Method == http.MethodGet && r.URL.Path == "/api/auth/me":
			assert.True(t, putSeen, "the profile is fetched after the write")
			writeEnvelope(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"user": map[string]any{"_id": "u1", "name": "Asha P"}},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	profile, err := client.UpdateProfile(context.Background(), "token-1", ProfileUpdate{Name: "Asha P"})
	require.NoError(t, err)
	assert.Equal(t, "Asha P", profile.Name)
}

func TestLogin_BodyShapeAndResult(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "asha@example.com", body["email"])
		assert.Equal(t, "secret123", body["password"])

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"token": "token-1",
				"user":  map[string]any{"_id": "u1", "name": "Asha"},
			},
		})
	}))

	result, err := client.Login(context.Background(), LoginRequest{
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-1", result.Token)
	assert.Equal(t, "u1", result.User.ID)
}

func TestDo_401MapsToUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "jwt expired",
		})
	}))

	_, err := client.Me(context.Background(), "stale")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Equal(t, "jwt expired", apperrors.UserMessage(err, ""))
}

func TestDo_RejectionSurfacesBackendMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Only 5 in stock",
		})
	}))

	_, err := client.AddToCart(context.Background(), "token-1", "p1", 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBackendRejected))
	assert.Equal(t, "Only 5 in stock", apperrors.UserMessage(err, ""))
}

func TestDo_RejectionWithoutMessageUsesFallback(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, map[string]any{"success": false})
	}))

	_, err := client.ClearCart(context.Background(), "token-1")
	require.Error(t, err)
	assert.Equal(t, "Something went wrong. Please try again.", apperrors.UserMessage(err, ""))
}

func TestDo_404MapsToNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "Order not found",
		})
	}))

	_, err := client.GetOrder(context.Background(), "token-1", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDo_NonEnvelopeErrorBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>Bad Gateway</html>"))
	}))

	_, err := client.GetCart(context.Background(), "token-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBackendRejected))
	assert.Equal(t, "Something went wrong. Please try again.", apperrors.UserMessage(err, ""))
}

func TestDo_UnreachableBackendIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens on this address anymore

	base := httpclient.New(httpclient.NoRetryConfig(time.Second))
	public := httpclient.NewCircuitBreakerClient(base,
		httpclient.DefaultCircuitBreakerConfig("test-catalog-down"), testLogger())
	client := New(srv.URL, base, public, testLogger())

	_, err := client.GetCart(context.Background(), "token-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNetwork))
}

func TestCreateOrder_BodyShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/create", r.URL.Path)

		var body struct {
			ShippingAddress domain.Address `json:"shippingAddress"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a1", body.ShippingAddress.ID)
		assert.Equal(t, "Jaipur", body.ShippingAddress.City)

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"amount":          499.5,
				"razorpayOrderId": "order_abc",
				"key":             "rzp_test_key",
			},
		})
	}))

	pending, err := client.CreateOrder(context.Background(), "token-1",
		domain.Address{ID: "a1", City: "Jaipur"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", pending.GatewayOrderID)
	assert.Equal(t, "rzp_test_key", pending.Key)
	assert.Equal(t, int64(49950), pending.AmountPaise())
}

func TestVerifyPayment_BodyShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/verify", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "order_abc", body["razorpayOrderId"])
		assert.Equal(t, "pay_123", body["razorpayPaymentId"])
		assert.Equal(t, "sig_456", body["razorpaySignature"])
		assert.Equal(t, "Razorpay", body["paymentMethod"])

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"_id": "ord-1", "orderNumber": "AH-1001"},
		})
	}))

	record, err := client.VerifyPayment(context.Background(), "token-1", VerifyRequest{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_123",
		GatewaySignature: "sig_456",
		PaymentMethod:    "Razorpay",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", record.ID)
	assert.Equal(t, "AH-1001", record.OrderNumber)
}

func TestListProducts_PaginationAndQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "12", r.URL.Query().Get("limit"))

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"_id": "p1", "title": "Ashwagandha Capsules", "price": 299},
			},
			"pagination": map[string]any{
				"page": 2, "limit": 12, "total": 25, "totalPages": 3,
			},
		})
	}))

	products, pagination, err := client.ListProducts(context.Background(), 2, 12)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Ashwagandha Capsules", products[0].Title)
	assert.Equal(t, 25, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
}

func TestRemoveCartItem_PathCarriesProductID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/cart/remove/p42", r.URL.Path)
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"items": []any{}, "totalItems": 0, "totalPrice": 0},
		})
	}))

	snapshot, err := client.RemoveCartItem(context.Background(), "token-1", "p42")
	require.NoError(t, err)
	assert.True(t, snapshot.IsEmpty())
}
