package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/entities"
	"github.com/Semzy1/Log-In-page-main/internal/handler"
	"github.com/Semzy1/Log-In-page-main/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubOrderService struct {
	createFn     func(ctx context.Context, req service.CreateOrderRequest) (entities.Order, error)
	cancelFn     func(ctx context.Context, orderID, requesterID, reason string) (entities.Order, error)
	transitionFn func(ctx context.Context, orderID string, next entities.OrderStatus, trackingNumber, notes string) (entities.Order, error)
	getFn        func(ctx context.Context, orderID, requesterID string, isAdmin bool) (entities.Order, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (entities.Order, error) {
	return s.createFn(ctx, req)
}

func (s *stubOrderService) CancelOrder(ctx context.Context, orderID, requesterID, reason string) (entities.Order, error) {
	return s.cancelFn(ctx, orderID, requesterID, reason)
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, orderID string, next entities.OrderStatus, trackingNumber, notes string) (entities.Order, error) {
	return s.transitionFn(ctx, orderID, next, trackingNumber, notes)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (entities.Order, error) {
	return s.getFn(ctx, orderID, requesterID, isAdmin)
}

type stubPaymentService struct {
	initiateFn func(ctx context.Context, req service.InitiatePaymentRequest) (service.InitiatePaymentResult, error)
	verifyFn   func(ctx context.Context, paymentID, requesterID string) (entities.Payment, error)
	webhookFn  func(ctx context.Context, gatewayName string, payload []byte, signature string) error
	refundFn   func(ctx context.Context, paymentID string, amount int64, reason, actorID string) (entities.Payment, error)
	getFn      func(ctx context.Context, paymentID, requesterID string, isAdmin bool) (entities.Payment, error)
}

func (s *stubPaymentService) InitiatePayment(ctx context.Context, req service.InitiatePaymentRequest) (service.InitiatePaymentResult, error) {
	return s.initiateFn(ctx, req)
}

func (s *stubPaymentService) VerifyPayment(ctx context.Context, paymentID, requesterID string) (entities.Payment, error) {
	return s.verifyFn(ctx, paymentID, requesterID)
}

func (s *stubPaymentService) HandleWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) error {
	return s.webhookFn(ctx, gatewayName, payload, signature)
}

func (s *stubPaymentService) AddRefund(ctx context.Context, paymentID string, amount int64, reason, actorID string) (entities.Payment, error) {
	return s.refundFn(ctx, paymentID, amount, reason, actorID)
}

func (s *stubPaymentService) GetPayment(ctx context.Context, paymentID, requesterID string, isAdmin bool) (entities.Payment, error) {
	return s.getFn(ctx, paymentID, requesterID, isAdmin)
}

func newTestRouter(orders handler.OrderService, payments handler.PaymentService) http.Handler {
	h := handler.NewHTTPHandler(testLogger, orders, payments, testSecret)
	r := chi.NewRouter()
	h.Init(r)
	return r
}

func signToken(t *testing.T, secret, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"name":  "Test User",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doRequest(router http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validCreateOrderBody() map[string]any {
	return map[string]any{
		"shipping_address": map[string]any{
			"full_name": "Ada Obi",
			"street":    "12 Marina Rd",
			"city":      "Lagos",
			"country":   "NG",
		},
		"payment_method": "card",
	}
}

func TestHTTPHandler_Auth(t *testing.T) {
	router := newTestRouter(&stubOrderService{
		getFn: func(_ context.Context, orderID, _ string, _ bool) (entities.Order, error) {
			return entities.Order{ID: orderID}, nil
		},
	}, &stubPaymentService{})

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/orders/ORD-AAA", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/orders/ORD-AAA", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing secret", func(t *testing.T) {
		token := signToken(t, "another-secret", "u1", "")
		rec := doRequest(router, http.MethodGet, "/orders/ORD-AAA", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)
		rec := doRequest(router, http.MethodGet, "/orders/ORD-AAA", signed, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testSecret, "u1", "")
		rec := doRequest(router, http.MethodGet, "/orders/ORD-AAA", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin route refuses plain users", func(t *testing.T) {
		token := signToken(t, testSecret, "u1", "")
		rec := doRequest(router, http.MethodPost, "/admin/orders/ORD-AAA/status", token,
			map[string]any{"status": "shipped"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHTTPHandler_CreateOrder(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		var got service.CreateOrderRequest
		router := newTestRouter(&stubOrderService{
			createFn: func(_ context.Context, req service.CreateOrderRequest) (entities.Order, error) {
				got = req
				return entities.Order{
					ID: "ORD-AAA", UserID: req.UserID, Status: entities.OrderPending,
					Subtotal: 20000, Tax: 1500, Shipping: 2500, Total: 24000, Currency: "NGN",
				}, nil
			},
		}, &stubPaymentService{})

		token := signToken(t, testSecret, "u1", "")
		rec := doRequest(router, http.MethodPost, "/orders", token, validCreateOrderBody())
		require.Equal(t, http.StatusCreated, rec.Code)

		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "Ada Obi", got.ShippingAddress.FullName)
		assert.Equal(t, entities.MethodCard, got.PaymentMethod)

		var resp handler.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ORD-AAA", resp.OrderID)
		assert.Equal(t, int64(24000), resp.Total)
	})

	t.Run("invalid json", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{})
		token := signToken(t, testSecret, "u1", "")

		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte("{")))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failures", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{})
		token := signToken(t, testSecret, "u1", "")

		testCases := []struct {
			name string
			body map[string]any
		}{
			{"missing shipping address", map[string]any{"payment_method": "card"}},
			{"missing street", map[string]any{
				"shipping_address": map[string]any{"full_name": "Ada Obi"},
				"payment_method":   "card",
			}},
			{"unknown payment method", map[string]any{
				"shipping_address": validCreateOrderBody()["shipping_address"],
				"payment_method":   "cowries",
			}},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				rec := doRequest(router, http.MethodPost, "/orders", token, tc.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})
}

func TestHTTPHandler_DomainErrorMapping(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"order not found", entities.ErrOrderNotFound, http.StatusNotFound},
		{"forbidden", entities.ErrForbidden, http.StatusForbidden},
		{"empty cart", entities.ErrEmptyCart, http.StatusUnprocessableEntity},
		{"product unavailable", entities.ProductError(entities.ErrProductUnavailable, "p1"), http.StatusUnprocessableEntity},
		{"insufficient stock", entities.ProductError(entities.ErrInsufficientStock, "p1"), http.StatusUnprocessableEntity},
		{"invalid transition", entities.ErrInvalidTransition, http.StatusConflict},
		{"duplicate payment", entities.ErrDuplicatePayment, http.StatusConflict},
		{"gateway rejected", entities.ErrGatewayRejected, http.StatusConflict},
		{"gateway unavailable", entities.ErrGatewayUnavailable, http.StatusBadGateway},
		{"unexpected", errors.New("db exploded"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubOrderService{
				createFn: func(context.Context, service.CreateOrderRequest) (entities.Order, error) {
					return entities.Order{}, tc.err
				},
			}, &stubPaymentService{})

			token := signToken(t, testSecret, "u1", "")
			rec := doRequest(router, http.MethodPost, "/orders", token, validCreateOrderBody())
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestHTTPHandler_InitiatePayment(t *testing.T) {
	t.Run("created with provider payload", func(t *testing.T) {
		var got service.InitiatePaymentRequest
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{
			initiateFn: func(_ context.Context, req service.InitiatePaymentRequest) (service.InitiatePaymentResult, error) {
				got = req
				return service.InitiatePaymentResult{
					Payment: entities.Payment{ID: "pay-1", OrderID: req.OrderID, Status: entities.PaymentPending},
					Payload: map[string]string{"authorization_url": "https://checkout.example/abc"},
				}, nil
			},
		})

		token := signToken(t, testSecret, "u1", "")
		rec := doRequest(router, http.MethodPost, "/payments", token,
			map[string]any{"order_id": "ORD-AAA", "method": "paystack"})
		require.Equal(t, http.StatusCreated, rec.Code)

		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "u1@example.com", got.CustomerEmail)
		assert.Equal(t, entities.MethodPaystack, got.Method)

		var resp handler.InitiatePaymentResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "pay-1", resp.Payment.PaymentID)
		assert.Equal(t, "https://checkout.example/abc", resp.Payload["authorization_url"])
	})

	t.Run("duplicate attempt conflicts", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{
			initiateFn: func(context.Context, service.InitiatePaymentRequest) (service.InitiatePaymentResult, error) {
				return service.InitiatePaymentResult{}, entities.ErrDuplicatePayment
			},
		})

		token := signToken(t, testSecret, "u1", "")
		rec := doRequest(router, http.MethodPost, "/payments", token,
			map[string]any{"order_id": "ORD-AAA", "method": "paystack"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHTTPHandler_AddRefund(t *testing.T) {
	t.Run("admin records refund", func(t *testing.T) {
		var gotActor string
		var gotAmount int64
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{
			refundFn: func(_ context.Context, paymentID string, amount int64, _, actorID string) (entities.Payment, error) {
				gotActor, gotAmount = actorID, amount
				return entities.Payment{ID: paymentID, Status: entities.PaymentPartiallyRefunded}, nil
			},
		})

		token := signToken(t, testSecret, "admin-1", "admin")
		rec := doRequest(router, http.MethodPost, "/admin/payments/pay-1/refunds", token,
			map[string]any{"amount": 5000, "reason": "damaged item"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin-1", gotActor)
		assert.Equal(t, int64(5000), gotAmount)
	})

	t.Run("refund beyond amount conflicts", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{
			refundFn: func(context.Context, string, int64, string, string) (entities.Payment, error) {
				return entities.Payment{}, entities.ErrRefundExceeded
			},
		})

		token := signToken(t, testSecret, "admin-1", "admin")
		rec := doRequest(router, http.MethodPost, "/admin/payments/pay-1/refunds", token,
			map[string]any{"amount": 5000, "reason": "too much"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("zero amount rejected by validation", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{})
		token := signToken(t, testSecret, "admin-1", "admin")
		rec := doRequest(router, http.MethodPost, "/admin/payments/pay-1/refunds", token,
			map[string]any{"amount": 0, "reason": "nothing"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTPHandler_HandleWebhook(t *testing.T) {
	t.Run("passes payload and signature header", func(t *testing.T) {
		var gotGateway, gotSignature string
		var gotPayload []byte
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{
			webhookFn: func(_ context.Context, gatewayName string, payload []byte, signature string) error {
				gotGateway, gotPayload, gotSignature = gatewayName, payload, signature
				return nil
			},
		})

		body := []byte(`{"event":"charge.success"}`)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
		req.Header.Set("X-Paystack-Signature", "abc123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "paystack", gotGateway)
		assert.Equal(t, body, gotPayload)
		assert.Equal(t, "abc123", gotSignature)
	})

	t.Run("invalid signature", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{
			webhookFn: func(context.Context, string, []byte, string) error {
				return entities.ErrInvalidSignature
			},
		})

		rec := doRequest(router, http.MethodPost, "/webhooks/paystack", "", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown gateway", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{
			webhookFn: func(context.Context, string, []byte, string) error {
				return entities.ErrUnknownGateway
			},
		})

		rec := doRequest(router, http.MethodPost, "/webhooks/quickpay", "", map[string]any{})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("processing failure is a server error", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{}, &stubPaymentService{
			webhookFn: func(context.Context, string, []byte, string) error {
				return errors.New("db down")
			},
		})

		rec := doRequest(router, http.MethodPost, "/webhooks/paystack", "", map[string]any{})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHTTPHandler_VerifyPayment(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, &stubPaymentService{
		verifyFn: func(_ context.Context, paymentID, requesterID string) (entities.Payment, error) {
			if requesterID != "u1" {
				return entities.Payment{}, entities.ErrForbidden
			}
			return entities.Payment{ID: paymentID, Status: entities.PaymentCompleted}, nil
		},
	})

	t.Run("owner verifies", func(t *testing.T) {
		token := signToken(t, testSecret, "u1", "")
		rec := doRequest(router, http.MethodPost, "/payments/pay-1/verify", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.Payment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(entities.PaymentCompleted), resp.Status)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		token := signToken(t, testSecret, "u2", "")
		rec := doRequest(router, http.MethodPost, "/payments/pay-1/verify", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
