// Package gateway translates generic payment intent into provider wire
// protocols. New providers implement Adapter and register with the Registry;
// the coordinator never branches on provider names.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/entities"
)

type InitiateRequest struct {
	// Reference is the correlation reference generated by the coordinator.
	// Providers that assign their own reference return it from Initiate.
	Reference     string
	OrderID       string
	Amount        int64
	Currency      string
	CustomerEmail string
	CustomerName  string
}

type InitiateResult struct {
	Reference string
	// Payload is opaque to the coordinator: checkout URLs, client secrets,
	// transfer instructions. It is handed back to the paying client as-is.
	Payload map[string]string
}

type VerifyResult struct {
	Verified        bool
	Pending         bool
	ConfirmedAmount int64
	GatewayTxnID    string
	Message         string
	Metadata        map[string]string
}

type WebhookEvent struct {
	Type         string
	Reference    string
	Success      bool
	Amount       int64
	GatewayTxnID string
	Metadata     map[string]string
}

type Adapter interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)
	Verify(ctx context.Context, reference string) (VerifyResult, error)
	// VerifyWebhook checks the signature over the raw payload before anything
	// is parsed or looked up.
	VerifyWebhook(payload []byte, signature string) error
	ParseWebhook(payload []byte) (WebhookEvent, error)
}

type Registry struct {
	adapters map[string]Adapter
	byMethod map[entities.PaymentMethod]string
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter, len(adapters)),
		byMethod: map[entities.PaymentMethod]string{
			entities.MethodCard:         NameStripe,
			entities.MethodBankTransfer: NameBankTransfer,
			entities.MethodPaystack:     NamePaystack,
			entities.MethodFlutterwave:  NameFlutterwave,
		},
	}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnknownGateway, name)
	}
	return a, nil
}

func (r *Registry) ForMethod(method entities.PaymentMethod) (Adapter, error) {
	name, ok := r.byMethod[method]
	if !ok {
		return nil, fmt.Errorf("%w: no gateway for method %s", entities.ErrUnknownGateway, method)
	}
	return r.Get(name)
}

var signatureHeaders = map[string]string{
	NamePaystack:    "X-Paystack-Signature",
	NameFlutterwave: "Verif-Hash",
	NameStripe:      "Stripe-Signature",
}

// SignatureHeader names the HTTP header a provider signs its webhooks with.
// Empty for providers without webhooks.
func SignatureHeader(gatewayName string) string {
	return signatureHeaders[gatewayName]
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// unavailable wraps transport-level failures so callers can retry, as opposed
// to definitive provider declines.
func unavailable(gateway string, err error) error {
	return fmt.Errorf("%w: %s: %v", entities.ErrGatewayUnavailable, gateway, err)
}

func unavailableStatus(gateway string, status int) error {
	return fmt.Errorf("%w: %s responded with status %d", entities.ErrGatewayUnavailable, gateway, status)
}
