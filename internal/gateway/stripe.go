package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/config"
	"github.com/Semzy1/Log-In-page-main/internal/entities"
)

const NameStripe = "stripe"

// stripeSignatureTolerance bounds how old a signed webhook timestamp may be.
const stripeSignatureTolerance = 5 * time.Minute

// StripeAdapter charges cards through PaymentIntents. The correlation
// reference is the PaymentIntent id assigned by Stripe on initiation.
type StripeAdapter struct {
	client  *http.Client
	baseURL string
	secret  string
	now     func() time.Time
}

func NewStripeAdapter(cfg config.Gateway, timeout time.Duration) *StripeAdapter {
	return &StripeAdapter{
		client:  newHTTPClient(timeout),
		baseURL: cfg.BaseURL,
		secret:  cfg.Secret,
		now:     time.Now,
	}
}

func (a *StripeAdapter) Name() string { return NameStripe }

type stripePaymentIntent struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	AmountReceived int64  `json:"amount_received"`
	ClientSecret   string `json:"client_secret"`
	LatestCharge   string `json:"latest_charge"`
	Currency       string `json:"currency"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *StripeAdapter) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("metadata[order_id]", req.OrderID)
	form.Set("metadata[reference]", req.Reference)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return InitiateResult{}, fmt.Errorf("failed to build stripe request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.secret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	intent, err := a.do(httpReq)
	if err != nil {
		return InitiateResult{}, err
	}

	return InitiateResult{
		Reference: intent.ID,
		Payload: map[string]string{
			"payment_intent": intent.ID,
			"client_secret":  intent.ClientSecret,
		},
	}, nil
}

func (a *StripeAdapter) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/payment_intents/"+reference, nil)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("failed to build stripe request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.secret)

	intent, err := a.do(httpReq)
	if err != nil {
		return VerifyResult{}, err
	}

	result := VerifyResult{
		ConfirmedAmount: intent.AmountReceived,
		GatewayTxnID:    intent.LatestCharge,
		Message:         intent.Status,
		Metadata:        map[string]string{"currency": intent.Currency},
	}

	switch intent.Status {
	case "succeeded":
		result.Verified = true
	case "processing", "requires_payment_method", "requires_confirmation", "requires_action":
		result.Pending = true
	}
	return result, nil
}

// VerifyWebhook checks the Stripe-Signature header: a timestamp and one or
// more v1 HMAC-SHA256 signatures over "<timestamp>.<payload>".
func (a *StripeAdapter) VerifyWebhook(payload []byte, signature string) error {
	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return entities.ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return entities.ErrInvalidSignature
	}
	if a.now().Sub(time.Unix(ts, 0)) > stripeSignatureTolerance {
		return entities.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(a.secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}
	return entities.ErrInvalidSignature
}

type stripeWebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object stripePaymentIntent `json:"object"`
	} `json:"data"`
}

func (a *StripeAdapter) ParseWebhook(payload []byte) (WebhookEvent, error) {
	var event stripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to decode stripe webhook: %w", err)
	}

	intent := event.Data.Object
	return WebhookEvent{
		Type:         event.Type,
		Reference:    intent.ID,
		Success:      event.Type == "payment_intent.succeeded",
		Amount:       intent.AmountReceived,
		GatewayTxnID: intent.LatestCharge,
		Metadata:     map[string]string{"currency": intent.Currency},
	}, nil
}

func (a *StripeAdapter) do(req *http.Request) (stripePaymentIntent, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		return stripePaymentIntent{}, unavailable(NameStripe, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return stripePaymentIntent{}, unavailableStatus(NameStripe, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeError
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return stripePaymentIntent{}, unavailable(NameStripe, err)
		}
		return stripePaymentIntent{}, fmt.Errorf("%w: %s", entities.ErrGatewayRejected, stripeErr.Error.Message)
	}

	var intent stripePaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return stripePaymentIntent{}, unavailable(NameStripe, err)
	}
	return intent, nil
}
